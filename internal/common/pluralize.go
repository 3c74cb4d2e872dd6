// Package common — pluralize.go содержит склонение английских существительных
// для текстов уведомлений.
package common

import "fmt"

// Pluralize возвращает форму слова для числа n.
//
// Примеры:
//
//	Pluralize(1, "deposit", "deposits") → "deposit"
//	Pluralize(3, "deposit", "deposits") → "deposits"
func Pluralize(n int, singular, plural string) string {
	if n == 1 || n == -1 {
		return singular
	}
	return plural
}

// CountNoun создаёт строку вида "3 deposits".
func CountNoun(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, Pluralize(n, singular, plural))
}
