// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование сумм, маскирование email, проверка телефонов.
package common

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// CurrencySymbol — символ валюты в текстах уведомлений.
const CurrencySymbol = "₦"

// FormatNaira форматирует сумму для текста уведомления.
// Пример: FormatNaira(600) → "₦600"
func FormatNaira(amount int64) string {
	return fmt.Sprintf("%s%d", CurrencySymbol, amount)
}

// MaskEmail скрывает часть email для показа другим пользователям.
//
// Правила:
//   - локальная часть длиннее 3 символов → первые 3 символа + "***"
//   - иначе → первый символ + "***"
//
// Примеры:
//
//	MaskEmail("alice@example.com") → "ali***@example.com"
//	MaskEmail("bob@example.com")   → "b***@example.com"
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	r := []rune(local)
	if len(r) <= 3 {
		return string(r[:1]) + "***@" + domain
	}
	return string(r[:3]) + "***@" + domain
}

// NormalizeEmail приводит email к виду, в котором он хранится в базе.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail проверяет, что строка — одиночный адрес без имени.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email, "@")
}

// ValidPhone проверяет, что номер состоит ровно из digits цифр.
func ValidPhone(phone string, digits int) bool {
	if len(phone) != digits {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// LoadLocation загружает часовой пояс, при ошибке возвращает UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
