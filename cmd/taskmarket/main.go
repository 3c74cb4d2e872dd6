// Package main — точка входа сервиса.
// Разбирает команду (serve, migrate, hash-password) и запускает её.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.WithError(err).Error("Команда завершилась с ошибкой")
		os.Exit(1)
	}
}
