// Package cli — команды taskmarket (cobra): serve, migrate, hash-password.
package cli

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/taskmarket/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "taskmarket",
	Short:         "Peer task marketplace with an escrow ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute запускает корневую команду.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

// loadConfig загружает конфигурацию и применяет уровень логирования из неё.
func loadConfig() (*config.Config, error) {
	setupLogging()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return cfg, nil
}
