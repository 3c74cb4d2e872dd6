package cli

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/taskmarket/internal/app"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := app.OpenDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		pool.Close()
		log.Info("Миграции применены")
		return nil
	},
}
