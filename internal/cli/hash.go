package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/taskmarket/internal/features/members"
)

func init() {
	rootCmd.AddCommand(hashCmd)
}

// hashCmd печатает Argon2id-хеш для ADMIN_PASSWORD_HASH.
var hashCmd = &cobra.Command{
	Use:   "hash-password PASSWORD",
	Short: "Print an Argon2id hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := members.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
