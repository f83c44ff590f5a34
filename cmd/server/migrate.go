package main

import (
	"errors"

	"github.com/spf13/cobra"

	pgdb "github.com/alanyang/shiftdesk/internal/adapter/postgres"
	"github.com/alanyang/shiftdesk/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if env.Store != config.StorePostgres {
			return errors.New("migrate needs SHIFTDESK_STORE=postgres")
		}
		ctx := cmd.Context()

		pool, err := pgdb.Connect(ctx, env.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		return pgdb.Migrate(ctx, pool)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
