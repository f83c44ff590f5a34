package main

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alanyang/shiftdesk/internal/wire"
)

var drainMaxPasses int

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Hand pending tasks to free agents once and exit",
	Long: `Run reconciliation passes until no free agent can take a pending task, print
the assignments made as JSON, and exit. Useful from cron when no server is
running, or to catch up after editing schedules directly in the database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := wire.Build(ctx, env)
		if err != nil {
			return err
		}
		defer app.Close()

		assignments, err := app.Drainer.DrainUntilStable(ctx, drainMaxPasses)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "drain finished", "assigned", len(assignments))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(assignments)
	},
}

func init() {
	drainCmd.Flags().IntVar(&drainMaxPasses, "max-passes", 0, "upper bound on passes (0 uses the default)")
	rootCmd.AddCommand(drainCmd)
}
