package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanyang/shiftdesk/internal/config"
)

// env is loaded once in the root pre-run and shared by every subcommand.
var env *config.Env

var rootCmd = &cobra.Command{
	Use:   "shiftdesk",
	Short: "Shift-aware task assignment for a support desk",
	Long: `shiftdesk assigns support tasks to agents by rotation or load, honouring
each agent's working hours and lunch break, and keeps a pending queue that is
drained as agents free up.

Configuration is read from SHIFTDESK_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadEnv()
		if err != nil {
			return err
		}
		env = loaded

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: env.SlogLevel(),
		}))
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}
