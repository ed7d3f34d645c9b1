// Package cmd is the potbuddy command line: the HTTP server plus operator
// commands for migrations, evaluation, recalculation and test tokens.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"potbuddy-backend/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
	Dev      bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "potbuddy",
		Short: "PotBuddy - workout accountability with a shared pot",
		Long: `PotBuddy backend. Buddies share a virtual pot: every missed workout
adds a penalty, and each finished week is settled in favour of the buddy
who kept their quota.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	cmd.PersistentFlags().BoolVar(&opts.Dev, "dev", false, "human readable development logs")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewRecalculateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) *config.Config {
	cfg := config.Load()
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Dev {
		cfg.LogDev = true
	}
	return cfg
}
