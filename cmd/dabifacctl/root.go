package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/dabifac/internal/app"
	"github.com/charlesng35/dabifac/internal/bootstrap"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "dabifacctl",
		Short: "Manage the dabifac asset snapshots and saved combinations",
		Long: `dabifacctl operates on the same database as the dabifac server.

Examples:
  dabifacctl snapshots status
  dabifacctl snapshots install --config ./config
  dabifacctl combinations list`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration directory or file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newSnapshotsCmd(opts))
	root.AddCommand(newCombinationsCmd(opts))
	return root
}

// withStack loads configuration, builds the runtime stack and releases it after fn.
func withStack(ctx context.Context, opts *rootOptions, fn func(*bootstrap.Stack) error) error {
	cfg, err := app.LoadConfigPath(opts.configPath)
	if err != nil {
		return err
	}
	if _, err := app.ApplyRuntimeDefaults(cfg); err != nil {
		return err
	}
	if err := app.ConfigureLogging(opts.logLevel, "console"); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	stack, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background())

	return fn(stack)
}
