// Package cmd assembles the tonebank command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/cmd/ingest"
	"github.com/tphakala/tonebank/cmd/list"
	"github.com/tphakala/tonebank/cmd/lookup"
	"github.com/tphakala/tonebank/cmd/rebuild"
	"github.com/tphakala/tonebank/cmd/remove"
	"github.com/tphakala/tonebank/cmd/retune"
	"github.com/tphakala/tonebank/cmd/serve"
	"github.com/tphakala/tonebank/internal/app"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "tonebank",
		Short:         "Pitched sample catalog with precomputed note maps",
		Version:       ctx.Build.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.Load(configFile, debug)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: search standard locations)")

	rootCmd.AddCommand(
		ingest.Command(ctx),
		list.Command(ctx),
		lookup.Command(ctx),
		rebuild.Command(ctx),
		remove.Command(ctx),
		retune.Command(ctx),
		serve.Command(ctx),
	)

	return rootCmd
}
