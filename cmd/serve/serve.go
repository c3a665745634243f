package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/api"
	"github.com/tphakala/tonebank/internal/app"
)

// Command creates the serve command, running the HTTP lookup API until
// SIGINT or SIGTERM.
func Command(ctx *app.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Open(nil); err != nil {
				return err
			}

			cfg := api.ConfigFromSettings(ctx.Settings)
			if listen != "" {
				cfg.Listen = listen
			}
			server, err := api.New(cfg, ctx.Catalog, api.WithMetricsHandler(ctx.Metrics.Handler()))
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(sigCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides server.listen")
	return cmd
}
