package cmd

import (
	"finance-insights/internal/server"
	"finance-insights/pkg/errors"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics over HTTP",
		Long: `Serve exposes every analysis and the add, import and categorize operations
as a JSON API under /api. The server stops gracefully on SIGINT or SIGTERM.

Endpoints:
  GET  /healthz
  GET  /api/transactions          POST /api/transactions
  POST /api/budgets               POST /api/goals
  POST /api/import?layout=bank    POST /api/categorize
  GET  /api/health-score          GET  /api/forecast?horizon=6
  GET  /api/anomalies             GET  /api/budgets/recommendations
  GET  /api/patterns              GET  /api/progress
  GET  /api/insights

Analysis endpoints accept from and to query parameters (YYYY-MM-DD).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			serverConfig := a.config.Server
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				serverConfig.ListenAddr = listen
			}
			if cmd.Flags().Changed("origins") {
				serverConfig.AllowedOrigins, _ = cmd.Flags().GetStringSlice("origins")
			}

			srv, err := server.New(a.service, &serverConfig, a.logger)
			if err != nil {
				return errors.ConfigurationError(errors.CodeInvalidConfig, "server", serverConfig.ListenAddr, err)
			}
			return srv.Run(cmd.Context())
		},
	}

	c.Flags().String("listen", "", "listen address (default from server.listen_addr)")
	c.Flags().StringSlice("origins", nil, "allowed CORS origins (default from server.allowed_origins)")
	return c
}
