package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Start the HTTP API server.

Endpoints:
  POST /api/ask             Ask a question, returns the dashboard
  GET  /api/schema          Show the warehouse schema context
  POST /api/schema/refresh  Rediscover the warehouse schema
  GET  /healthz             Health check`,
		Example: `  leapdash serve
  leapdash serve --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if port == 0 {
				port = cmdCtx.Cfg.Server.Port
			}

			// Warm the schema cache before accepting requests.
			if _, err := cmdCtx.Engine.SchemaContext(cmd.Context()); err != nil {
				cmdCtx.Logger.Warn("schema discovery failed at startup", "error", err)
			}

			srv := server.NewServer(server.Config{
				Engine: cmdCtx.Engine,
				Port:   port,
				Logger: cmdCtx.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Serve(ctx); err != nil && !isContextCanceled(err) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")
	return cmd
}

func isContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
