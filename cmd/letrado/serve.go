package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"letrado/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the JSON API on the configured address.

Endpoints:
  POST /api/generate         generate a document
  POST /api/ingest           add corpus passages
  POST /api/documents/query  ask about a persisted document
  POST /api/analyze          analyze an uploaded contract
  GET  /api/analyses/{id}    fetch a persisted analysis
  GET  /healthz              liveness check`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := server.NewHandler(app.generator, app.ingestor, app.querier, app.analyzer)
	mux := server.NewServeMux(handler, server.NewIPRateLimiter(5, 10))

	logger.Info("Starting server", zap.String("addr", app.cfg.Server.Addr))
	return server.Run(ctx, app.cfg.Server.Addr, mux)
}
