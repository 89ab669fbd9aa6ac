package main

import (
	"context"

	"document-ingest/internal/bootstrap"
	"document-ingest/internal/shared/server"
	"document-ingest/internal/shared/telemetry"
)

func main() {
	app := bootstrap.MustBuild(context.Background())
	defer app.Close()
	defer telemetry.Sync()

	addr := server.Addr(app.Config.Port)
	telemetry.Info("api.start", map[string]any{"addr": addr})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("api.failed", map[string]any{"error": err.Error()})
	}
}
