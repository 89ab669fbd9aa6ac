package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"

	"document-ingest/internal/bootstrap"
	"document-ingest/internal/ingest"
	"document-ingest/internal/shared/config"
	"document-ingest/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	telemetry.Configure(cfg.Env)
	built, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, payload json.RawMessage) (ingest.Response, error) {
	initOnce.Do(initApp)
	defer telemetry.Sync()
	if initErr != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": initErr.Error()})
		return ingest.Response{}, fmt.Errorf("bootstrap: %w", initErr)
	}
	return app.Dispatcher.HandleRaw(ctx, payload), nil
}

func main() {
	lambda.Start(handler)
}
