package main

// Serves the read-only diagnostics routes behind an API Gateway HTTP API:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"document-ingest/internal/bootstrap"
	"document-ingest/internal/shared/config"
	"document-ingest/internal/shared/server/respond"
	"document-ingest/internal/shared/telemetry"
)

type proxy struct {
	once    sync.Once
	err     error
	adapter *ginadapter.GinLambdaV2
}

func (p *proxy) init() {
	cfg := config.Load()
	telemetry.Configure(cfg.Env)
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		p.err = err
		return
	}
	p.adapter = ginadapter.NewV2(app.Router)
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p.once.Do(p.init)
	defer telemetry.Sync()
	if p.err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{
			"error":      p.err.Error(),
			"request_id": req.RequestContext.RequestID,
		})
		body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
			Code:      respond.CodeInternal,
			Message:   "bootstrap failed",
			RequestID: req.RequestContext.RequestID,
		}})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       string(body),
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	return p.adapter.ProxyWithContext(ctx, req)
}

func main() {
	p := &proxy{}
	lambda.Start(p.handle)
}
