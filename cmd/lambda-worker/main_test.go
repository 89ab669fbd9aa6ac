package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"document-ingest/internal/ingest"
	"document-ingest/internal/shared/config"
)

func TestHandlerReturnsBootstrapErrorOnly(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "uploads")
	t.Setenv("OBJECT_STORE", "local")
	t.Setenv("INFERENCE_PROVIDER", "local")
	t.Setenv("RECORD_STORE", "dynamodb")
	t.Setenv("DYNAMODB_TABLE_NAME", "")

	initOnce = sync.Once{}
	initErr = nil
	app = nil
	defer func() {
		initOnce = sync.Once{}
		initErr = nil
		app = nil
	}()

	resp, err := handler(context.Background(), json.RawMessage(`{"Records":[]}`))
	if !errors.Is(err, config.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
	if resp != (ingest.Response{}) {
		t.Fatalf("expected no response body alongside the error, got %+v", resp)
	}
}
