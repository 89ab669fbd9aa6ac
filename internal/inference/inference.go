package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"document-ingest/internal/shared/metrics"
)

var (
	// ErrEmptyResponse means the endpoint answered with no content blocks.
	ErrEmptyResponse = errors.New("inference response has no content")
	// ErrMalformedResponse means the endpoint's body could not be interpreted.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Client invokes a text or multimodal inference endpoint.
type Client interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Attachment is a base64-encoded document or image sent alongside the prompt.
type Attachment struct {
	MediaType string
	Data      string
}

// Request is a single-turn user prompt with optional attachment and sampling bounds.
type Request struct {
	ModelID     string
	Prompt      string
	Attachment  *Attachment
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Validate rejects requests no provider can serve.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("inference request: prompt is required")
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("inference request: max tokens must be positive, got %d", r.MaxTokens)
	}
	if r.Attachment != nil && (r.Attachment.MediaType == "" || r.Attachment.Data == "") {
		return errors.New("inference request: attachment needs media type and data")
	}
	return nil
}

// Response carries the first text block the endpoint produced, untrimmed.
type Response struct {
	Text string
}

// Instrumented wraps a Client and records call counts and latency.
func Instrumented(base Client) Client {
	return instrumented{base: base}
}

type instrumented struct {
	base Client
}

func (i instrumented) Invoke(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := i.base.Invoke(ctx, req)
	metrics.ObserveInference(start, err)
	return resp, err
}
