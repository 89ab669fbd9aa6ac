package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"document-ingest/internal/ingest"
	"document-ingest/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrTestEvent indicates the test message S3 sends when notifications are configured.
type ErrTestEvent struct {
	Meta MessageMeta
}

func (e ErrTestEvent) Error() string { return "s3 test event" }

// ErrDecode indicates the body is not an S3 event notification.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrProcess indicates the dispatcher reported a batch-level failure.
type ErrProcess struct {
	StatusCode int
	Body       string
}

func (e ErrProcess) Error() string {
	return "process batch: " + e.Body
}

// Dispatcher handles a decoded notification batch.
type Dispatcher interface {
	Handle(ctx context.Context, event events.S3Event) ingest.Response
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (events.S3Event, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return events.S3Event{}, meta, ErrEmptyBody{Meta: meta}
	}

	event, err := queue.DecodeEvent([]byte(body))
	if err != nil {
		if errors.Is(err, queue.ErrTestEvent) {
			return events.S3Event{}, meta, ErrTestEvent{Meta: meta}
		}
		return events.S3Event{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return event, meta, nil
}

// HandleEvent runs a decoded batch through the dispatcher. Any non-200
// response is returned as ErrProcess so the message is redelivered.
func HandleEvent(ctx context.Context, d Dispatcher, event events.S3Event) (ingest.Response, error) {
	if d == nil {
		return ingest.Response{}, errors.New("dispatcher not configured")
	}
	resp := d.Handle(ctx, event)
	if resp.StatusCode != http.StatusOK {
		return resp, ErrProcess{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

// HandleMessage parses a queue payload and processes it.
func HandleMessage(ctx context.Context, d Dispatcher, body string) (ingest.Response, error) {
	event, _, err := ParseMessage(body)
	if err != nil {
		return ingest.Response{}, err
	}
	return HandleEvent(ctx, d, event)
}
