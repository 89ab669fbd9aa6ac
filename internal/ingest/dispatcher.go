package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"document-ingest/internal/queue"
	"document-ingest/internal/shared/metrics"
	"document-ingest/internal/shared/telemetry"
)

// UploadEventSource tags notifications that come from object uploads.
const UploadEventSource = "aws:s3"

const successMessage = "Documents processed successfully"

// Response is the aggregate outcome of a batch. Body is a JSON document
// encoded as a string, the shape a Lambda proxy integration returns.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Processor handles one notification.
type Processor interface {
	Process(ctx context.Context, n Notification) Result
}

// Dispatcher fans a batch of notifications through the pipeline one at a time.
type Dispatcher struct {
	Pipeline Processor
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(p Processor) *Dispatcher {
	return &Dispatcher{Pipeline: p}
}

// HandleRaw decodes an S3 event payload and handles it. Payloads that are
// not an event batch produce a 500 response.
func (d *Dispatcher) HandleRaw(ctx context.Context, payload []byte) Response {
	event, err := queue.DecodeEvent(payload)
	if err != nil {
		telemetry.Error("ingest.batch.failed", map[string]any{"error": err.Error()})
		return failureResponse(err)
	}
	return d.Handle(ctx, event)
}

// Handle processes every upload notification in the batch sequentially.
// Per-item failures become error results; a panic in the loop becomes a
// 500 response.
func (d *Dispatcher) Handle(ctx context.Context, event events.S3Event) (resp Response) {
	telemetry.Info("ingest.batch.start", map[string]any{"records": len(event.Records)})

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			telemetry.Error("ingest.batch.failed", map[string]any{"error": err.Error()})
			resp = failureResponse(err)
		}
	}()

	results := make([]Result, 0, len(event.Records))
	processed, failed, skipped := 0, 0, 0
	for _, rec := range event.Records {
		n := NotificationFromRecord(rec)
		if n.EventSource != UploadEventSource {
			skipped++
			continue
		}
		metrics.IncDocumentsReceived()

		res := d.Pipeline.Process(ctx, n)
		if res.Status == StatusProcessed {
			processed++
			metrics.IncDocumentsProcessed()
		} else {
			failed++
			metrics.IncDocumentsFailed()
			telemetry.Error("ingest.item.failed", map[string]any{
				"bucket": res.Bucket,
				"key":    res.Key,
				"error":  res.Error,
			})
		}
		results = append(results, res)
	}

	telemetry.Info("ingest.batch.complete", map[string]any{
		"processed": processed,
		"failed":    failed,
		"skipped":   skipped,
	})
	return successResponse(results)
}

// NotificationFromRecord extracts the bucket and decoded key from an event
// record. Keys are form-encoded, so '+' decodes to a space.
func NotificationFromRecord(rec events.S3EventRecord) Notification {
	key := rec.S3.Object.URLDecodedKey
	if key == "" {
		key = queue.UnescapeKey(rec.S3.Object.Key)
	}
	return Notification{
		EventSource: rec.EventSource,
		Bucket:      rec.S3.Bucket.Name,
		Key:         key,
	}
}

func successResponse(results []Result) Response {
	body, err := json.Marshal(struct {
		Message string   `json:"message"`
		Results []Result `json:"results"`
	}{Message: successMessage, Results: results})
	if err != nil {
		return failureResponse(err)
	}
	return Response{StatusCode: http.StatusOK, Body: string(body)}
}

func failureResponse(err error) Response {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: http.StatusInternalServerError, Body: string(body)}
}
