package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"document-ingest/internal/documents"
)

const (
	StatusProcessed = "processed"
	StatusError     = "error"
)

// Notification is one upload event with its key already URL-decoded.
type Notification struct {
	EventSource string
	Bucket      string
	Key         string
}

// Result is the per-notification outcome returned to the caller.
type Result struct {
	DocumentID    string `json:"document_id,omitempty"`
	Bucket        string `json:"bucket"`
	Key           string `json:"key"`
	Status        string `json:"status"`
	TextLength    *int   `json:"text_length,omitempty"`
	SummaryLength *int   `json:"summary_length,omitempty"`
	Error         string `json:"error,omitempty"`
}

// TextExtractor turns a stored object into text. It never fails.
type TextExtractor interface {
	Extract(ctx context.Context, bucket, key string) string
}

// Summarizer condenses text. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

// Pipeline runs the processing stages for a single notification.
type Pipeline struct {
	Metadata   *MetadataFetcher
	Extractor  TextExtractor
	Summarizer Summarizer
	Writer     *RecordWriter
	NewID      func() string
}

// Process always yields a Result. Only a failed write produces an error result.
func (p *Pipeline) Process(ctx context.Context, n Notification) Result {
	if n.Bucket == "" || n.Key == "" {
		return errorResult(n, errors.New("notification is missing bucket or key"))
	}

	id := p.newID()
	meta := p.Metadata.Fetch(ctx, n.Bucket, n.Key)
	text := p.Extractor.Extract(ctx, n.Bucket, n.Key)
	summary := p.Summarizer.Summarize(ctx, text)

	rec, err := p.Writer.Write(ctx, id, n.Bucket, n.Key, meta, text, summary)
	if err != nil {
		return errorResult(n, err)
	}
	return processedResult(rec)
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func processedResult(rec documents.Record) Result {
	textLen := rec.TextLength
	summaryLen := rec.SummaryLength
	return Result{
		DocumentID:    rec.DocumentID,
		Bucket:        rec.Bucket,
		Key:           rec.ObjectKey,
		Status:        StatusProcessed,
		TextLength:    &textLen,
		SummaryLength: &summaryLen,
	}
}

func errorResult(n Notification, err error) Result {
	return Result{
		Bucket: n.Bucket,
		Key:    n.Key,
		Status: StatusError,
		Error:  err.Error(),
	}
}
