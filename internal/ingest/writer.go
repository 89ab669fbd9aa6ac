package ingest

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"document-ingest/internal/documents"
	"document-ingest/internal/shared/telemetry"
)

// RecordWriter assembles and persists document records. Unlike the other
// stages its failures are returned to the caller.
type RecordWriter struct {
	Repo documents.Repo
	Now  func() time.Time
}

// Write stores the record keyed by id and returns what was written.
func (w *RecordWriter) Write(ctx context.Context, id, bucket, key string, meta documents.Metadata, rawText, summary string) (documents.Record, error) {
	now := time.Now().UTC()
	if w.Now != nil {
		now = w.Now().UTC()
	}

	rec := documents.Record{
		DocumentID:      id,
		Bucket:          bucket,
		ObjectKey:       key,
		UploadTimestamp: now.Unix(),
		ProcessedAt:     now.Format(time.RFC3339),
		Metadata:        meta,
		RawText:         rawText,
		Summary:         summary,
		TextLength:      utf8.RuneCountInString(rawText),
		SummaryLength:   utf8.RuneCountInString(summary),
	}

	if err := w.Repo.Put(ctx, rec); err != nil {
		telemetry.Error("documents.put.failed", map[string]any{
			"document_id": id,
			"bucket":      bucket,
			"key":         key,
			"error":       err.Error(),
		})
		return documents.Record{}, fmt.Errorf("store document %s: %w", id, err)
	}

	telemetry.Info("documents.put.completed", map[string]any{
		"document_id":    id,
		"text_length":    rec.TextLength,
		"summary_length": rec.SummaryLength,
	})
	return rec, nil
}
