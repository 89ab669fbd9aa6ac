package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres. Object metadata is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Put upserts the record. Postgres text and jsonb cannot hold U+0000, so NUL
// characters are dropped from every string column first; stored lengths keep
// the values computed from the extracted text.
func (r *PGRepo) Put(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	rec = withoutNUL(rec)
	const query = `
INSERT INTO documents (
    document_id,
    bucket,
    object_key,
    upload_timestamp,
    processed_at,
    metadata,
    raw_text,
    summary,
    text_length,
    summary_length
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (document_id) DO UPDATE SET
    bucket = EXCLUDED.bucket,
    object_key = EXCLUDED.object_key,
    upload_timestamp = EXCLUDED.upload_timestamp,
    processed_at = EXCLUDED.processed_at,
    metadata = EXCLUDED.metadata,
    raw_text = EXCLUDED.raw_text,
    summary = EXCLUDED.summary,
    text_length = EXCLUDED.text_length,
    summary_length = EXCLUDED.summary_length`

	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		rec.DocumentID,
		rec.Bucket,
		rec.ObjectKey,
		rec.UploadTimestamp,
		rec.ProcessedAt,
		metaJSON,
		rec.RawText,
		rec.Summary,
		rec.TextLength,
		rec.SummaryLength,
	)
	return err
}

// Get fetches a record by id.
func (r *PGRepo) Get(ctx context.Context, documentID string) (Record, error) {
	const query = `
SELECT document_id, bucket, object_key, upload_timestamp, processed_at, metadata, raw_text, summary, text_length, summary_length
FROM documents
WHERE document_id = $1
LIMIT 1`
	var rec Record
	var metaJSON []byte
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&rec.DocumentID,
		&rec.Bucket,
		&rec.ObjectKey,
		&rec.UploadTimestamp,
		&rec.ProcessedAt,
		&metaJSON,
		&rec.RawText,
		&rec.Summary,
		&rec.TextLength,
		&rec.SummaryLength,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
			return Record{}, fmt.Errorf("decode metadata for %s: %w", documentID, err)
		}
	}
	if rec.Metadata.Metadata == nil {
		rec.Metadata.Metadata = map[string]string{}
	}
	return rec, nil
}

var _ Repo = (*PGRepo)(nil)

func withoutNUL(rec Record) Record {
	rec.DocumentID = stripNUL(rec.DocumentID)
	rec.Bucket = stripNUL(rec.Bucket)
	rec.ObjectKey = stripNUL(rec.ObjectKey)
	rec.ProcessedAt = stripNUL(rec.ProcessedAt)
	rec.RawText = stripNUL(rec.RawText)
	rec.Summary = stripNUL(rec.Summary)

	meta := rec.Metadata
	meta.ContentType = stripNUL(meta.ContentType)
	meta.LastModified = stripNUL(meta.LastModified)
	meta.ETag = stripNUL(meta.ETag)
	tags := make(map[string]string, len(meta.Metadata))
	for k, v := range meta.Metadata {
		tags[stripNUL(k)] = stripNUL(v)
	}
	meta.Metadata = tags
	rec.Metadata = meta
	return rec
}

func stripNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}
