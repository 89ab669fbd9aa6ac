package ingest

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"

	"document-ingest/internal/documents"
	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/telemetry"
	"document-ingest/internal/shared/util"
)

const unknownContentType = "unknown"

// MetadataFetcher reads object attributes from the object store.
type MetadataFetcher struct {
	Store object.ObjectStore
	Now   func() time.Time
}

// Fetch always returns well-formed metadata. Store failures are logged and
// produce degraded metadata.
func (f *MetadataFetcher) Fetch(ctx context.Context, bucket, key string) documents.Metadata {
	meta, err := f.fetch(ctx, bucket, key)
	if err != nil {
		telemetry.Error("ingest.metadata.failed", map[string]any{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return documents.Metadata{
			ContentType:   unknownContentType,
			ContentLength: 0,
			LastModified:  f.now().Format(time.RFC3339),
			ETag:          "",
			Metadata:      map[string]string{},
		}
	}
	return meta
}

func (f *MetadataFetcher) fetch(ctx context.Context, bucket, key string) (documents.Metadata, error) {
	if bucket == "" || key == "" {
		return documents.Metadata{}, errors.New("bucket and key are required")
	}
	info, err := f.Store.Head(ctx, bucket, key)
	if err != nil {
		return documents.Metadata{}, err
	}

	lastModified := info.LastModified
	if lastModified.IsZero() {
		lastModified = f.now()
	}
	tags := make(map[string]string, len(info.Metadata))
	for k, v := range info.Metadata {
		tags[k] = v
	}
	length := info.ContentLength
	if length < 0 {
		length = 0
	}

	return documents.Metadata{
		ContentType:   resolveContentType(info.ContentType, key),
		ContentLength: length,
		LastModified:  lastModified.UTC().Format(time.RFC3339),
		ETag:          strings.Trim(info.ETag, `"`),
		Metadata:      tags,
	}, nil
}

func (f *MetadataFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

// resolveContentType prefers the stored value, then a guess from the key's
// extension, then "unknown".
func resolveContentType(stored, key string) string {
	if stored = strings.TrimSpace(stored); stored != "" {
		return stored
	}
	ext := util.Extension(key)
	if ext == "" {
		return unknownContentType
	}
	guessed := mime.TypeByExtension("." + ext)
	if guessed == "" {
		return unknownContentType
	}
	if mediaType, _, err := mime.ParseMediaType(guessed); err == nil {
		return mediaType
	}
	return guessed
}
