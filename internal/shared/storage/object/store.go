package object

import (
	"context"
	"io"
	"time"
)

// ObjectInfo is what a store reports about an object without reading it.
// Zero values mean the store did not report the attribute.
type ObjectInfo struct {
	ContentType   string
	ContentLength int64
	LastModified  time.Time
	ETag          string
	Metadata      map[string]string
}

// ObjectStore defines the read contract the ingestion pipeline needs from
// object storage.
type ObjectStore interface {
	Head(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
