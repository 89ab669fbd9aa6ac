package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/telemetry"
)

// Store implements ObjectStore against an S3-compatible MinIO endpoint.
type Store struct {
	client *minio.Client
}

// New initializes a MinIO client and verifies the default bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init: %w", err)
	}

	if bucket != "" {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("minio check bucket %s: %w", bucket, err)
		}
		if !exists {
			return nil, fmt.Errorf("minio bucket %s does not exist", bucket)
		}
	}

	telemetry.Info("storage.minio.ready", map[string]any{"endpoint": endpoint, "bucket": bucket})
	return &Store{client: client}, nil
}

// Head stats the object.
func (s *Store) Head(ctx context.Context, bucket, key string) (object.ObjectInfo, error) {
	st, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return object.ObjectInfo{}, fmt.Errorf("minio stat object bucket=%s key=%s: %w", bucket, key, err)
	}
	return infoFromStat(st), nil
}

// Open streams the object body.
func (s *Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", bucket, key, err)
	}
	// GetObject is lazy; Stat surfaces a missing object before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", bucket, key, err)
	}
	return obj, nil
}

func infoFromStat(st minio.ObjectInfo) object.ObjectInfo {
	return object.ObjectInfo{
		ContentType:   st.ContentType,
		ContentLength: st.Size,
		LastModified:  st.LastModified,
		ETag:          st.ETag,
		Metadata:      st.UserMetadata,
	}
}

var _ object.ObjectStore = (*Store)(nil)
