package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"document-ingest/internal/documents"
	"document-ingest/internal/shared/storage/object"
)

type fakeStore struct {
	info    map[string]object.ObjectInfo
	headErr error
}

func (s *fakeStore) Head(ctx context.Context, bucket, key string) (object.ObjectInfo, error) {
	_ = ctx
	if s.headErr != nil {
		return object.ObjectInfo{}, s.headErr
	}
	info, ok := s.info[bucket+"/"+key]
	if !ok {
		return object.ObjectInfo{}, errors.New("NotFound: head object " + key)
	}
	return info, nil
}

func (s *fakeStore) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	_ = ctx
	return io.NopCloser(strings.NewReader("")), nil
}

type echoExtractor struct {
	calls []string
}

func (e *echoExtractor) Extract(ctx context.Context, bucket, key string) string {
	_ = ctx
	e.calls = append(e.calls, key)
	return "text of " + key
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(ctx context.Context, text string) string {
	_ = ctx
	return "summary: " + text
}

// selectiveRepo fails writes for one object key and stores the rest.
type selectiveRepo struct {
	*documents.MemoryRepo
	failKey string

	mu  sync.Mutex
	ids []string
}

func newSelectiveRepo(failKey string) *selectiveRepo {
	return &selectiveRepo{MemoryRepo: documents.NewMemoryRepo(), failKey: failKey}
}

func (r *selectiveRepo) Put(ctx context.Context, rec documents.Record) error {
	if rec.ObjectKey == r.failKey {
		return errors.New("ConditionalCheckFailedException: table unavailable")
	}
	r.mu.Lock()
	r.ids = append(r.ids, rec.DocumentID)
	r.mu.Unlock()
	return r.MemoryRepo.Put(ctx, rec)
}
