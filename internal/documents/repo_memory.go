package documents

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Record),
	}
}

// Put stores or overwrites the record.
func (r *MemoryRepo) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	rec.Metadata.Metadata = cloneTags(rec.Metadata.Metadata)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.DocumentID] = rec
	return nil
}

// Get returns the record for documentID.
func (r *MemoryRepo) Get(ctx context.Context, documentID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[documentID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Metadata.Metadata = cloneTags(rec.Metadata.Metadata)
	return rec, nil
}

// Len reports how many records are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

var _ Repo = (*MemoryRepo)(nil)
