package documents

import (
	"context"
	"fmt"
)

// Repo persists processed document records keyed by document id.
type Repo interface {
	// Put stores the record, replacing any record with the same id.
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, documentID string) (Record, error)
}

func validate(rec Record) error {
	if rec.DocumentID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return nil
}
