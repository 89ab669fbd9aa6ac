package db

import (
	"context"
	"database/sql"
	"sync"

	"document-ingest/internal/shared/telemetry"
)

// shared holds the process-wide pool reused across warm Lambda invocations.
var shared struct {
	mu sync.Mutex
	db *sql.DB
}

// Shared returns the process-wide *sql.DB, connecting on first use.
// Concurrent callers wait for the first connection attempt; a failed attempt
// leaves the slot empty so the next call retries.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.db != nil {
		telemetry.Info("db.shared.reuse", nil)
		return shared.db, nil
	}
	database, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	shared.db = database
	telemetry.Info("db.shared.init", nil)
	return database, nil
}
