package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wellesley-hci/lexi-api/internal/store"
)

// RunLockStore implements store.RunLockStore over the run_locks table.
type RunLockStore struct {
	db store.DBTX
}

// NewRunLockStore creates a new RunLockStore.
func NewRunLockStore(db store.DBTX) *RunLockStore {
	return &RunLockStore{db: db}
}

// Get returns the lock for the given key.
func (s *RunLockStore) Get(ctx context.Context, key string) (*store.RunLock, error) {
	query := `SELECT key, marker, stamped_at FROM run_locks WHERE key = $1`

	var lock store.RunLock
	err := s.db.QueryRowContext(ctx, query, key).Scan(&lock.Key, &lock.Marker, &lock.StampedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to get run lock: %w", MapError(err))
	}

	return &lock, nil
}

// Put creates or overwrites the lock for the given key.
func (s *RunLockStore) Put(ctx context.Context, lock *store.RunLock) error {
	query := `
		INSERT INTO run_locks (key, marker, stamped_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET marker = $2, stamped_at = $3
	`

	_, err := s.db.ExecContext(ctx, query, lock.Key, lock.Marker, lock.StampedAt)
	if err != nil {
		return fmt.Errorf("failed to put run lock: %w", MapError(err))
	}

	return nil
}
