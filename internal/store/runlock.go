package store

import (
	"context"
	"time"
)

// RunLock is a persisted marker preventing duplicate execution of a scheduled
// job. Marker carries the job's embedded date or epoch value; StampedAt is
// when the lock was last written.
type RunLock struct {
	Key       string
	Marker    string
	StampedAt time.Time
}

// RunLockStore persists run locks as rows, backing the database-row variant
// of the run registry.
type RunLockStore interface {
	// Get returns the lock for the given key.
	// Returns ErrLockNotFound if no lock exists.
	Get(ctx context.Context, key string) (*RunLock, error)

	// Put creates or overwrites the lock for the given key.
	Put(ctx context.Context, lock *RunLock) error
}
