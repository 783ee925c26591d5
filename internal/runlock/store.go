package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/store"
)

// StoreRegistry persists locks as rows in the run_locks table, for
// deployments where instances do not share a filesystem.
type StoreRegistry struct {
	locks store.RunLockStore
	now   func() time.Time
}

// NewStoreRegistry creates a StoreRegistry over the given lock store.
func NewStoreRegistry(locks store.RunLockStore) *StoreRegistry {
	return &StoreRegistry{locks: locks, now: time.Now}
}

// TryAcquire implements Registry.
func (r *StoreRegistry) TryAcquire(ctx context.Context, key, marker string, fresh Freshness) (bool, error) {
	now := r.now()

	existing, err := r.locks.Get(ctx, key)
	switch {
	case err == nil:
		if fresh(existing.Marker, existing.StampedAt, now) {
			return false, nil
		}
	case errors.Is(err, store.ErrLockNotFound):
		// No lock yet.
	default:
		return false, fmt.Errorf("failed to read run lock %s: %w", key, err)
	}

	lock := &store.RunLock{Key: key, Marker: marker, StampedAt: now}
	if err := r.locks.Put(ctx, lock); err != nil {
		return false, fmt.Errorf("failed to write run lock %s: %w", key, err)
	}

	return true, nil
}
