// Package runlock provides the run registry that keeps each scheduled job to
// at most one execution per period, across process restarts and across
// instances sharing the same registry storage. The lock is written before
// any job side effect begins, which shrinks but does not eliminate the race
// window between concurrent schedulers; the staleness predicate is the only
// recovery mechanism for a crashed holder.
package runlock

import (
	"context"
	"time"
)

// DateLayout is the marker format for calendar-day locks.
const DateLayout = "2006-01-02"

// Well-known job keys.
const (
	KeyPoolGeneration = "task_creation"
	KeyAssignment     = "task_assignment"
)

// Freshness reports whether an existing lock still guards its period. A
// fresh lock blocks acquisition; a stale one is overwritten.
type Freshness func(marker string, stampedAt, now time.Time) bool

// Registry is the mutual-exclusion contract jobs acquire through before
// executing. Implementations persist one lock per key.
type Registry interface {
	// TryAcquire attempts to take the lock for key. It returns true when no
	// lock exists or the existing lock fails the freshness predicate; the
	// new marker is written synchronously before returning. It returns false
	// with a nil error when a fresh lock blocks the run. Any storage error
	// fails closed: the caller must skip this run.
	TryAcquire(ctx context.Context, key, marker string, fresh Freshness) (bool, error)
}

// SameDay keeps a lock fresh for the calendar day embedded in its marker.
// Used by the daily pool-generation job: the lock persists until the date
// rolls over.
func SameDay(marker string, _ time.Time, now time.Time) bool {
	return marker == now.Format(DateLayout)
}

// Within keeps a lock fresh for a fixed wall-clock duration after it was
// stamped. Used by the hourly assignment job with a five-minute window.
func Within(d time.Duration) Freshness {
	return func(_ string, stampedAt, now time.Time) bool {
		return now.Sub(stampedAt) < d
	}
}
