package runlock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

func TestSameDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 15, 0, 0, time.UTC)

	assert.True(t, SameDay("2026-03-14", time.Time{}, now))
	assert.False(t, SameDay("2026-03-13", time.Time{}, now))
	assert.False(t, SameDay("", time.Time{}, now))
}

func TestWithin(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fresh := Within(5 * time.Minute)

	assert.True(t, fresh("", now.Add(-4*time.Minute), now))
	assert.False(t, fresh("", now.Add(-5*time.Minute), now))
	assert.False(t, fresh("", now.Add(-time.Hour), now))
}

func newTestFileRegistry(t *testing.T, now time.Time) *FileRegistry {
	t.Helper()
	reg, err := NewFileRegistry(t.TempDir())
	require.NoError(t, err)
	reg.now = func() time.Time { return now }
	return reg
}

func TestFileRegistryFirstAcquire(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 15, 0, 0, time.UTC)
	reg := newTestFileRegistry(t, now)

	ok, err := reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(reg.dir, KeyPoolGeneration+".lock"))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", string(data))
}

func TestFileRegistryFreshLockBlocks(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 15, 0, 0, time.UTC)
	reg := newTestFileRegistry(t, now)

	ok, err := reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	require.True(t, ok)

	// Second acquire on the same day is blocked.
	ok, err = reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileRegistryDateRolloverRecovers(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 15, 0, 0, time.UTC)
	reg := newTestFileRegistry(t, now)

	ok, err := reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	require.True(t, ok)

	// Next day: the embedded date no longer matches, so the lock is stale.
	reg.now = func() time.Time { return now.AddDate(0, 0, 1) }
	ok, err = reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-15", SameDay)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileRegistryStalenessWindow(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	reg := newTestFileRegistry(t, start)

	ok, err := reg.TryAcquire(context.Background(), KeyAssignment, "1773230400", Within(5*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	// Within the window the lock holds. The stamp is the file's mtime, so
	// freshness is relative to when the lock was written.
	reg.now = func() time.Time { return time.Now().Add(4 * time.Minute) }
	ok, err = reg.TryAcquire(context.Background(), KeyAssignment, "x", Within(5*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	// Past the window it is stale and recoverable.
	reg.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	ok, err = reg.TryAcquire(context.Background(), KeyAssignment, "y", Within(5*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileRegistryFailsClosedOnWriteError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	reg, err := NewFileRegistry(dir)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	ok, err := reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	assert.Error(t, err)
	assert.False(t, ok)
}

// memLockStore is an in-memory store.RunLockStore.
type memLockStore struct {
	locks map[string]store.RunLock
	fail  bool
}

func (m *memLockStore) Get(ctx context.Context, key string) (*store.RunLock, error) {
	if m.fail {
		return nil, assert.AnError
	}
	lock, ok := m.locks[key]
	if !ok {
		return nil, store.ErrLockNotFound
	}
	return &lock, nil
}

func (m *memLockStore) Put(ctx context.Context, lock *store.RunLock) error {
	if m.fail {
		return assert.AnError
	}
	if m.locks == nil {
		m.locks = make(map[string]store.RunLock)
	}
	m.locks[lock.Key] = *lock
	return nil
}

func TestStoreRegistry(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 15, 0, 0, time.UTC)
	mem := &memLockStore{}
	reg := NewStoreRegistry(mem)
	reg.now = func() time.Time { return now }

	ok, err := reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-14", SameDay)
	require.NoError(t, err)
	assert.False(t, ok)

	reg.now = func() time.Time { return now.AddDate(0, 0, 1) }
	ok, err = reg.TryAcquire(context.Background(), KeyPoolGeneration, "2026-03-15", SameDay)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreRegistryFailsClosed(t *testing.T) {
	reg := NewStoreRegistry(&memLockStore{fail: true})

	ok, err := reg.TryAcquire(context.Background(), KeyAssignment, "x", Within(5*time.Minute))
	assert.Error(t, err)
	assert.False(t, ok)
}
