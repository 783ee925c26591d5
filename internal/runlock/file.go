package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileRegistry persists locks as files in a directory, one per key. The file
// body holds the marker; the file's modification time is the stamp.
type FileRegistry struct {
	dir string
	now func() time.Time
}

// NewFileRegistry creates a FileRegistry rooted at dir, creating it if
// needed.
func NewFileRegistry(dir string) (*FileRegistry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &FileRegistry{dir: dir, now: time.Now}, nil
}

// TryAcquire implements Registry.
func (r *FileRegistry) TryAcquire(_ context.Context, key, marker string, fresh Freshness) (bool, error) {
	path := filepath.Join(r.dir, key+".lock")
	now := r.now()

	info, err := os.Stat(path)
	switch {
	case err == nil:
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return false, fmt.Errorf("failed to read lock file %s: %w", path, readErr)
		}
		if fresh(strings.TrimSpace(string(data)), info.ModTime(), now) {
			return false, nil
		}
		// Stale lock from an earlier period; fall through and overwrite.
	case os.IsNotExist(err):
		// No lock yet.
	default:
		return false, fmt.Errorf("failed to stat lock file %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(marker), 0o644); err != nil {
		return false, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}

	return true, nil
}
