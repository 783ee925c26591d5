package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// constraint before being stored. Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update takes no effect, for example
	// because the row no longer matches the update's predicate.
	ErrUpdateFailed = errors.New("update failed")

	// ErrWorkspaceNotFound indicates the requested workspace does not exist.
	ErrWorkspaceNotFound = fmt.Errorf("%w: workspace", ErrNotFound)

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates the requested task does not exist in the
	// workspace's response table.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrLockNotFound indicates no run-lock row exists for the given key.
	ErrLockNotFound = fmt.Errorf("%w: run lock", ErrNotFound)

	// ErrColumnNotFound indicates no persisted column mapping exists for the
	// given workspace and question.
	ErrColumnNotFound = fmt.Errorf("%w: column mapping", ErrNotFound)

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFound reports whether err is any kind of "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
