package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update replaces the stored user with the given one.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Eligible returns all active users with the given role, ordered by
	// earliest creation time first. A user whose stored membership set or
	// anchor answers fail to decode is returned with the field empty.
	Eligible(ctx context.Context, role string) ([]*domain.User, error)

	// CountEligible returns the number of active users with the given role.
	CountEligible(ctx context.Context, role string) (int, error)
}
