package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/platform/logger"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// UserStore implements store.UserStore using PostgreSQL. The membership set
// and anchor answers are stored as JSONB documents on the user row.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a new UserStore.
func NewUserStore(db store.DBTX) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, email, name, role, status, workspaces, anchor_answers, created_at"

// Create saves a new user.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	workspaces, anchors, err := encodeUserJSON(user)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.Status,
		workspaces, anchors, user.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to save user: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := s.scanUser(ctx, s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFound(MapError(err)) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", MapError(err))
	}

	return user, nil
}

// GetByEmail retrieves a user by email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := s.scanUser(ctx, s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if store.IsNotFound(MapError(err)) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", MapError(err))
	}

	return user, nil
}

// Update replaces the stored user.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	workspaces, anchors, err := encodeUserJSON(user)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET email = $1, name = $2, role = $3, status = $4,
		    workspaces = $5, anchor_answers = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Email, user.Name, user.Role, user.Status,
		workspaces, anchors, user.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// Eligible returns all active users with the given role, earliest joined first.
func (s *UserStore) Eligible(ctx context.Context, role string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND status = $2
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, role, domain.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible users: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		user, err := s.scanUser(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// CountEligible returns the number of active users with the given role.
func (s *UserStore) CountEligible(ctx context.Context, role string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = $1 AND status = $2`

	var count int
	err := s.db.QueryRowContext(ctx, query, role, domain.UserStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count eligible users: %w", MapError(err))
	}

	return count, nil
}

func encodeUserJSON(user *domain.User) ([]byte, []byte, error) {
	ids := make([]string, 0, len(user.Workspaces))
	for _, id := range user.Workspaces {
		ids = append(ids, id.String())
	}
	workspaces, err := json.Marshal(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode workspaces: %w", err)
	}

	answers := make(map[string]string, len(user.AnchorAnswers))
	for id, answer := range user.AnchorAnswers {
		answers[id.String()] = answer
	}
	anchors, err := json.Marshal(answers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode anchor answers: %w", err)
	}

	return workspaces, anchors, nil
}

func (s *UserStore) scanUser(ctx context.Context, row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		workspaces []byte
		anchors    []byte
		createdAt  time.Time
	)

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.Status,
		&workspaces, &anchors, &createdAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = createdAt

	log := logger.FromContext(ctx)

	// Malformed stored JSON yields empty fields, never an error.
	if len(workspaces) > 0 {
		var ids []string
		if err := json.Unmarshal(workspaces, &ids); err != nil {
			log.Warn("malformed workspaces JSON, treating as empty",
				"user_id", user.ID,
				"error", err)
		} else {
			for _, raw := range ids {
				id, err := uuid.Parse(raw)
				if err != nil {
					log.Warn("invalid workspace ID in membership set, skipping",
						"user_id", user.ID,
						"value", raw)
					continue
				}
				user.Workspaces = append(user.Workspaces, id)
			}
		}
	}

	user.AnchorAnswers = make(map[uuid.UUID]string)
	if len(anchors) > 0 {
		var answers map[string]string
		if err := json.Unmarshal(anchors, &answers); err != nil {
			log.Warn("malformed anchor answers JSON, treating as empty",
				"user_id", user.ID,
				"error", err)
		} else {
			for raw, answer := range answers {
				id, err := uuid.Parse(raw)
				if err != nil {
					continue
				}
				user.AnchorAnswers[id] = answer
			}
		}
	}

	return &user, nil
}
