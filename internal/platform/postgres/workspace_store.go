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

// WorkspaceStore implements store.WorkspaceStore using PostgreSQL. The
// question set is stored as a JSONB document on the workspace row.
type WorkspaceStore struct {
	db store.DBTX
}

// NewWorkspaceStore creates a new WorkspaceStore.
func NewWorkspaceStore(db store.DBTX) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

// Create saves a new workspace.
func (s *WorkspaceStore) Create(ctx context.Context, ws *domain.Workspace) error {
	if err := ws.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	questions, err := json.Marshal(ws.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `
		INSERT INTO workspaces (id, name, questions, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = s.db.ExecContext(ctx, query, ws.ID, ws.Name, questions, ws.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workspace: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves a workspace by ID.
func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	query := `
		SELECT id, name, questions, created_at
		FROM workspaces
		WHERE id = $1
	`

	ws, err := s.scanWorkspace(ctx, s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFound(MapError(err)) {
			return nil, store.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", MapError(err))
	}

	return ws, nil
}

// List returns all workspaces ordered by creation time.
func (s *WorkspaceStore) List(ctx context.Context) ([]*domain.Workspace, error) {
	query := `
		SELECT id, name, questions, created_at
		FROM workspaces
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var workspaces []*domain.Workspace
	for rows.Next() {
		ws, err := s.scanWorkspace(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace row: %w", err)
		}
		workspaces = append(workspaces, ws)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspace rows: %w", err)
	}

	return workspaces, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *WorkspaceStore) scanWorkspace(ctx context.Context, row rowScanner) (*domain.Workspace, error) {
	var (
		ws        domain.Workspace
		questions []byte
		createdAt time.Time
	)

	if err := row.Scan(&ws.ID, &ws.Name, &questions, &createdAt); err != nil {
		return nil, err
	}
	ws.CreatedAt = createdAt

	// Malformed stored JSON yields an empty question set, never an error.
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &ws.Questions); err != nil {
			logger.FromContext(ctx).Warn("malformed questions JSON, treating as empty",
				"workspace_id", ws.ID,
				"error", err)
			ws.Questions = nil
		}
	}

	return &ws, nil
}
