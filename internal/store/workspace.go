package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/domain"
)

// WorkspaceStore defines the interface for workspace persistence.
type WorkspaceStore interface {
	// Create saves a new workspace. The question set is persisted as JSON.
	// Returns validation errors from the domain Workspace if data is invalid.
	Create(ctx context.Context, ws *domain.Workspace) error

	// GetByID retrieves a workspace by its unique ID.
	// Returns ErrWorkspaceNotFound if the workspace does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)

	// List returns all workspaces ordered by creation time. A workspace whose
	// stored question set fails to decode is returned with an empty question
	// set rather than failing the whole listing.
	List(ctx context.Context) ([]*domain.Workspace, error)
}

// ColumnStore persists the question-to-column mapping for each workspace's
// response table. The mapping is written once by the schema registrar and
// read by the scheduler, so sanitization is never re-derived ad hoc at
// query time.
type ColumnStore interface {
	// SaveMapping records that the question with the given text maps to the
	// given column in the workspace's response table. Saving an existing
	// mapping is a no-op.
	SaveMapping(ctx context.Context, workspaceID uuid.UUID, questionText, column string) error

	// ColumnFor returns the persisted column for a question.
	// Returns ErrColumnNotFound if no mapping exists.
	ColumnFor(ctx context.Context, workspaceID uuid.UUID, questionText string) (string, error)
}
