package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// ColumnStore implements store.ColumnStore over the workspace_columns table.
type ColumnStore struct {
	db store.DBTX
}

// NewColumnStore creates a new ColumnStore.
func NewColumnStore(db store.DBTX) *ColumnStore {
	return &ColumnStore{db: db}
}

// SaveMapping records a question-to-column mapping. Re-saving the same
// mapping is a no-op; mapping a second question onto an occupied column
// violates the table's uniqueness constraint and surfaces as ErrDuplicate.
func (s *ColumnStore) SaveMapping(ctx context.Context, workspaceID uuid.UUID, questionText, column string) error {
	query := `
		INSERT INTO workspace_columns (workspace_id, question_text, column_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, question_text) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, workspaceID, questionText, column)
	if err != nil {
		return fmt.Errorf("failed to save column mapping: %w", MapError(err))
	}

	return nil
}

// ColumnFor returns the persisted column for a question.
func (s *ColumnStore) ColumnFor(ctx context.Context, workspaceID uuid.UUID, questionText string) (string, error) {
	query := `
		SELECT column_name FROM workspace_columns
		WHERE workspace_id = $1 AND question_text = $2
	`

	var column string
	err := s.db.QueryRowContext(ctx, query, workspaceID, questionText).Scan(&column)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrColumnNotFound
		}
		return "", fmt.Errorf("failed to look up column mapping: %w", MapError(err))
	}

	return column, nil
}
