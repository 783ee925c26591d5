// Package schema keeps the database shape in step with the data model:
// goose migrations for the static tables, and runtime DDL for each
// workspace's dynamic response table, whose columns are derived from the
// workspace's declared question set.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// slogGooseLogger adapts the goose logger interface to slog. Fatalf does not
// exit; goose returns the error and the caller decides.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// Migrate applies the embedded static migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Registrar ensures each workspace's response table exists with one column
// per declared question, and persists the question-to-column mapping.
type Registrar struct {
	db      store.DBTX
	columns store.ColumnStore
	logger  *slog.Logger
}

// NewRegistrar creates a Registrar.
func NewRegistrar(db store.DBTX, columns store.ColumnStore, logger *slog.Logger) *Registrar {
	return &Registrar{db: db, columns: columns, logger: logger}
}

// fixed response-table columns shared by every workspace
const responseTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		task_id UUID PRIMARY KEY,
		time_task_created TIMESTAMPTZ NOT NULL,
		user_id UUID NULL,
		time_task_assigned TIMESTAMPTZ NULL,
		time_task_responded TIMESTAMPTZ NULL,
		time_completed TIMESTAMPTZ NULL,
		latitude DOUBLE PRECISION NULL,
		longitude DOUBLE PRECISION NULL,
		task_status TEXT NOT NULL DEFAULT 'created'
	)
`

// EnsureResponseTable idempotently creates the workspace's response table and
// adds a text column for every declared question. Column derivation must be
// collision-free within the workspace; a collision aborts the workspace
// before any DDL runs.
func (r *Registrar) EnsureResponseTable(ctx context.Context, ws *domain.Workspace) error {
	derived := make(map[string]string, len(ws.Questions))
	for _, q := range ws.Questions {
		col := domain.SanitizeColumn(q.Text)
		if col == "" {
			return fmt.Errorf("question %q sanitizes to an empty column name", q.Text)
		}
		if prev, dup := derived[col]; dup {
			return fmt.Errorf("%w: %q and %q both map to %q",
				domain.ErrColumnCollision, prev, q.Text, col)
		}
		derived[col] = q.Text
	}

	table := ws.ResponseTable()
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(responseTableDDL, quote(table))); err != nil {
		return fmt.Errorf("failed to create response table %s: %w", table, err)
	}

	for _, q := range ws.Questions {
		col := domain.SanitizeColumn(q.Text)

		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT NULL",
			quote(table), quote(col))
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to add column %s to %s: %w", col, table, err)
		}

		if err := r.columns.SaveMapping(ctx, ws.ID, q.Text, col); err != nil {
			return fmt.Errorf("failed to persist column mapping for %q: %w", q.Text, err)
		}
	}

	r.logger.Debug("ensured response table",
		"workspace_id", ws.ID,
		"table", table,
		"question_count", len(ws.Questions))

	return nil
}

// EnsureAll runs EnsureResponseTable for every workspace. A failure on one
// workspace is logged and does not stop the others.
func (r *Registrar) EnsureAll(ctx context.Context, workspaces store.WorkspaceStore) error {
	all, err := workspaces.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}

	for _, ws := range all {
		if err := r.EnsureResponseTable(ctx, ws); err != nil {
			r.logger.Error("failed to ensure response table",
				"workspace_id", ws.ID,
				"error", err)
		}
	}

	return nil
}

// quote wraps an identifier in double quotes. Identifiers here come from
// SanitizeColumn or ResponseTable, both restricted to [A-Za-z0-9_].
func quote(ident string) string {
	return `"` + ident + `"`
}
