package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil stays nil", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation maps to duplicate", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate},
		{"foreign key maps to invalid entity", &pgconn.PgError{Code: "23503"}, store.ErrInvalidEntity},
		{"not null maps to invalid entity", &pgconn.PgError{Code: "23502"}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, err, MapError(err))
}

func TestQuoteIdent(t *testing.T) {
	quoted, err := quoteIdent("General_Area")
	assert.NoError(t, err)
	assert.Equal(t, `"General_Area"`, quoted)

	quoted, err = quoteIdent("workspace_ab12_responses")
	assert.NoError(t, err)
	assert.Equal(t, `"workspace_ab12_responses"`, quoted)

	for _, bad := range []string{"", "drop table", `x"y`, "a-b", "col;--"} {
		_, err := quoteIdent(bad)
		assert.Error(t, err, bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	}
}

// Sanitized question text can start with a digit; the store must accept
// every column the registrar provisions.
func TestQuoteIdentAcceptsRegistrarColumns(t *testing.T) {
	for _, text := range []string{"1st impression", "2nd floor?", "General Area"} {
		col := domain.SanitizeColumn(text)
		quoted, err := quoteIdent(col)
		assert.NoError(t, err, text)
		assert.Equal(t, `"`+col+`"`, quoted)
	}
}
