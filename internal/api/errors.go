package api

import (
	"errors"
	"net/http"

	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// A lost assignment race reads as a conflict, not a server fault.
	case errors.Is(err, store.ErrUpdateFailed):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrColumnCollision),
		errors.Is(err, domain.ErrWorkspaceNameEmpty),
		errors.Is(err, domain.ErrWorkspaceNoQuestions),
		errors.Is(err, domain.ErrQuestionTextEmpty),
		errors.Is(err, domain.ErrUserEmailEmpty),
		errors.Is(err, domain.ErrUserEmailInvalid),
		errors.Is(err, domain.ErrUserRoleEmpty),
		errors.Is(err, domain.ErrTaskAreaEmpty),
		errors.Is(err, domain.ErrInvalidTaskStatus):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized message for the client.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, store.ErrWorkspaceNotFound):
		return "Workspace not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrColumnNotFound):
		return "Question not found in this workspace"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email address is already registered"

	case errors.Is(err, store.ErrUpdateFailed):
		return "Task is no longer available"

	case errors.Is(err, domain.ErrColumnCollision):
		return "Two questions map to the same column name"

	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return err.Error()

	default:
		return "An unexpected error occurred"
	}
}
