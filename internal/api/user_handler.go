package api

import (
	"log/slog"
	"net/http"

	"github.com/wellesley-hci/lexi-api/internal/api/shared"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	users      store.UserStore
	workspaces store.WorkspaceStore
	logger     *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users store.UserStore, workspaces store.WorkspaceStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		workspaces: workspaces,
		logger:     logger,
	}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := domain.NewUser(req.Email, req.Name, req.Role)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if MapErrorToStatusCode(err) == http.StatusInternalServerError {
			h.logger.Error("failed to create user", "error", err)
		}
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// Get handles GET /api/users/{userID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// JoinWorkspace handles POST /api/users/{userID}/workspaces/{workspaceID}.
// It records membership and the anchor answer; joining again only refreshes
// the anchor answer.
func (h *UserHandler) JoinWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	workspaceID, ok := pathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	var req JoinWorkspaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if _, err := h.workspaces.GetByID(r.Context(), workspaceID); err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	user.JoinWorkspace(workspaceID, req.AnchorAnswer)
	if err := h.users.Update(r.Context(), user); err != nil {
		h.logger.Error("failed to update user membership",
			"error", err, "user_id", userID, "workspace_id", workspaceID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
