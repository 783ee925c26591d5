package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellesley-hci/lexi-api/internal/api/shared"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// TableProvisioner creates or extends a workspace's response table. The
// schema registrar implements it; handler tests substitute a fake.
type TableProvisioner interface {
	EnsureResponseTable(ctx context.Context, ws *domain.Workspace) error
}

// WorkspaceHandler handles workspace-related HTTP requests.
type WorkspaceHandler struct {
	workspaces store.WorkspaceStore
	registrar  TableProvisioner
	logger     *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(workspaces store.WorkspaceStore, registrar TableProvisioner, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces: workspaces,
		registrar:  registrar,
		logger:     logger,
	}
}

// Create handles POST /api/workspaces. The workspace record and its response
// table are provisioned together; a table failure surfaces as an error
// rather than leaving a workspace the scheduler cannot write to.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkspaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, domain.Question{Text: q.Text, Type: q.Type, Options: q.Options})
	}

	ws, err := domain.NewWorkspace(req.Name, questions)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	if err := h.workspaces.Create(r.Context(), ws); err != nil {
		h.logger.Error("failed to create workspace", "error", err, "name", req.Name)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	if err := h.registrar.EnsureResponseTable(r.Context(), ws); err != nil {
		h.logger.Error("failed to provision response table",
			"error", err, "workspace_id", ws.ID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, workspaceToResponse(ws))
}

// List handles GET /api/workspaces.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.workspaces.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list workspaces", "error", err)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	out := make([]WorkspaceResponse, 0, len(workspaces))
	for _, ws := range workspaces {
		out = append(out, workspaceToResponse(ws))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Get handles GET /api/workspaces/{workspaceID}.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	ws, err := h.workspaces.GetByID(r.Context(), id)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, workspaceToResponse(ws))
}

// pathUUID extracts and parses a UUID path parameter, writing a 400 response
// on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
