package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/api/shared"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// TaskHandler handles the assignee-facing task lifecycle requests.
type TaskHandler struct {
	workspaces   store.WorkspaceStore
	responses    store.ResponseStore
	columns      store.ColumnStore
	areaQuestion string
	logger       *slog.Logger
	now          func() time.Time
}

// NewTaskHandler creates a TaskHandler. areaQuestion is the canonical text
// of the area-selector question, used to resolve the column for task
// listings.
func NewTaskHandler(
	workspaces store.WorkspaceStore,
	responses store.ResponseStore,
	columns store.ColumnStore,
	areaQuestion string,
	logger *slog.Logger,
) *TaskHandler {
	return &TaskHandler{
		workspaces:   workspaces,
		responses:    responses,
		columns:      columns,
		areaQuestion: areaQuestion,
		logger:       logger,
		now:          time.Now,
	}
}

// ListForUser handles GET /api/workspaces/{workspaceID}/users/{userID}/tasks.
func (h *TaskHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(w, r, "workspaceID")
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	ws, err := h.workspaces.GetByID(r.Context(), workspaceID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	areaCol, err := h.columns.ColumnFor(r.Context(), ws.ID, h.areaQuestion)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	tasks, err := h.responses.TasksForUser(r.Context(), ws, areaCol, userID)
	if err != nil {
		h.logger.Error("failed to list user tasks",
			"error", err, "workspace_id", workspaceID, "user_id", userID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Respond handles POST /api/workspaces/{workspaceID}/tasks/{taskID}/respond.
// An accept keeps the task alive for completion; a decline is terminal.
func (h *TaskHandler) Respond(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(w, r, "workspaceID")
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req RespondRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ws, err := h.workspaces.GetByID(r.Context(), workspaceID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	status := domain.TaskStatusAccepted
	if req.Action == "decline" {
		status = domain.TaskStatusDeclined
	}

	if err := h.responses.MarkResponded(r.Context(), ws, taskID, status, h.now()); err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"task_id": taskID.String(),
		"status":  string(status),
	})
}

// Complete handles POST /api/workspaces/{workspaceID}/tasks/{taskID}/complete.
// Answers arrive keyed by question text and are written under the persisted
// column names; an answer to a question the workspace never declared is
// rejected.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(w, r, "workspaceID")
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req CompleteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ws, err := h.workspaces.GetByID(r.Context(), workspaceID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	answers := make(map[string]string, len(req.Answers))
	for questionText, answer := range req.Answers {
		if _, declared := ws.Question(questionText); !declared {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Unknown question: "+questionText)
			return
		}
		col, err := h.columns.ColumnFor(r.Context(), ws.ID, questionText)
		if err != nil {
			shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
			return
		}
		answers[col] = answer
	}

	if err := h.responses.MarkCompleted(r.Context(), ws, taskID, answers,
		req.Latitude, req.Longitude, h.now()); err != nil {
		h.logger.Error("failed to complete task",
			"error", err, "workspace_id", workspaceID, "task_id", taskID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"task_id": taskID.String(),
		"status":  string(domain.TaskStatusCompleted),
	})
}
