package api

import (
	"time"

	"github.com/wellesley-hci/lexi-api/internal/domain"
)

// Common request/response structures

// QuestionPayload carries one question definition across the wire.
type QuestionPayload struct {
	Text    string   `json:"text"    validate:"required,min=1"`
	Type    string   `json:"type"    validate:"required,oneof=text select checkbox number geo"`
	Options []string `json:"options,omitempty"`
}

// CreateWorkspaceRequest defines the payload for the workspace creation
// endpoint.
type CreateWorkspaceRequest struct {
	Name      string            `json:"name"      validate:"required,min=1"`
	Questions []QuestionPayload `json:"questions" validate:"required,min=1,dive"`
}

// WorkspaceResponse defines the workspace representation returned to clients.
type WorkspaceResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Questions []QuestionPayload `json:"questions"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateUserRequest defines the payload for the user registration endpoint.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"required,min=1"`
	Role  string `json:"role"  validate:"required,min=1"`
}

// UserResponse defines the user representation returned to clients.
type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	Workspaces []string  `json:"workspaces"`
	CreatedAt  time.Time `json:"created_at"`
}

// JoinWorkspaceRequest defines the payload for joining a workspace. The
// anchor answer is the one-time response collected at join time.
type JoinWorkspaceRequest struct {
	AnchorAnswer string `json:"anchor_answer" validate:"required,min=1"`
}

// RespondRequest defines the payload for accepting or declining an assigned
// task.
type RespondRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// CompleteRequest defines the payload for submitting a completed task.
// Answers are keyed by question text; the handler resolves column names.
type CompleteRequest struct {
	Answers   map[string]string `json:"answers"   validate:"required,min=1"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
}

// TaskResponse defines the task representation returned to clients.
type TaskResponse struct {
	ID          string     `json:"id"`
	Area        string     `json:"area"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobRunResponse reports the outcome of a manually triggered job run.
type JobRunResponse struct {
	Job      string `json:"job"`
	Affected int64  `json:"affected"`
}

func workspaceToResponse(ws *domain.Workspace) WorkspaceResponse {
	questions := make([]QuestionPayload, 0, len(ws.Questions))
	for _, q := range ws.Questions {
		questions = append(questions, QuestionPayload{Text: q.Text, Type: q.Type, Options: q.Options})
	}
	return WorkspaceResponse{
		ID:        ws.ID.String(),
		Name:      ws.Name,
		Questions: questions,
		CreatedAt: ws.CreatedAt,
	}
}

func userToResponse(u *domain.User) UserResponse {
	workspaces := make([]string, 0, len(u.Workspaces))
	for _, id := range u.Workspaces {
		workspaces = append(workspaces, id.String())
	}
	return UserResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Status:     u.Status,
		Workspaces: workspaces,
		CreatedAt:  u.CreatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Area:        t.Area,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		AssignedAt:  t.AssignedAt,
		RespondedAt: t.RespondedAt,
		CompletedAt: t.CompletedAt,
	}
}
