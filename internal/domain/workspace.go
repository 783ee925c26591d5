package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workspace-specific validation errors
var (
	// ErrWorkspaceIDEmpty is returned when a workspace ID is empty or nil.
	ErrWorkspaceIDEmpty = errors.New("workspace ID cannot be empty")

	// ErrWorkspaceNameEmpty is returned when a workspace name is empty.
	ErrWorkspaceNameEmpty = errors.New("workspace name cannot be empty")

	// ErrWorkspaceNoQuestions is returned when a workspace declares no questions.
	ErrWorkspaceNoQuestions = errors.New("workspace must declare at least one question")

	// ErrQuestionTextEmpty is returned when a question has empty text.
	ErrQuestionTextEmpty = errors.New("question text cannot be empty")

	// ErrColumnCollision is returned when two questions in the same workspace
	// sanitize to the same column name.
	ErrColumnCollision = errors.New("question column names collide after sanitization")
)

// Question types supported in a workspace's question set.
const (
	QuestionTypeText     = "text"
	QuestionTypeSelect   = "select"
	QuestionTypeCheckbox = "checkbox"
	QuestionTypeNumber   = "number"
	QuestionTypeGeo      = "geo"
)

// Question is one entry in a workspace's ordered question set. Select and
// checkbox questions carry an option set; the rest leave Options empty.
type Question struct {
	Text    string   `json:"text"    yaml:"text"`
	Type    string   `json:"type"    yaml:"type"`
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Workspace is a data-collection project. It owns one dynamic response table
// whose columns are derived from the question set.
type Workspace struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewWorkspace creates a Workspace with a fresh ID and creation timestamp.
// Returns an error if validation fails.
func NewWorkspace(name string, questions []Question) (*Workspace, error) {
	ws := &Workspace{
		ID:        uuid.New(),
		Name:      name,
		Questions: questions,
		CreatedAt: time.Now().UTC(),
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}

	return ws, nil
}

// Validate checks the workspace's fields and verifies that the derived
// column names are collision-free within the question set.
func (w *Workspace) Validate() error {
	if w.ID == uuid.Nil {
		return ErrWorkspaceIDEmpty
	}

	if w.Name == "" {
		return ErrWorkspaceNameEmpty
	}

	if len(w.Questions) == 0 {
		return ErrWorkspaceNoQuestions
	}

	seen := make(map[string]struct{}, len(w.Questions))
	for _, q := range w.Questions {
		if q.Text == "" {
			return ErrQuestionTextEmpty
		}
		col := SanitizeColumn(q.Text)
		if _, dup := seen[col]; dup {
			return ErrColumnCollision
		}
		seen[col] = struct{}{}
	}

	return nil
}

// Question returns the question with the given text, or false when the
// workspace does not declare it.
func (w *Workspace) Question(text string) (Question, bool) {
	for _, q := range w.Questions {
		if q.Text == text {
			return q, true
		}
	}
	return Question{}, false
}

// ResponseTable returns the name of the workspace's dynamic response table.
func (w *Workspace) ResponseTable() string {
	return "workspace_" + strings.ReplaceAll(w.ID.String(), "-", "_") + "_responses"
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeColumn derives the stable column identifier for a question: every
// character outside [A-Za-z0-9] becomes an underscore, then leading and
// trailing underscores are trimmed.
func SanitizeColumn(text string) string {
	return strings.Trim(nonAlphanumeric.ReplaceAllString(text, "_"), "_")
}
