package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUserEmailEmpty is returned when a user's email is empty.
	ErrUserEmailEmpty = errors.New("user email cannot be empty")

	// ErrUserEmailInvalid is returned when a user's email is malformed.
	ErrUserEmailInvalid = errors.New("invalid email format")

	// ErrUserRoleEmpty is returned when a user has no role.
	ErrUserRoleEmpty = errors.New("user role cannot be empty")
)

// User account states. Only active users are eligible for assignment.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is a registered participant. Workspaces is the membership set;
// AnchorAnswers holds the free-text answer collected once per workspace at
// join time, keyed by workspace ID. Users are created externally and never
// deleted by the scheduler.
type User struct {
	ID            uuid.UUID            `json:"id"`
	Email         string               `json:"email"`
	Name          string               `json:"name"`
	Role          string               `json:"role"`
	Status        string               `json:"status"`
	Workspaces    []uuid.UUID          `json:"workspaces"`
	AnchorAnswers map[uuid.UUID]string `json:"anchor_answers"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewUser creates an active user with the given email, name and role.
// Returns an error if validation fails.
func NewUser(email, name, role string) (*User, error) {
	u := &User{
		ID:            uuid.New(),
		Email:         strings.ToLower(strings.TrimSpace(email)),
		Name:          name,
		Role:          role,
		Status:        UserStatusActive,
		AnchorAnswers: make(map[uuid.UUID]string),
		CreatedAt:     time.Now().UTC(),
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// Validate checks the user's fields.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrUserEmailEmpty
	}

	at := strings.IndexByte(u.Email, '@')
	if at <= 0 || at == len(u.Email)-1 || !strings.Contains(u.Email[at+1:], ".") {
		return ErrUserEmailInvalid
	}

	if u.Role == "" {
		return ErrUserRoleEmpty
	}

	return nil
}

// MemberOf reports whether the user has joined the given workspace.
func (u *User) MemberOf(workspaceID uuid.UUID) bool {
	for _, id := range u.Workspaces {
		if id == workspaceID {
			return true
		}
	}
	return false
}

// JoinWorkspace adds the workspace to the membership set and records the
// anchor answer. Joining an already-joined workspace only updates the
// anchor answer.
func (u *User) JoinWorkspace(workspaceID uuid.UUID, anchorAnswer string) {
	if !u.MemberOf(workspaceID) {
		u.Workspaces = append(u.Workspaces, workspaceID)
	}
	if u.AnchorAnswers == nil {
		u.AnchorAnswers = make(map[uuid.UUID]string)
	}
	u.AnchorAnswers[workspaceID] = anchorAnswer
}

// AnchorAnswer returns the user's anchor answer for the workspace, or the
// empty string when the user has not joined it.
func (u *User) AnchorAnswer(workspaceID uuid.UUID) string {
	if !u.MemberOf(workspaceID) {
		return ""
	}
	return u.AnchorAnswers[workspaceID]
}
