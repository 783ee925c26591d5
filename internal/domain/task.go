package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskAreaEmpty is returned when a task has no area label.
	ErrTaskAreaEmpty = errors.New("task area cannot be empty")

	// ErrInvalidTaskStatus is returned when a status value is not one of the
	// known lifecycle states.
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Task lifecycle states. A task starts as created, becomes assigned when the
// assignment engine picks it, moves to accepted or declined when the assignee
// responds, and finishes as completed or incomplete. No task re-enters
// created once assigned.
const (
	TaskStatusCreated    TaskStatus = "created"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusAccepted   TaskStatus = "accepted"
	TaskStatusDeclined   TaskStatus = "declined"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusIncomplete TaskStatus = "incomplete"
)

// Valid reports whether s is a known lifecycle state.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusCreated, TaskStatusAssigned, TaskStatusAccepted,
		TaskStatusDeclined, TaskStatusCompleted, TaskStatusIncomplete:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusIncomplete || s == TaskStatusDeclined
}

// Task is one unit of requested data collection, stored as one row in a
// workspace's response table. UserID is a weak reference to the assignee;
// the user record is looked up, never owned.
type Task struct {
	ID          uuid.UUID         `json:"task_id"`
	CreatedAt   time.Time         `json:"time_task_created"`
	AssignedAt  *time.Time        `json:"time_task_assigned,omitempty"`
	RespondedAt *time.Time        `json:"time_task_responded,omitempty"`
	CompletedAt *time.Time        `json:"time_completed,omitempty"`
	UserID      *uuid.UUID        `json:"user_id,omitempty"`
	Area        string            `json:"area"`
	Latitude    *float64          `json:"latitude,omitempty"`
	Longitude   *float64          `json:"longitude,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
	Status      TaskStatus        `json:"task_status"`
}

// NewTask creates an unassigned task for the given area. All timestamps
// except creation are nil and the status is created.
func NewTask(area string, createdAt time.Time) (*Task, error) {
	t := &Task{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		Area:      area,
		Status:    TaskStatusCreated,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks the task's fields.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Area == "" {
		return ErrTaskAreaEmpty
	}

	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// Unassigned reports whether the task is still waiting in the pool.
func (t *Task) Unassigned() bool {
	return t.UserID == nil && t.AssignedAt == nil
}
