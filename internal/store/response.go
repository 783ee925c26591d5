package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/domain"
)

// ResponseStore is the persistence gateway for a workspace's dynamic response
// table. Every method operates on the table owned by the given workspace.
// Methods that filter or write the area value take the resolved area column
// name; callers obtain it from the ColumnStore rather than re-deriving it.
type ResponseStore interface {
	// InsertTask inserts an unassigned task row. All derived question columns
	// except the area column are left null.
	InsertTask(ctx context.Context, ws *domain.Workspace, areaColumn string, task *domain.Task) error

	// UnassignedTasks returns tasks with no assignee and no assignment time,
	// oldest creation time first.
	UnassignedTasks(ctx context.Context, ws *domain.Workspace, areaColumn string) ([]*domain.Task, error)

	// CountUnassigned returns the number of unassigned tasks in the workspace.
	CountUnassigned(ctx context.Context, ws *domain.Workspace) (int, error)

	// CountUnassignedInArea returns the number of unassigned tasks whose area
	// column matches the given area.
	CountUnassignedInArea(ctx context.Context, ws *domain.Workspace, areaColumn, area string) (int, error)

	// CountVisits returns the number of rows whose area column matches the
	// given area and whose assignee is non-null.
	CountVisits(ctx context.Context, ws *domain.Workspace, areaColumn, area string) (int, error)

	// CountCreatedOn returns the number of tasks created on the given
	// calendar day.
	CountCreatedOn(ctx context.Context, ws *domain.Workspace, day time.Time) (int, error)

	// CountAssignedToUserOn returns the number of tasks assigned to the user
	// on the given calendar day.
	CountAssignedToUserOn(ctx context.Context, ws *domain.Workspace, userID uuid.UUID, day time.Time) (int, error)

	// Assign writes the assignee, assignment time and assigned status on an
	// unassigned task. Returns ErrUpdateFailed if the task is no longer
	// unassigned, so a concurrent write never reassigns it.
	Assign(ctx context.Context, ws *domain.Workspace, taskID, userID uuid.UUID, at time.Time) error

	// MarkResponded records an accept or decline: sets the response time and
	// the given status. Returns ErrTaskNotFound if the task does not exist.
	MarkResponded(ctx context.Context, ws *domain.Workspace, taskID uuid.UUID, status domain.TaskStatus, at time.Time) error

	// MarkCompleted records completion: sets the completion time, the
	// completed status, the optional coordinate and the answer columns.
	// Answers are keyed by resolved column name.
	MarkCompleted(ctx context.Context, ws *domain.Workspace, taskID uuid.UUID, answers map[string]string, lat, lng *float64, at time.Time) error

	// TasksForUser returns the tasks assigned to the user, newest assignment
	// first.
	TasksForUser(ctx context.Context, ws *domain.Workspace, areaColumn string, userID uuid.UUID) ([]*domain.Task, error)

	// ExpireUnaccepted flips to incomplete every row with status created or
	// assigned whose assignment time is set, response time is null, and
	// assignment time is strictly before the cutoff. Returns the number of
	// rows updated.
	ExpireUnaccepted(ctx context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error)

	// ExpireUnfinished flips to incomplete every row with status accepted
	// whose response time is set, completion time is null, and response time
	// is strictly before the cutoff. Returns the number of rows updated.
	ExpireUnfinished(ctx context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error)
}
