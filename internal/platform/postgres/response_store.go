package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// ResponseStore implements store.ResponseStore against each workspace's
// dynamic response table. Table and column identifiers are derived from the
// workspace ID and the sanitized question text; quoteIdent rejects anything
// outside that shape before it reaches a statement.
type ResponseStore struct {
	db store.DBTX
}

// NewResponseStore creates a new ResponseStore.
func NewResponseStore(db store.DBTX) *ResponseStore {
	return &ResponseStore{db: db}
}

// InsertTask inserts an unassigned task row.
func (s *ResponseStore) InsertTask(ctx context.Context, ws *domain.Workspace, areaColumn string, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return err
	}
	area, err := quoteIdent(areaColumn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (task_id, time_task_created, %s, task_status)
		VALUES ($1, $2, $3, $4)
	`, table, area)

	_, err = s.db.ExecContext(ctx, query, task.ID, task.CreatedAt, task.Area, task.Status)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", MapError(err))
	}

	return nil
}

// UnassignedTasks returns unassigned tasks, oldest creation time first.
func (s *ResponseStore) UnassignedTasks(ctx context.Context, ws *domain.Workspace, areaColumn string) ([]*domain.Task, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return nil, err
	}
	area, err := quoteIdent(areaColumn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT task_id, time_task_created, user_id, time_task_assigned,
		       time_task_responded, time_completed, %s, latitude, longitude, task_status
		FROM %s
		WHERE user_id IS NULL AND time_task_assigned IS NULL
		ORDER BY time_task_created ASC
	`, area, table)

	return s.queryTasks(ctx, query)
}

// TasksForUser returns the user's tasks, newest assignment first.
func (s *ResponseStore) TasksForUser(ctx context.Context, ws *domain.Workspace, areaColumn string, userID uuid.UUID) ([]*domain.Task, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return nil, err
	}
	area, err := quoteIdent(areaColumn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT task_id, time_task_created, user_id, time_task_assigned,
		       time_task_responded, time_completed, %s, latitude, longitude, task_status
		FROM %s
		WHERE user_id = $1
		ORDER BY time_task_assigned DESC
	`, area, table)

	return s.queryTasks(ctx, query, userID)
}

// CountUnassigned returns the number of unassigned tasks in the workspace.
func (s *ResponseStore) CountUnassigned(ctx context.Context, ws *domain.Workspace) (int, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE user_id IS NULL AND time_task_assigned IS NULL
	`, table)

	return s.count(ctx, query)
}

// CountUnassignedInArea returns the unassigned-task count for one area.
func (s *ResponseStore) CountUnassignedInArea(ctx context.Context, ws *domain.Workspace, areaColumn, area string) (int, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}
	col, err := quoteIdent(areaColumn)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE %s = $1 AND user_id IS NULL
	`, table, col)

	return s.count(ctx, query, area)
}

// CountVisits returns the number of rows with a matching area and a non-null
// assignee.
func (s *ResponseStore) CountVisits(ctx context.Context, ws *domain.Workspace, areaColumn, area string) (int, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}
	col, err := quoteIdent(areaColumn)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE %s = $1 AND user_id IS NOT NULL
	`, table, col)

	return s.count(ctx, query, area)
}

// CountCreatedOn returns the number of tasks created on the given day.
func (s *ResponseStore) CountCreatedOn(ctx context.Context, ws *domain.Workspace, day time.Time) (int, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}

	start, end := dayBounds(day)
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE time_task_created >= $1 AND time_task_created < $2
	`, table)

	return s.count(ctx, query, start, end)
}

// CountAssignedToUserOn returns the number of tasks assigned to the user on
// the given day.
func (s *ResponseStore) CountAssignedToUserOn(ctx context.Context, ws *domain.Workspace, userID uuid.UUID, day time.Time) (int, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}

	start, end := dayBounds(day)
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE user_id = $1 AND time_task_assigned >= $2 AND time_task_assigned < $3
	`, table)

	return s.count(ctx, query, userID, start, end)
}

// Assign writes the assignee onto an unassigned task. The unassigned
// predicate in the WHERE clause makes the write a no-op when another writer
// got there first; that surfaces as ErrUpdateFailed.
func (s *ResponseStore) Assign(ctx context.Context, ws *domain.Workspace, taskID, userID uuid.UUID, at time.Time) error {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET user_id = $1, time_task_assigned = $2, task_status = $3
		WHERE task_id = $4 AND user_id IS NULL AND time_task_assigned IS NULL
	`, table)

	result, err := s.db.ExecContext(ctx, query, userID, at, domain.TaskStatusAssigned, taskID)
	if err != nil {
		return fmt.Errorf("failed to assign task: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %s is not unassigned", store.ErrUpdateFailed, taskID)
	}

	return nil
}

// MarkResponded records an accept or decline.
func (s *ResponseStore) MarkResponded(ctx context.Context, ws *domain.Workspace, taskID uuid.UUID, status domain.TaskStatus, at time.Time) error {
	if status != domain.TaskStatusAccepted && status != domain.TaskStatusDeclined {
		return fmt.Errorf("%w: response status must be accepted or declined, got %q",
			store.ErrInvalidEntity, status)
	}

	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET time_task_responded = $1, task_status = $2
		WHERE task_id = $3
	`, table)

	result, err := s.db.ExecContext(ctx, query, at, status, taskID)
	if err != nil {
		return fmt.Errorf("failed to record response: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// MarkCompleted records completion together with the answer columns.
func (s *ResponseStore) MarkCompleted(ctx context.Context, ws *domain.Workspace, taskID uuid.UUID, answers map[string]string, lat, lng *float64, at time.Time) error {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return err
	}

	set := []string{"time_completed = $1", "task_status = $2", "latitude = $3", "longitude = $4"}
	args := []any{at, domain.TaskStatusCompleted, nullFloat(lat), nullFloat(lng)}

	// Stable column order keeps the statement deterministic.
	cols := make([]string, 0, len(answers))
	for col := range answers {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		quoted, err := quoteIdent(col)
		if err != nil {
			return err
		}
		args = append(args, answers[col])
		set = append(set, fmt.Sprintf("%s = $%d", quoted, len(args)))
	}

	args = append(args, taskID)
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE task_id = $%d
	`, table, strings.Join(set, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// ExpireUnaccepted flips stale assigned-but-unanswered tasks to incomplete.
// Strict less-than: a task exactly at the cutoff is not expired.
func (s *ResponseStore) ExpireUnaccepted(ctx context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET task_status = $1
		WHERE task_status IN ($2, $3)
		  AND time_task_assigned IS NOT NULL
		  AND time_task_responded IS NULL
		  AND time_task_assigned < $4
	`, table)

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusIncomplete, domain.TaskStatusCreated, domain.TaskStatusAssigned, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire unaccepted tasks: %w", MapError(err))
	}

	return result.RowsAffected()
}

// ExpireUnfinished flips stale accepted-but-unfinished tasks to incomplete.
func (s *ResponseStore) ExpireUnfinished(ctx context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error) {
	table, err := quoteIdent(ws.ResponseTable())
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET task_status = $1
		WHERE task_status = $2
		  AND time_task_responded IS NOT NULL
		  AND time_completed IS NULL
		  AND time_task_responded < $3
	`, table)

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusIncomplete, domain.TaskStatusAccepted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire unfinished tasks: %w", MapError(err))
	}

	return result.RowsAffected()
}

func (s *ResponseStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", MapError(err))
	}
	return n, nil
}

func (s *ResponseStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		var (
			task        domain.Task
			userID      uuid.NullUUID
			assignedAt  sql.NullTime
			respondedAt sql.NullTime
			completedAt sql.NullTime
			area        sql.NullString
			lat         sql.NullFloat64
			lng         sql.NullFloat64
		)

		err := rows.Scan(&task.ID, &task.CreatedAt, &userID, &assignedAt,
			&respondedAt, &completedAt, &area, &lat, &lng, &task.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		if userID.Valid {
			id := userID.UUID
			task.UserID = &id
		}
		if assignedAt.Valid {
			t := assignedAt.Time
			task.AssignedAt = &t
		}
		if respondedAt.Valid {
			t := respondedAt.Time
			task.RespondedAt = &t
		}
		if completedAt.Valid {
			t := completedAt.Time
			task.CompletedAt = &t
		}
		if area.Valid {
			task.Area = area.String
		}
		if lat.Valid {
			v := lat.Float64
			task.Latitude = &v
		}
		if lng.Valid {
			v := lng.Float64
			task.Longitude = &v
		}

		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
