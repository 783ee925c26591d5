package sched

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/config"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/runlock"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// assignmentLockWindow is how long an assignment lock stays fresh. Recovery
// after a crashed run costs at most this long.
const assignmentLockWindow = 5 * time.Minute

// Assigner matches unassigned tasks to eligible active users under a
// per-user daily cap.
type Assigner struct {
	workspaces store.WorkspaceStore
	responses  store.ResponseStore
	users      store.UserStore
	columns    store.ColumnStore
	locks      runlock.Registry
	policy     SelectionPolicy
	cfg        config.SchedulerConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewAssigner creates an Assigner.
func NewAssigner(
	workspaces store.WorkspaceStore,
	responses store.ResponseStore,
	users store.UserStore,
	columns store.ColumnStore,
	locks runlock.Registry,
	policy SelectionPolicy,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) *Assigner {
	return &Assigner{
		workspaces: workspaces,
		responses:  responses,
		users:      users,
		columns:    columns,
		locks:      locks,
		policy:     policy,
		cfg:        cfg,
		logger:     logger.With("job", "task_assignment"),
		now:        time.Now,
	}
}

// Run executes one assignment pass. The hourly lock is acquired first;
// preconditions (any unassigned task, any eligible user) are checked before
// touching individual workspaces. Returns the number of tasks assigned.
// The wall-clock hour gate lives in the scheduler loop, so a manual run is
// still lock-protected but not hour-restricted.
func (a *Assigner) Run(ctx context.Context) (int, error) {
	now := a.now()

	marker := strconv.FormatInt(now.Unix(), 10)
	acquired, err := a.locks.TryAcquire(ctx, runlock.KeyAssignment, marker,
		runlock.Within(assignmentLockWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to acquire assignment lock: %w", err)
	}
	if !acquired {
		a.logger.Info("assignment ran recently, skipping")
		return 0, nil
	}

	workspaces, err := a.workspaces.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	ok, err := a.preconditionsMet(ctx, workspaces)
	if err != nil {
		return 0, err
	}
	if !ok {
		a.logger.Info("assignment preconditions not met, skipping")
		return 0, nil
	}

	a.logger.Info("starting task assignment",
		"workspace_count", len(workspaces),
		"policy", a.policy.Name())

	total := 0
	for _, ws := range workspaces {
		assigned, err := a.assignForWorkspace(ctx, ws, now)
		if err != nil {
			a.logger.Error("assignment failed for workspace",
				"workspace_id", ws.ID, "error", err)
			continue
		}
		total += assigned
	}

	a.logger.Info("task assignment complete", "total_assigned", total)
	return total, nil
}

// preconditionsMet requires at least one unassigned task across all
// workspaces and at least one eligible active user.
func (a *Assigner) preconditionsMet(ctx context.Context, workspaces []*domain.Workspace) (bool, error) {
	unassigned := 0
	for _, ws := range workspaces {
		n, err := a.responses.CountUnassigned(ctx, ws)
		if err != nil {
			a.logger.Warn("failed to count unassigned tasks",
				"workspace_id", ws.ID, "error", err)
			continue
		}
		unassigned += n
	}
	if unassigned == 0 {
		return false, nil
	}

	eligible, err := a.users.CountEligible(ctx, a.cfg.EligibleRole)
	if err != nil {
		return false, fmt.Errorf("failed to count eligible users: %w", err)
	}

	return eligible > 0, nil
}

func (a *Assigner) assignForWorkspace(ctx context.Context, ws *domain.Workspace, now time.Time) (int, error) {
	areaQ, ok := ws.Question(a.cfg.AreaQuestion)
	if !ok {
		a.logger.Debug("workspace has no area question, skipping", "workspace_id", ws.ID)
		return 0, nil
	}

	areaCol, err := a.columns.ColumnFor(ctx, ws.ID, areaQ.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve area column: %w", err)
	}

	tasks, err := a.responses.UnassignedTasks(ctx, ws, areaCol)
	if err != nil {
		return 0, fmt.Errorf("failed to load unassigned tasks: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	users, err := a.users.Eligible(ctx, a.cfg.EligibleRole)
	if err != nil {
		return 0, fmt.Errorf("failed to load eligible users: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}

	assigned := 0
	for _, task := range tasks {
		if task.Area == "" {
			a.logger.Debug("task missing area, skipping", "task_id", task.ID)
			continue
		}

		best, load := a.pickUser(ctx, ws, users, task, now)
		if best == nil {
			// Every remaining user is at the daily cap; move on to the
			// next task rather than failing the run.
			a.logger.Debug("no eligible user below daily cap", "task_id", task.ID)
			continue
		}

		if err := a.responses.Assign(ctx, ws, task.ID, best.ID, now); err != nil {
			a.logger.Warn("failed to assign task",
				"task_id", task.ID, "user_id", best.ID, "error", err)
			continue
		}

		assigned++
		a.logger.Debug("assigned task",
			"task_id", task.ID,
			"user_id", best.ID,
			"area", task.Area,
			"user_load_today", load)
	}

	return assigned, nil
}

// pickUser scores every user below the daily cap and returns the winner,
// or nil when everyone is capped. users arrive ordered by earliest join
// time, and only a strictly better candidate displaces the current best,
// which yields the final tie-break for free.
func (a *Assigner) pickUser(ctx context.Context, ws *domain.Workspace, users []*domain.User, task *domain.Task, now time.Time) (*domain.User, int) {
	var (
		best      *domain.User
		bestScore float64
		bestLoad  int
	)

	for _, user := range users {
		load, err := a.responses.CountAssignedToUserOn(ctx, ws, user.ID, now)
		if err != nil {
			a.logger.Warn("failed to count user's daily load",
				"user_id", user.ID, "error", err)
			continue
		}
		if load >= a.cfg.DailyTaskCap {
			continue
		}

		score := a.policy.Score(user, task, load)
		if best == nil || score > bestScore || (score == bestScore && load < bestLoad) {
			best, bestScore, bestLoad = user, score, load
		}
	}

	return best, bestLoad
}
