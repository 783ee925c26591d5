package sched

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/config"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/runlock"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// PoolGenerator creates the daily pool of unassigned tasks, balanced toward
// each workspace's least-visited areas.
type PoolGenerator struct {
	workspaces store.WorkspaceStore
	responses  store.ResponseStore
	columns    store.ColumnStore
	locks      runlock.Registry
	cfg        config.SchedulerConfig
	logger     *slog.Logger
	now        func() time.Time

	// rngMu serializes rng access: the instance is shared between the
	// scheduler loop and manual triggers.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPoolGenerator creates a PoolGenerator.
func NewPoolGenerator(
	workspaces store.WorkspaceStore,
	responses store.ResponseStore,
	columns store.ColumnStore,
	locks runlock.Registry,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) *PoolGenerator {
	return &PoolGenerator{
		workspaces: workspaces,
		responses:  responses,
		columns:    columns,
		locks:      locks,
		cfg:        cfg,
		logger:     logger.With("job", "pool_generation"),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes one generation pass. It acquires the daily lock first and
// writes it before any task row; a lock that cannot be written aborts the
// run. Re-running within the same day is a no-op, both via the lock and via
// the created-today count, so a restarted process never doubles the pool.
// Returns the number of tasks created.
func (g *PoolGenerator) Run(ctx context.Context) (int, error) {
	now := g.now()
	today := now.Format(runlock.DateLayout)

	acquired, err := g.locks.TryAcquire(ctx, runlock.KeyPoolGeneration, today, runlock.SameDay)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire pool generation lock: %w", err)
	}
	if !acquired {
		g.logger.Info("task creation already completed today, skipping", "date", today)
		return 0, nil
	}

	g.logger.Info("starting daily task creation", "date", today)

	workspaces, err := g.workspaces.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	// Idempotence check across all workspaces before any per-area work.
	createdToday := 0
	for _, ws := range workspaces {
		n, err := g.responses.CountCreatedOn(ctx, ws, now)
		if err != nil {
			g.logger.Warn("failed to count today's tasks",
				"workspace_id", ws.ID, "error", err)
			continue
		}
		createdToday += n
	}
	if createdToday > 0 {
		g.logger.Info("tasks already created today, skipping creation",
			"existing_count", createdToday)
		return 0, nil
	}

	total := 0
	for _, ws := range workspaces {
		created, err := g.generateForWorkspace(ctx, ws, now)
		if err != nil {
			// Failures are isolated per workspace.
			g.logger.Error("task creation failed for workspace",
				"workspace_id", ws.ID, "error", err)
			continue
		}
		total += created
	}

	g.logger.Info("daily task creation complete", "total_created", total)
	return total, nil
}

func (g *PoolGenerator) generateForWorkspace(ctx context.Context, ws *domain.Workspace, now time.Time) (int, error) {
	areaQ, ok := ws.Question(g.cfg.AreaQuestion)
	if !ok {
		g.logger.Debug("workspace has no area question, skipping", "workspace_id", ws.ID)
		return 0, nil
	}

	areaCol, err := g.columns.ColumnFor(ctx, ws.ID, areaQ.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve area column: %w", err)
	}

	counts := make([]areaCount, 0, len(areaQ.Options))
	for _, area := range areaQ.Options {
		n, err := g.responses.CountVisits(ctx, ws, areaCol, area)
		if err != nil {
			return 0, fmt.Errorf("failed to count visits for area %q: %w", area, err)
		}
		counts = append(counts, areaCount{area: area, visits: n})
	}

	selected := g.pickAreas(counts, g.cfg.AreasPerDay)
	g.logger.Info("selected under-visited areas",
		"workspace_id", ws.ID,
		"area_count", len(counts),
		"selected", selected)

	created := 0
	for _, area := range selected {
		backlog, err := g.responses.CountUnassignedInArea(ctx, ws, areaCol, area)
		if err != nil {
			return created, fmt.Errorf("failed to count unassigned tasks for area %q: %w", area, err)
		}

		// Backpressure: while an area still has unassigned tasks, no new
		// ones are created for it.
		if backlog != 0 {
			g.logger.Debug("area has unassigned backlog, skipping",
				"workspace_id", ws.ID, "area", area, "backlog", backlog)
			continue
		}

		for i := 0; i < g.cfg.TasksPerArea; i++ {
			task, err := domain.NewTask(area, now)
			if err != nil {
				return created, fmt.Errorf("failed to build task: %w", err)
			}
			if err := g.responses.InsertTask(ctx, ws, areaCol, task); err != nil {
				return created, fmt.Errorf("failed to insert task: %w", err)
			}
			created++
		}
	}

	return created, nil
}

type areaCount struct {
	area   string
	visits int
}

// pickAreas selects the under-visited areas under the rng lock.
func (g *PoolGenerator) pickAreas(counts []areaCount, k int) []string {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return selectBottomAreas(counts, k, g.rng)
}

// selectBottomAreas picks the k least-visited areas. Areas with strictly
// fewer visits than the cutoff are always included; the remaining slots are
// filled by sampling uniformly among the areas tied at the cutoff count, so
// list order never biases the choice.
func selectBottomAreas(counts []areaCount, k int, rng *rand.Rand) []string {
	if len(counts) == 0 || k <= 0 {
		return nil
	}

	if len(counts) <= k {
		selected := make([]string, 0, len(counts))
		for _, c := range counts {
			selected = append(selected, c.area)
		}
		return selected
	}

	sorted := make([]areaCount, len(counts))
	copy(sorted, counts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].visits < sorted[j].visits })

	cutoff := sorted[k-1].visits

	var below, tied []string
	for _, c := range sorted {
		switch {
		case c.visits < cutoff:
			below = append(below, c.area)
		case c.visits == cutoff:
			tied = append(tied, c.area)
		}
	}

	need := k - len(below)
	rng.Shuffle(len(tied), func(i, j int) { tied[i], tied[j] = tied[j], tied[i] })

	return append(below, tied[:need]...)
}
