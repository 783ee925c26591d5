package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/config"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// Sweeper expires stale in-flight tasks. It runs on every invocation with no
// once-per-period gate; the expiry conditions themselves are idempotent.
type Sweeper struct {
	workspaces store.WorkspaceStore
	responses  store.ResponseStore
	cfg        config.SchedulerConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(
	workspaces store.WorkspaceStore,
	responses store.ResponseStore,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		workspaces: workspaces,
		responses:  responses,
		cfg:        cfg,
		logger:     logger.With("job", "expiry_sweep"),
		now:        time.Now,
	}
}

// Run executes one sweep over every workspace. Tasks assigned but never
// answered, and tasks accepted but never completed, flip to incomplete once
// the relevant timestamp falls strictly before now minus the expiry window.
// A failure on one workspace is logged and does not stop the others.
// Returns the total number of tasks expired.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.ExpiryWindow())

	workspaces, err := s.workspaces.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	var total int64
	for _, ws := range workspaces {
		unaccepted, err := s.responses.ExpireUnaccepted(ctx, ws, cutoff)
		if err != nil {
			s.logger.Error("failed to expire unaccepted tasks",
				"workspace_id", ws.ID, "error", err)
		} else {
			total += unaccepted
		}

		unfinished, err := s.responses.ExpireUnfinished(ctx, ws, cutoff)
		if err != nil {
			s.logger.Error("failed to expire unfinished tasks",
				"workspace_id", ws.ID, "error", err)
		} else {
			total += unfinished
		}
	}

	if total > 0 {
		s.logger.Info("expired stale tasks", "expired_count", total)
	}

	return total, nil
}
