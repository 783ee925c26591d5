package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wellesley-hci/lexi-api/internal/api/shared"
)

// Job runner contracts satisfied by the scheduler jobs. Manual runs go
// through the same run registry as scheduled ones, so a trigger during a
// job's fresh-lock window is a recorded no-op.
type (
	// PoolRunner executes one pool-generation pass.
	PoolRunner interface {
		Run(ctx context.Context) (int, error)
	}

	// AssignRunner executes one assignment pass.
	AssignRunner interface {
		Run(ctx context.Context) (int, error)
	}

	// SweepRunner executes one expiry sweep.
	SweepRunner interface {
		Run(ctx context.Context) (int64, error)
	}
)

// AdminHandler exposes manual triggers for the scheduled jobs.
type AdminHandler struct {
	pool     PoolRunner
	assigner AssignRunner
	sweeper  SweepRunner
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(pool PoolRunner, assigner AssignRunner, sweeper SweepRunner, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		pool:     pool,
		assigner: assigner,
		sweeper:  sweeper,
		logger:   logger,
	}
}

// RunPool handles POST /api/admin/jobs/pool.
func (h *AdminHandler) RunPool(w http.ResponseWriter, r *http.Request) {
	created, err := h.pool.Run(r.Context())
	if err != nil {
		h.logger.Error("manual pool generation failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Pool generation failed")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobRunResponse{Job: "pool_generation", Affected: int64(created)})
}

// RunAssign handles POST /api/admin/jobs/assign.
func (h *AdminHandler) RunAssign(w http.ResponseWriter, r *http.Request) {
	assigned, err := h.assigner.Run(r.Context())
	if err != nil {
		h.logger.Error("manual assignment failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Task assignment failed")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobRunResponse{Job: "task_assignment", Affected: int64(assigned)})
}

// RunSweep handles POST /api/admin/jobs/sweep.
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	expired, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.logger.Error("manual sweep failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Expiry sweep failed")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobRunResponse{Job: "expiry_sweep", Affected: expired})
}
