package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wellesley-hci/lexi-api/internal/config"
)

// assignCheckInterval is how often the assignment loop checks whether the
// current hour is an assignment hour.
const assignCheckInterval = 5 * time.Minute

// Scheduler owns the background loops for the three jobs. Each job runs on
// its own goroutine; coordination between process instances happens through
// the run registry, not in here. The handle is created and started by the
// application wiring, never by package-level state.
type Scheduler struct {
	pool     *PoolGenerator
	assigner *Assigner
	sweeper  *Sweeper
	cfg      config.SchedulerConfig
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	pool *PoolGenerator,
	assigner *Assigner,
	sweeper *Sweeper,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		pool:     pool,
		assigner: assigner,
		sweeper:  sweeper,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the three job loops.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(3)
	go s.poolLoop(ctx)
	go s.assignLoop(ctx)
	go s.sweepLoop(ctx)

	s.logger.Info("scheduler started",
		"creation_time", timeOfDay(s.cfg.CreationHour, s.cfg.CreationMinute),
		"assignment_hours", s.cfg.AssignmentHours,
		"sweep_interval", s.cfg.SweepInterval().String())
}

// Stop cancels the loops and waits for them to finish. In-flight job runs
// complete their current per-workspace iteration; persistence calls are not
// cancellable mid-flight.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// poolLoop fires once per day at the configured creation time. The daily
// lock makes an extra firing harmless.
func (s *Scheduler) poolLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		next := nextCreationTime(s.now(), s.cfg.CreationHour, s.cfg.CreationMinute)
		s.logger.Debug("next pool generation scheduled", "at", next)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.pool.Run(ctx); err != nil {
				s.logger.Error("pool generation run failed", "error", err)
			}
		}
	}
}

// assignLoop checks every few minutes whether the current hour is an
// assignment hour. lastRun keeps one process from re-running within an hour
// even after the five-minute lock goes stale.
func (s *Scheduler) assignLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(assignCheckInterval)
	defer ticker.Stop()

	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			if !s.cfg.AssignmentHour(now.Hour()) {
				continue
			}
			if sameHour(lastRun, now) {
				continue
			}

			if _, err := s.assigner.Run(ctx); err != nil {
				s.logger.Error("assignment run failed", "error", err)
				continue
			}
			lastRun = now
		}
	}
}

// sweepLoop runs the sweeper immediately and then on its fixed cadence.
func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	if _, err := s.sweeper.Run(ctx); err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sweeper.Run(ctx); err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// nextCreationTime returns the next occurrence of hour:minute after now.
func nextCreationTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func sameHour(a, b time.Time) bool {
	return !a.IsZero() && a.Truncate(time.Hour).Equal(b.Truncate(time.Hour))
}

func timeOfDay(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}
