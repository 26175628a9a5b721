package audit

import (
	"context"
	"sync"
	"time"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/domain/types"
	"orderflow/internal/core/port"
	"orderflow/pkg/logger"
)

// Scheduler triggers the sweep engine on a fixed interval and on demand.
// A mutex guards the sweep within the process; the store-level lock extends
// the guard across processes, since the api mode's manual trigger and the
// audit mode's periodic tick sweep the same store.
type Scheduler struct {
	log      logger.Logger
	engine   *Engine
	interval time.Duration
	reload   func() error   // refreshes the policy source before a tick, may be nil
	lock     port.SweepLock // cross-process guard, may be nil when one process sweeps
	mu       sync.Mutex
}

func NewScheduler(engine *Engine, interval time.Duration, reload func() error, lock port.SweepLock) *Scheduler {
	return &Scheduler{
		log:      logger.InitLogger("audit_scheduler", logger.LevelDebug),
		engine:   engine,
		interval: interval,
		reload:   reload,
		lock:     lock,
	}
}

// Run executes sweeps on the configured interval until the context is
// cancelled. A tick that finds a sweep still in progress is skipped, not
// queued.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, types.ActionServiceStarted, "audit scheduler started",
		"interval", s.interval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, types.ActionGracefulShutdown, "audit scheduler stopping")
			return
		case <-ticker.C:
			if _, err := s.TriggerNow(ctx, nil); err != nil {
				if err == models.ErrorSweepInProgress {
					s.log.Warn(ctx, types.ActionSweepSkipped, "previous sweep still running, skipping tick")
				}
				// Sweep-level failures are already logged by the engine; the
				// next tick always gets its attempt.
			}
		}
	}
}

// TriggerNow runs one sweep immediately. Returns ErrorSweepInProgress when
// another sweep holds the guard, in this process or any other.
func (s *Scheduler) TriggerNow(ctx context.Context, onProgress port.ProgressFunc) (models.SweepSummary, error) {
	if !s.mu.TryLock() {
		return models.SweepSummary{}, models.ErrorSweepInProgress
	}
	defer s.mu.Unlock()

	if s.lock != nil {
		locked, err := s.lock.Acquire(ctx)
		if err != nil {
			return models.SweepSummary{}, err
		}
		if !locked {
			return models.SweepSummary{}, models.ErrorSweepInProgress
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.log.Error(ctx, types.ActionDBQueryFailed, "failed to release sweep lock", err)
			}
		}()
	}

	if s.reload != nil {
		if err := s.reload(); err != nil {
			// Keep sweeping with the last good policy snapshot.
			s.log.Error(ctx, types.ActionPolicyReloadFailed, "policy reload failed, using last snapshot", err)
		}
	}

	return s.engine.RunSweep(ctx, onProgress)
}
