package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type runner interface {
	Run(ctx context.Context) (RunStats, error)
}

// Scheduler triggers a tracking run every interval.
type Scheduler struct {
	runner   runner
	interval time.Duration
	log      *slog.Logger
}

// NewScheduler creates a Scheduler for r.
func NewScheduler(log *slog.Logger, r runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   r,
		interval: interval,
		log:      log.With("service", "tracking-scheduler"),
	}
}

// Start runs until ctx is cancelled. The first run starts after one interval.
// Runs never overlap: a run that outlasts the interval delays the next tick.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "tracking scheduler started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "tracking scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLockNotAcquired):
		s.log.DebugContext(ctx, "tracking run skipped, lock held elsewhere")
	case errors.Is(err, context.Canceled):
	default:
		s.log.ErrorContext(ctx, "tracking run failed", slog.String("error", err.Error()))
	}
}
