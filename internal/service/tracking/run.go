package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// RunStats summarises one tracking run.
type RunStats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Advanced   int
	Failed     int
}

func (s RunStats) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

// Run performs one tracking pass over every trackable request. It returns
// domain.ErrLockNotAcquired when another instance is already tracking. A
// failure on one request is logged and counted; it never ends the run. The
// run is cancelled when it outlives the lock lease.
func (s *Service) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{StartedAt: s.now().UTC()}

	lease, ok, err := s.locker.TryAcquire(ctx, s.settings.LockName, s.settings.LockTTL)
	if err != nil {
		return stats, fmt.Errorf("acquire tracking lock: %w", err)
	}
	if !ok {
		s.log.DebugContext(ctx, "tracking lock held elsewhere", slog.String("lock", s.settings.LockName))
		return stats, domain.ErrLockNotAcquired
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lease); err != nil {
			s.log.ErrorContext(ctx, "release tracking lock", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.settings.LockTTL)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "tracking.run")
	defer span.End()

	err = s.runPages(ctx, &stats)
	stats.FinishedAt = s.now().UTC()
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("tracking run outlived lock ttl %s: %w", s.settings.LockTTL, err)
	}

	span.SetAttributes(
		attribute.Int("dcb.processed", stats.Processed),
		attribute.Int("dcb.advanced", stats.Advanced),
		attribute.Int("dcb.failed", stats.Failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tracking run")
		return stats, err
	}

	s.log.InfoContext(ctx, "tracking run finished",
		slog.Int("processed", stats.Processed),
		slog.Int("advanced", stats.Advanced),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration()),
	)
	return stats, nil
}

func (s *Service) runPages(ctx context.Context, stats *RunStats) error {
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := s.requests.ListTrackable(ctx, after, s.settings.PageSize)
		if err != nil {
			return fmt.Errorf("list trackable requests: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		s.runPage(ctx, ids, stats)

		if len(ids) < s.settings.PageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

func (s *Service) runPage(ctx context.Context, ids []uuid.UUID, stats *RunStats) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.settings.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			before, after, err := s.track(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			stats.Processed++
			switch {
			case err != nil:
				stats.Failed++
				s.logFailure(ctx, id, err)
			case after != before:
				stats.Advanced++
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) logFailure(ctx context.Context, id uuid.UUID, err error) {
	attrs := []any{
		slog.String("patron_request_id", id.String()),
		slog.String("error", err.Error()),
	}
	var transErr *domain.TransitionError
	if errors.As(err, &transErr) {
		attrs = append(attrs, slog.String("transition", transErr.Transition))
	}
	s.log.WarnContext(ctx, "tracking request failed", attrs...)
}
