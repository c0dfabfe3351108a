// Package tracking reconciles active patron requests with the host systems.
// Each run holds a cluster-wide lock, polls the local hold and item records
// of every trackable request and lets the workflow engine advance whatever
// the observations now justify.
package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/workflow"
)

type locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (domain.Lease, bool, error)
	Release(ctx context.Context, lease domain.Lease) error
}

type requestRepo interface {
	ListTrackable(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type contextBuilder interface {
	Build(ctx context.Context, id uuid.UUID) (*workflow.RequestWorkflowContext, error)
}

type engine interface {
	Save(ctx context.Context, wc *workflow.RequestWorkflowContext) error
	Progress(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
}

type clientRegistry interface {
	Lookup(code string) (ils.Client, error)
}

type mapper interface {
	ToCanonicalItemType(ctx context.Context, system, localItemType string) (string, error)
}

// Settings tune one tracking run.
type Settings struct {
	LockName    string
	LockTTL     time.Duration
	PageSize    int
	Concurrency int
}

// Service runs tracking passes.
type Service struct {
	settings Settings
	locker   locker
	requests requestRepo
	builder  contextBuilder
	engine   engine
	registry clientRegistry
	mapper   mapper
	tracer   trace.Tracer
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new tracking service.
func NewService(
	log *slog.Logger,
	settings Settings,
	locker locker,
	requests requestRepo,
	builder contextBuilder,
	engine engine,
	registry clientRegistry,
	mapper mapper,
) *Service {
	if settings.PageSize <= 0 {
		settings.PageSize = 100
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = 1
	}
	if settings.LockName == "" {
		settings.LockName = "dcb-tracking"
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = 30 * time.Minute
	}
	return &Service{
		settings: settings,
		locker:   locker,
		requests: requests,
		builder:  builder,
		engine:   engine,
		registry: registry,
		mapper:   mapper,
		tracer:   otel.Tracer("dcb/tracking"),
		now:      time.Now,
		log:      log.With("service", "tracking"),
	}
}
