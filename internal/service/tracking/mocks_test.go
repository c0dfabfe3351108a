package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/workflow"
)

var (
	_ locker         = &lockerMock{}
	_ requestRepo    = &requestRepoMock{}
	_ contextBuilder = &contextBuilderMock{}
	_ engine         = &engineMock{}
	_ mapper         = &mapperMock{}
	_ runner         = &runnerMock{}
)

type lockerMock struct {
	TryAcquireFunc func(ctx context.Context, name string, ttl time.Duration) (domain.Lease, bool, error)
	ReleaseFunc    func(ctx context.Context, lease domain.Lease) error

	calls struct {
		TryAcquire []struct {
			Name string
			TTL  time.Duration
		}
		Release []domain.Lease
	}
	lock sync.RWMutex
}

func (mock *lockerMock) TryAcquire(ctx context.Context, name string, ttl time.Duration) (domain.Lease, bool, error) {
	if mock.TryAcquireFunc == nil {
		panic("lockerMock.TryAcquireFunc: method is nil but locker.TryAcquire was just called")
	}
	mock.lock.Lock()
	mock.calls.TryAcquire = append(mock.calls.TryAcquire, struct {
		Name string
		TTL  time.Duration
	}{name, ttl})
	mock.lock.Unlock()
	return mock.TryAcquireFunc(ctx, name, ttl)
}

func (mock *lockerMock) Release(ctx context.Context, lease domain.Lease) error {
	if mock.ReleaseFunc == nil {
		panic("lockerMock.ReleaseFunc: method is nil but locker.Release was just called")
	}
	mock.lock.Lock()
	mock.calls.Release = append(mock.calls.Release, lease)
	mock.lock.Unlock()
	return mock.ReleaseFunc(ctx, lease)
}

func (mock *lockerMock) TryAcquireCalls() []struct {
	Name string
	TTL  time.Duration
} {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.TryAcquire
}

func (mock *lockerMock) ReleaseCalls() []domain.Lease {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Release
}

type requestRepoMock struct {
	ListTrackableFunc func(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)

	calls struct {
		ListTrackable []struct {
			After uuid.UUID
			Limit int
		}
	}
	lock sync.RWMutex
}

func (mock *requestRepoMock) ListTrackable(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if mock.ListTrackableFunc == nil {
		panic("requestRepoMock.ListTrackableFunc: method is nil but requestRepo.ListTrackable was just called")
	}
	mock.lock.Lock()
	mock.calls.ListTrackable = append(mock.calls.ListTrackable, struct {
		After uuid.UUID
		Limit int
	}{after, limit})
	mock.lock.Unlock()
	return mock.ListTrackableFunc(ctx, after, limit)
}

func (mock *requestRepoMock) ListTrackableCalls() []struct {
	After uuid.UUID
	Limit int
} {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.ListTrackable
}

type contextBuilderMock struct {
	BuildFunc func(ctx context.Context, id uuid.UUID) (*workflow.RequestWorkflowContext, error)
}

func (mock *contextBuilderMock) Build(ctx context.Context, id uuid.UUID) (*workflow.RequestWorkflowContext, error) {
	if mock.BuildFunc == nil {
		panic("contextBuilderMock.BuildFunc: method is nil but contextBuilder.Build was just called")
	}
	return mock.BuildFunc(ctx, id)
}

type engineMock struct {
	SaveFunc     func(ctx context.Context, wc *workflow.RequestWorkflowContext) error
	ProgressFunc func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)

	calls struct {
		Save     []*workflow.RequestWorkflowContext
		Progress []uuid.UUID
	}
	lock sync.RWMutex
}

func (mock *engineMock) Save(ctx context.Context, wc *workflow.RequestWorkflowContext) error {
	if mock.SaveFunc == nil {
		panic("engineMock.SaveFunc: method is nil but engine.Save was just called")
	}
	mock.lock.Lock()
	mock.calls.Save = append(mock.calls.Save, wc)
	mock.lock.Unlock()
	return mock.SaveFunc(ctx, wc)
}

func (mock *engineMock) Progress(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if mock.ProgressFunc == nil {
		panic("engineMock.ProgressFunc: method is nil but engine.Progress was just called")
	}
	mock.lock.Lock()
	mock.calls.Progress = append(mock.calls.Progress, id)
	mock.lock.Unlock()
	return mock.ProgressFunc(ctx, id)
}

func (mock *engineMock) SaveCalls() []*workflow.RequestWorkflowContext {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Save
}

func (mock *engineMock) ProgressCalls() []uuid.UUID {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Progress
}

type mapperMock struct {
	ToCanonicalItemTypeFunc func(ctx context.Context, system, localItemType string) (string, error)
}

func (mock *mapperMock) ToCanonicalItemType(ctx context.Context, system, localItemType string) (string, error) {
	if mock.ToCanonicalItemTypeFunc == nil {
		panic("mapperMock.ToCanonicalItemTypeFunc: method is nil but mapper.ToCanonicalItemType was just called")
	}
	return mock.ToCanonicalItemTypeFunc(ctx, system, localItemType)
}

type runnerMock struct {
	RunFunc func(ctx context.Context) (RunStats, error)

	mu    sync.Mutex
	count int
}

func (mock *runnerMock) Run(ctx context.Context) (RunStats, error) {
	if mock.RunFunc == nil {
		panic("runnerMock.RunFunc: method is nil but runner.Run was just called")
	}
	mock.mu.Lock()
	mock.count++
	mock.mu.Unlock()
	return mock.RunFunc(ctx)
}

func (mock *runnerMock) RunCount() int {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.count
}
