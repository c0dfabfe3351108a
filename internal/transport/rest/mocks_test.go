package rest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/patronrequest"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/tracking"
)

var (
	_ patronRequestService = &patronRequestServiceMock{}
	_ statusCounter        = &patronRequestServiceMock{}
	_ trackingRunner       = &trackingRunnerMock{}
)

type patronRequestServiceMock struct {
	PlaceFunc    func(ctx context.Context, cmd domain.PlacePatronRequestCommand) (*domain.PatronRequest, error)
	GetFunc      func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	AuditsFunc   func(ctx context.Context, id uuid.UUID) ([]domain.PatronRequestAudit, error)
	UpdateFunc   func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	RollbackFunc func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)

	SupplierRequestsFunc func(ctx context.Context, id uuid.UUID) (patronrequest.SupplierHistory, error)
	StatusCountsFunc     func(ctx context.Context) (map[domain.Status]int, error)

	mu    sync.Mutex
	calls struct {
		Place    []domain.PlacePatronRequestCommand
		Get      []uuid.UUID
		Audits   []uuid.UUID
		Update   []uuid.UUID
		Rollback []uuid.UUID

		SupplierRequests []uuid.UUID
		StatusCounts     int
	}
}

func (m *patronRequestServiceMock) Place(ctx context.Context, cmd domain.PlacePatronRequestCommand) (*domain.PatronRequest, error) {
	if m.PlaceFunc == nil {
		panic("patronRequestServiceMock.PlaceFunc: method is nil but patronRequestService.Place was just called")
	}
	m.mu.Lock()
	m.calls.Place = append(m.calls.Place, cmd)
	m.mu.Unlock()
	return m.PlaceFunc(ctx, cmd)
}

func (m *patronRequestServiceMock) Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if m.GetFunc == nil {
		panic("patronRequestServiceMock.GetFunc: method is nil but patronRequestService.Get was just called")
	}
	m.mu.Lock()
	m.calls.Get = append(m.calls.Get, id)
	m.mu.Unlock()
	return m.GetFunc(ctx, id)
}

func (m *patronRequestServiceMock) Audits(ctx context.Context, id uuid.UUID) ([]domain.PatronRequestAudit, error) {
	if m.AuditsFunc == nil {
		panic("patronRequestServiceMock.AuditsFunc: method is nil but patronRequestService.Audits was just called")
	}
	m.mu.Lock()
	m.calls.Audits = append(m.calls.Audits, id)
	m.mu.Unlock()
	return m.AuditsFunc(ctx, id)
}

func (m *patronRequestServiceMock) Update(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if m.UpdateFunc == nil {
		panic("patronRequestServiceMock.UpdateFunc: method is nil but patronRequestService.Update was just called")
	}
	m.mu.Lock()
	m.calls.Update = append(m.calls.Update, id)
	m.mu.Unlock()
	return m.UpdateFunc(ctx, id)
}

func (m *patronRequestServiceMock) Rollback(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if m.RollbackFunc == nil {
		panic("patronRequestServiceMock.RollbackFunc: method is nil but patronRequestService.Rollback was just called")
	}
	m.mu.Lock()
	m.calls.Rollback = append(m.calls.Rollback, id)
	m.mu.Unlock()
	return m.RollbackFunc(ctx, id)
}

func (m *patronRequestServiceMock) SupplierRequests(ctx context.Context, id uuid.UUID) (patronrequest.SupplierHistory, error) {
	if m.SupplierRequestsFunc == nil {
		panic("patronRequestServiceMock.SupplierRequestsFunc: method is nil but patronRequestService.SupplierRequests was just called")
	}
	m.mu.Lock()
	m.calls.SupplierRequests = append(m.calls.SupplierRequests, id)
	m.mu.Unlock()
	return m.SupplierRequestsFunc(ctx, id)
}

func (m *patronRequestServiceMock) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	if m.StatusCountsFunc == nil {
		panic("patronRequestServiceMock.StatusCountsFunc: method is nil but statusCounter.StatusCounts was just called")
	}
	m.mu.Lock()
	m.calls.StatusCounts++
	m.mu.Unlock()
	return m.StatusCountsFunc(ctx)
}

func (m *patronRequestServiceMock) StatusCountsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.StatusCounts
}

func (m *patronRequestServiceMock) PlaceCalls() []domain.PlacePatronRequestCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Place
}

func (m *patronRequestServiceMock) RollbackCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Rollback
}

type trackingRunnerMock struct {
	RunFunc func(ctx context.Context) (tracking.RunStats, error)

	mu    sync.Mutex
	calls int
}

func (m *trackingRunnerMock) Run(ctx context.Context) (tracking.RunStats, error) {
	if m.RunFunc == nil {
		panic("trackingRunnerMock.RunFunc: method is nil but trackingRunner.Run was just called")
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.RunFunc(ctx)
}

func (m *trackingRunnerMock) RunCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
