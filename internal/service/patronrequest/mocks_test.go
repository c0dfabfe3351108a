package patronrequest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

var (
	_ requestRepo      = &requestRepoMock{}
	_ auditRepo        = &auditRepoMock{}
	_ patronRepo       = &patronRepoMock{}
	_ preflightChecker = &preflightCheckerMock{}
	_ progressor       = &progressorMock{}
	_ tracker          = &trackerMock{}
	_ txManager        = &txManagerMock{}
)

type requestRepoMock struct {
	CreateFunc func(ctx context.Context, pr *domain.PatronRequest) error
	UpdateFunc func(ctx context.Context, pr *domain.PatronRequest) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)

	ListSupplierRequestsFunc         func(ctx context.Context, patronRequestID uuid.UUID) ([]*domain.SupplierRequest, error)
	ListInactiveSupplierRequestsFunc func(ctx context.Context, patronRequestID uuid.UUID) ([]domain.InactiveSupplierRequest, error)
	CountByStatusFunc                func(ctx context.Context) (map[domain.Status]int, error)

	calls struct {
		Create []*domain.PatronRequest
		Update []*domain.PatronRequest
	}
	lock sync.RWMutex
}

func (mock *requestRepoMock) Create(ctx context.Context, pr *domain.PatronRequest) error {
	if mock.CreateFunc == nil {
		panic("requestRepoMock.CreateFunc: method is nil but requestRepo.Create was just called")
	}
	mock.lock.Lock()
	mock.calls.Create = append(mock.calls.Create, pr.Clone())
	mock.lock.Unlock()
	return mock.CreateFunc(ctx, pr)
}

func (mock *requestRepoMock) Update(ctx context.Context, pr *domain.PatronRequest) error {
	if mock.UpdateFunc == nil {
		panic("requestRepoMock.UpdateFunc: method is nil but requestRepo.Update was just called")
	}
	mock.lock.Lock()
	mock.calls.Update = append(mock.calls.Update, pr.Clone())
	mock.lock.Unlock()
	return mock.UpdateFunc(ctx, pr)
}

func (mock *requestRepoMock) Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if mock.GetFunc == nil {
		panic("requestRepoMock.GetFunc: method is nil but requestRepo.Get was just called")
	}
	return mock.GetFunc(ctx, id)
}

func (mock *requestRepoMock) ListSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]*domain.SupplierRequest, error) {
	if mock.ListSupplierRequestsFunc == nil {
		panic("requestRepoMock.ListSupplierRequestsFunc: method is nil but requestRepo.ListSupplierRequests was just called")
	}
	return mock.ListSupplierRequestsFunc(ctx, patronRequestID)
}

func (mock *requestRepoMock) ListInactiveSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]domain.InactiveSupplierRequest, error) {
	if mock.ListInactiveSupplierRequestsFunc == nil {
		panic("requestRepoMock.ListInactiveSupplierRequestsFunc: method is nil but requestRepo.ListInactiveSupplierRequests was just called")
	}
	return mock.ListInactiveSupplierRequestsFunc(ctx, patronRequestID)
}

func (mock *requestRepoMock) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	if mock.CountByStatusFunc == nil {
		panic("requestRepoMock.CountByStatusFunc: method is nil but requestRepo.CountByStatus was just called")
	}
	return mock.CountByStatusFunc(ctx)
}

func (mock *requestRepoMock) CreateCalls() []*domain.PatronRequest {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Create
}

func (mock *requestRepoMock) UpdateCalls() []*domain.PatronRequest {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Update
}

type auditRepoMock struct {
	CreateFunc              func(ctx context.Context, a domain.PatronRequestAudit) error
	ListByPatronRequestFunc func(ctx context.Context, patronRequestID uuid.UUID) ([]domain.PatronRequestAudit, error)

	calls struct {
		Create []domain.PatronRequestAudit
	}
	lock sync.RWMutex
}

func (mock *auditRepoMock) Create(ctx context.Context, a domain.PatronRequestAudit) error {
	if mock.CreateFunc == nil {
		panic("auditRepoMock.CreateFunc: method is nil but auditRepo.Create was just called")
	}
	mock.lock.Lock()
	mock.calls.Create = append(mock.calls.Create, a)
	mock.lock.Unlock()
	return mock.CreateFunc(ctx, a)
}

func (mock *auditRepoMock) ListByPatronRequest(ctx context.Context, patronRequestID uuid.UUID) ([]domain.PatronRequestAudit, error) {
	if mock.ListByPatronRequestFunc == nil {
		panic("auditRepoMock.ListByPatronRequestFunc: method is nil but auditRepo.ListByPatronRequest was just called")
	}
	return mock.ListByPatronRequestFunc(ctx, patronRequestID)
}

func (mock *auditRepoMock) CreateCalls() []domain.PatronRequestAudit {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Create
}

type patronRepoMock struct {
	CreatePatronFunc   func(ctx context.Context, p domain.Patron) error
	CreateIdentityFunc func(ctx context.Context, pi domain.PatronIdentity) error
	GetPatronFunc      func(ctx context.Context, id uuid.UUID) (domain.Patron, error)
	FindIdentityFunc   func(ctx context.Context, hostLmsCode, localID string) (domain.PatronIdentity, error)

	calls struct {
		CreatePatron   []domain.Patron
		CreateIdentity []domain.PatronIdentity
	}
	lock sync.RWMutex
}

func (mock *patronRepoMock) CreatePatron(ctx context.Context, p domain.Patron) error {
	if mock.CreatePatronFunc == nil {
		panic("patronRepoMock.CreatePatronFunc: method is nil but patronRepo.CreatePatron was just called")
	}
	mock.lock.Lock()
	mock.calls.CreatePatron = append(mock.calls.CreatePatron, p)
	mock.lock.Unlock()
	return mock.CreatePatronFunc(ctx, p)
}

func (mock *patronRepoMock) CreateIdentity(ctx context.Context, pi domain.PatronIdentity) error {
	if mock.CreateIdentityFunc == nil {
		panic("patronRepoMock.CreateIdentityFunc: method is nil but patronRepo.CreateIdentity was just called")
	}
	mock.lock.Lock()
	mock.calls.CreateIdentity = append(mock.calls.CreateIdentity, pi)
	mock.lock.Unlock()
	return mock.CreateIdentityFunc(ctx, pi)
}

func (mock *patronRepoMock) GetPatron(ctx context.Context, id uuid.UUID) (domain.Patron, error) {
	if mock.GetPatronFunc == nil {
		panic("patronRepoMock.GetPatronFunc: method is nil but patronRepo.GetPatron was just called")
	}
	return mock.GetPatronFunc(ctx, id)
}

func (mock *patronRepoMock) FindIdentity(ctx context.Context, hostLmsCode, localID string) (domain.PatronIdentity, error) {
	if mock.FindIdentityFunc == nil {
		panic("patronRepoMock.FindIdentityFunc: method is nil but patronRepo.FindIdentity was just called")
	}
	return mock.FindIdentityFunc(ctx, hostLmsCode, localID)
}

func (mock *patronRepoMock) CreatePatronCalls() []domain.Patron {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.CreatePatron
}

func (mock *patronRepoMock) CreateIdentityCalls() []domain.PatronIdentity {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.CreateIdentity
}

type preflightCheckerMock struct {
	CheckFunc func(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error)
}

func (mock *preflightCheckerMock) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	if mock.CheckFunc == nil {
		panic("preflightCheckerMock.CheckFunc: method is nil but preflightChecker.Check was just called")
	}
	return mock.CheckFunc(ctx, cmd)
}

type progressorMock struct {
	ProgressFunc func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)

	calls struct {
		Progress []uuid.UUID
	}
	lock sync.RWMutex
}

func (mock *progressorMock) Progress(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if mock.ProgressFunc == nil {
		panic("progressorMock.ProgressFunc: method is nil but progressor.Progress was just called")
	}
	mock.lock.Lock()
	mock.calls.Progress = append(mock.calls.Progress, id)
	mock.lock.Unlock()
	return mock.ProgressFunc(ctx, id)
}

func (mock *progressorMock) ProgressCalls() []uuid.UUID {
	mock.lock.RLock()
	defer mock.lock.RUnlock()
	return mock.calls.Progress
}

type trackerMock struct {
	TrackRequestFunc func(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
}

func (mock *trackerMock) TrackRequest(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	if mock.TrackRequestFunc == nil {
		panic("trackerMock.TrackRequestFunc: method is nil but tracker.TrackRequest was just called")
	}
	return mock.TrackRequestFunc(ctx, id)
}

// txManagerMock runs fn directly, without a real transaction.
type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
