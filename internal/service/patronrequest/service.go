// Package patronrequest is the admission API: it places new patron requests
// and exposes the operator actions on existing ones.
package patronrequest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type requestRepo interface {
	Create(ctx context.Context, pr *domain.PatronRequest) error
	Update(ctx context.Context, pr *domain.PatronRequest) error
	Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	ListSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]*domain.SupplierRequest, error)
	ListInactiveSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]domain.InactiveSupplierRequest, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

type auditRepo interface {
	Create(ctx context.Context, a domain.PatronRequestAudit) error
	ListByPatronRequest(ctx context.Context, patronRequestID uuid.UUID) ([]domain.PatronRequestAudit, error)
}

type patronRepo interface {
	CreatePatron(ctx context.Context, p domain.Patron) error
	CreateIdentity(ctx context.Context, pi domain.PatronIdentity) error
	GetPatron(ctx context.Context, id uuid.UUID) (domain.Patron, error)
	FindIdentity(ctx context.Context, hostLmsCode, localID string) (domain.PatronIdentity, error)
}

type preflightChecker interface {
	Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error)
}

type progressor interface {
	Progress(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
}

type tracker interface {
	TrackRequest(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service places and administers patron requests.
type Service struct {
	requests  requestRepo
	audits    auditRepo
	patrons   patronRepo
	preflight preflightChecker
	engine    progressor
	tracker   tracker
	tx        txManager
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a new patron request service.
func NewService(
	log *slog.Logger,
	requests requestRepo,
	audits auditRepo,
	patrons patronRepo,
	preflight preflightChecker,
	engine progressor,
	tracker tracker,
	tx txManager,
) *Service {
	return &Service{
		requests:  requests,
		audits:    audits,
		patrons:   patrons,
		preflight: preflight,
		engine:    engine,
		tracker:   tracker,
		tx:        tx,
		now:       time.Now,
		log:       log.With("service", "patronrequest"),
	}
}
