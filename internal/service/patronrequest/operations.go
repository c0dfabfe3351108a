package patronrequest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// Get returns the patron request with id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	return s.requests.Get(ctx, id)
}

// Audits returns the audit trail of a patron request, oldest first.
func (s *Service) Audits(ctx context.Context, id uuid.UUID) ([]domain.PatronRequestAudit, error) {
	if _, err := s.requests.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.audits.ListByPatronRequest(ctx, id)
}

// SupplierHistory is every supplier request of a patron request together
// with the item references that were superseded.
type SupplierHistory struct {
	SupplierRequests []*domain.SupplierRequest
	Inactive         []domain.InactiveSupplierRequest
}

// SupplierRequests returns the supplier side history of a patron request.
func (s *Service) SupplierRequests(ctx context.Context, id uuid.UUID) (SupplierHistory, error) {
	if _, err := s.requests.Get(ctx, id); err != nil {
		return SupplierHistory{}, err
	}
	srs, err := s.requests.ListSupplierRequests(ctx, id)
	if err != nil {
		return SupplierHistory{}, fmt.Errorf("list supplier requests: %w", err)
	}
	inactive, err := s.requests.ListInactiveSupplierRequests(ctx, id)
	if err != nil {
		return SupplierHistory{}, fmt.Errorf("list inactive supplier requests: %w", err)
	}
	return SupplierHistory{SupplierRequests: srs, Inactive: inactive}, nil
}

// StatusCounts returns how many requests sit in each status. Statuses with no
// requests are reported as zero.
func (s *Service) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count patron requests: %w", err)
	}
	out := make(map[domain.Status]int, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		out[st] = counts[st]
	}
	return out, nil
}

// Update runs one tracking pass for a single request. Unlike Place, a failed
// transition is returned to the caller.
func (s *Service) Update(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	return s.tracker.TrackRequest(ctx, id)
}

// Rollback returns a request in ERROR to the status it failed from. Only
// local bookkeeping changes; nothing is undone at the host systems.
func (s *Service) Rollback(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	var pr *domain.PatronRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		pr, err = s.requests.Get(txCtx, id)
		if err != nil {
			return err
		}
		from := pr.Status
		if err := pr.Rollback(); err != nil {
			return err
		}
		if err := s.requests.Update(txCtx, pr); err != nil {
			return fmt.Errorf("update patron request: %w", err)
		}
		brief := "Rollback"
		return s.audits.Create(txCtx, domain.PatronRequestAudit{
			ID:               uuid.New(),
			PatronRequestID:  pr.ID,
			AuditDate:        s.now().UTC(),
			FromStatus:       from,
			ToStatus:         pr.Status,
			BriefDescription: &brief,
			AuditData:        map[string]any{"action": "rollback"},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "patron request rolled back",
		slog.String("patron_request_id", pr.ID.String()),
		slog.String("status", string(pr.Status)),
	)
	return pr, nil
}
