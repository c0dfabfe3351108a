package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// memStore is a stateful fake of every repository the workflow package uses.
// Transactions are not isolated; RunInTx restores a snapshot on error.
type memStore struct {
	mu         sync.Mutex
	requests   map[uuid.UUID]domain.PatronRequest
	suppliers  map[uuid.UUID]domain.SupplierRequest
	inactive   []domain.InactiveSupplierRequest
	audits     []domain.PatronRequestAudit
	patrons    map[uuid.UUID]domain.Patron
	identities map[uuid.UUID]domain.PatronIdentity
	agencies   map[string]domain.Agency
	locations  map[uuid.UUID]domain.Location
	clusters   map[uuid.UUID]domain.BibCluster
	bibs       map[uuid.UUID][]domain.BibRecord

	failAudit error
}

var (
	_ requestRepo  = (*memStore)(nil)
	_ patronRepo   = (*memStore)(nil)
	_ agencyRepo   = (*memStore)(nil)
	_ locationRepo = (*memStore)(nil)
	_ clusterRepo  = (*memStore)(nil)
	_ txManager    = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		requests:   map[uuid.UUID]domain.PatronRequest{},
		suppliers:  map[uuid.UUID]domain.SupplierRequest{},
		patrons:    map[uuid.UUID]domain.Patron{},
		identities: map[uuid.UUID]domain.PatronIdentity{},
		agencies:   map[string]domain.Agency{},
		locations:  map[uuid.UUID]domain.Location{},
		clusters:   map[uuid.UUID]domain.BibCluster{},
		bibs:       map[uuid.UUID][]domain.BibRecord{},
	}
}

type snapshot struct {
	requests   map[uuid.UUID]domain.PatronRequest
	suppliers  map[uuid.UUID]domain.SupplierRequest
	identities map[uuid.UUID]domain.PatronIdentity
	inactive   int
	audits     int
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := snapshot{
		requests:   clone(s.requests),
		suppliers:  clone(s.suppliers),
		identities: clone(s.identities),
		inactive:   len(s.inactive),
		audits:     len(s.audits),
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.requests, s.suppliers, s.identities = snap.requests, snap.suppliers, snap.identities
		s.inactive = s.inactive[:snap.inactive]
		s.audits = s.audits[:snap.audits]
		s.mu.Unlock()
		return err
	}
	return nil
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Patron requests
// ---------------------------------------------------------------------------

func (s *memStore) putRequest(pr *domain.PatronRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr.Version = 1
	s.requests[pr.ID] = *pr
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("patron_request %s: %w", id, domain.ErrNotFound)
	}
	return &pr, nil
}

func (s *memStore) Update(_ context.Context, pr *domain.PatronRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[pr.ID]
	if !ok {
		return fmt.Errorf("patron_request %s: %w", pr.ID, domain.ErrNotFound)
	}
	if current.Version != pr.Version {
		return fmt.Errorf("patron_request %s: stale version: %w", pr.ID, domain.ErrConflict)
	}
	pr.Version++
	s.requests[pr.ID] = *pr
	return nil
}

func (s *memStore) GetActiveSupplierRequest(_ context.Context, patronRequestID uuid.UUID) (*domain.SupplierRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sr := range s.suppliers {
		if sr.PatronRequestID == patronRequestID && sr.IsActive {
			return &sr, nil
		}
	}
	return nil, fmt.Errorf("supplier_request: %w", domain.ErrNotFound)
}

func (s *memStore) CreateSupplierRequest(_ context.Context, sr *domain.SupplierRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.suppliers {
		if existing.PatronRequestID == sr.PatronRequestID && existing.IsActive && sr.IsActive {
			return fmt.Errorf("supplier_request: %w", domain.ErrAlreadyExists)
		}
	}
	s.suppliers[sr.ID] = *sr
	return nil
}

func (s *memStore) UpdateSupplierRequest(_ context.Context, sr *domain.SupplierRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[sr.ID]; !ok {
		return fmt.Errorf("supplier_request %s: %w", sr.ID, domain.ErrNotFound)
	}
	s.suppliers[sr.ID] = *sr
	return nil
}

func (s *memStore) CreateInactiveSupplierRequest(_ context.Context, isr domain.InactiveSupplierRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive = append(s.inactive, isr)
	return nil
}

func (s *memStore) supplierRequests(prID uuid.UUID) []domain.SupplierRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SupplierRequest
	for _, sr := range s.suppliers {
		if sr.PatronRequestID == prID {
			out = append(out, sr)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Audits
// ---------------------------------------------------------------------------

type memAudits struct{ s *memStore }

func (a memAudits) Create(_ context.Context, audit domain.PatronRequestAudit) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if a.s.failAudit != nil {
		return a.s.failAudit
	}
	a.s.audits = append(a.s.audits, audit)
	return nil
}

func (s *memStore) auditsFor(prID uuid.UUID) []domain.PatronRequestAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PatronRequestAudit
	for _, a := range s.audits {
		if a.PatronRequestID == prID {
			out = append(out, a)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Patrons
// ---------------------------------------------------------------------------

func (s *memStore) GetPatron(_ context.Context, id uuid.UUID) (domain.Patron, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patrons[id]
	if !ok {
		return domain.Patron{}, fmt.Errorf("patron %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (s *memStore) GetIdentity(_ context.Context, id uuid.UUID) (domain.PatronIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.identities[id]
	if !ok {
		return domain.PatronIdentity{}, fmt.Errorf("patron_identity %s: %w", id, domain.ErrNotFound)
	}
	return pi, nil
}

func (s *memStore) FindVirtualIdentity(_ context.Context, patronID uuid.UUID, hostLmsCode string) (domain.PatronIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pi := range s.identities {
		if pi.PatronID == patronID && pi.HostLmsCode == hostLmsCode && !pi.IsHomeIdentity {
			return pi, nil
		}
	}
	return domain.PatronIdentity{}, fmt.Errorf("patron_identity: %w", domain.ErrNotFound)
}

func (s *memStore) CreateIdentity(_ context.Context, pi domain.PatronIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[pi.ID] = pi
	return nil
}

func (s *memStore) UpdateIdentity(_ context.Context, pi domain.PatronIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[pi.ID]; !ok {
		return fmt.Errorf("patron_identity %s: %w", pi.ID, domain.ErrNotFound)
	}
	s.identities[pi.ID] = pi
	return nil
}

func (s *memStore) virtualIdentities(patronID uuid.UUID) []domain.PatronIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PatronIdentity
	for _, pi := range s.identities {
		if pi.PatronID == patronID && !pi.IsHomeIdentity {
			out = append(out, pi)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

func (s *memStore) GetAgency(_ context.Context, code string) (domain.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agencies[code]
	if !ok {
		return domain.Agency{}, fmt.Errorf("agency %s: %w", code, domain.ErrNotFound)
	}
	return a, nil
}

func (s *memStore) GetLocation(_ context.Context, id uuid.UUID) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok {
		return domain.Location{}, fmt.Errorf("location %s: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

func (s *memStore) FindLocationByCode(_ context.Context, code, _ string) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.locations {
		if l.Code == code {
			return l, nil
		}
	}
	return domain.Location{}, fmt.Errorf("location %s: %w", code, domain.ErrNotFound)
}

func (s *memStore) GetCluster(_ context.Context, id uuid.UUID) (domain.BibCluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[id]
	if !ok {
		return domain.BibCluster{}, fmt.Errorf("bib_cluster %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *memStore) ListBibs(_ context.Context, clusterID uuid.UUID) ([]domain.BibRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BibRecord(nil), s.bibs[clusterID]...), nil
}
