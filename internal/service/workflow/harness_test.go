package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/ils/dummy"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMapper knows one patron type (local "15" at HOME, canonical ADULT,
// "20" everywhere else), one loanable item type and a fixed location table.
type fakeMapper struct {
	agencies map[string]string
}

func (m *fakeMapper) DeterminePatronType(_ context.Context, supplying, requesting, local string) (string, error) {
	if local != "15" {
		return "", &domain.PatronTypeMappingNotFound{Hop: 1, System: requesting, Value: local}
	}
	return "20", nil
}

func (m *fakeMapper) ToCanonicalPatronType(_ context.Context, system, local string) (string, error) {
	if local != "15" {
		return "", &domain.PatronTypeMappingNotFound{Hop: 1, System: system, Value: local}
	}
	return "ADULT", nil
}

func (m *fakeMapper) LocationToAgency(_ context.Context, system, code string) (string, error) {
	if a, ok := m.agencies[system+"|"+code]; ok {
		return a, nil
	}
	return "", &domain.MappingNotFound{Category: domain.CategoryLocation, Context: system, Value: code}
}

func (m *fakeMapper) PickupLocationToAgency(_ context.Context, pickupContext, code string) (string, error) {
	return m.LocationToAgency(context.Background(), pickupContext, code)
}

func (m *fakeMapper) IsLoanable(_ context.Context, _, localType string) (bool, string, error) {
	if localType == "BOOK" {
		return true, "CIRC", nil
	}
	return false, "", nil
}

type harnessOptions struct {
	ownLibraryBorrowing bool
	maxMessageLength    int
}

// harness wires the engine to three dummy systems: HOME (the patron's),
// SUP (the supplier) and PICK (a remote pickup library).
type harness struct {
	store    *memStore
	home     *dummy.Client
	sup      *dummy.Client
	pick     *dummy.Client
	engine   *Engine
	patron   domain.Patron
	identity domain.PatronIdentity
	cluster  uuid.UUID
	homeLoc  domain.Location
	pickLoc  domain.Location
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	log := newTestLogger()
	store := newMemStore()

	h := &harness{
		store: store,
		home:  dummy.New(domain.HostLms{Code: "HOME", ClientType: domain.HostLmsClientDummy}, log),
		sup:   dummy.New(domain.HostLms{Code: "SUP", ClientType: domain.HostLmsClientDummy}, log),
		pick:  dummy.New(domain.HostLms{Code: "PICK", ClientType: domain.HostLmsClientDummy}, log),
	}

	for _, a := range []domain.Agency{
		{Code: "AG-HOME", HostLmsCode: "HOME", Priority: 5},
		{Code: "AG-SUP", HostLmsCode: "SUP", Priority: 1},
		{Code: "AG-PICK", HostLmsCode: "PICK", Priority: 5},
	} {
		store.agencies[a.Code] = a
	}
	h.homeLoc = domain.Location{ID: uuid.New(), Code: "PU-HOME", HostLmsCode: "HOME", AgencyCode: domain.Ptr("AG-HOME"), IsPickup: true}
	h.pickLoc = domain.Location{ID: uuid.New(), Code: "PU-PICK", HostLmsCode: "PICK", AgencyCode: domain.Ptr("AG-PICK"), IsPickup: true}
	store.locations[h.homeLoc.ID] = h.homeLoc
	store.locations[h.pickLoc.ID] = h.pickLoc

	h.cluster = uuid.New()
	store.clusters[h.cluster] = domain.BibCluster{ID: h.cluster, Title: "The Left Hand of Darkness"}

	h.patron = domain.Patron{ID: uuid.New(), HomeLibraryCode: "MAIN"}
	h.identity = domain.PatronIdentity{
		ID: uuid.New(), PatronID: h.patron.ID, HostLmsCode: "HOME", LocalID: "p1", IsHomeIdentity: true,
	}
	store.patrons[h.patron.ID] = h.patron
	store.identities[h.identity.ID] = h.identity
	h.home.AddPatron(ils.Patron{LocalID: "p1", LocalPatronType: "15", LocalBarcode: "P-BC-1", LocalHomeLibraryCode: "MAIN"})

	mapper := &fakeMapper{agencies: map[string]string{
		"HOME|MAIN":  "AG-HOME",
		"SUP|SHELF":  "AG-SUP",
		"PICK|SHELF": "AG-PICK",
	}}
	registry := ils.NewRegistry(h.home, h.sup, h.pick)
	resolver := resolution.NewResolver(log, store, store, mapper, registry, opts.ownLibraryBorrowing)

	maxLen := opts.maxMessageLength
	if maxLen == 0 {
		maxLen = 255
	}
	h.engine = NewEngine(log,
		EngineConfig{MaxMessageLength: maxLen, MaxSteps: 20},
		NewContextBuilder(log, store, store, store, store, registry),
		store, store, memAudits{store}, store,
		StandardTransitions(Dependencies{
			Registry:  registry,
			Mapper:    mapper,
			Patrons:   store,
			Locations: store,
			Resolver:  resolver,
			Log:       log,
			Now:       func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
		}),
	)
	return h
}

// addSupplierItem seeds an available item at SUP and makes its bib a member
// of the cluster.
func (h *harness) addSupplierItem(id string) {
	h.addItem(h.sup, "SHELF", id)
}

func (h *harness) addItem(client *dummy.Client, location, id string) {
	bibID := "bib-" + client.HostLms().Code
	client.AddItem(bibID, ils.Item{
		LocalID: id, Barcode: "BC-" + id, LocationCode: location, LocalItemType: "BOOK", Status: "Available",
	})
	for _, b := range h.store.bibs[h.cluster] {
		if b.SourceRecordID == bibID {
			return
		}
	}
	h.store.bibs[h.cluster] = append(h.store.bibs[h.cluster], domain.BibRecord{
		ID: uuid.New(), ClusterID: h.cluster, SourceSystemCode: client.HostLms().Code, SourceRecordID: bibID,
	})
}

func (h *harness) newRequest(t *testing.T, pickup domain.Location) *domain.PatronRequest {
	t.Helper()
	pr := domain.NewPatronRequest(h.patron.ID, h.identity.ID, h.cluster, pickup.Code, pickup.HostLmsCode, time.Now().UTC())
	h.store.putRequest(pr)
	return pr
}

func (h *harness) request(t *testing.T, id uuid.UUID) *domain.PatronRequest {
	t.Helper()
	pr, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("load request: %v", err)
	}
	return pr
}

func (h *harness) supplierRequest(t *testing.T, prID uuid.UUID) *domain.SupplierRequest {
	t.Helper()
	sr, err := h.store.GetActiveSupplierRequest(context.Background(), prID)
	if err != nil {
		t.Fatalf("load supplier request: %v", err)
	}
	return sr
}

// observe edits the stored request and supplier request the way a tracking
// refresh would.
func (h *harness) observe(t *testing.T, prID uuid.UUID, fn func(pr *domain.PatronRequest, sr *domain.SupplierRequest)) {
	t.Helper()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	pr := h.store.requests[prID]
	var sr *domain.SupplierRequest
	for id, candidate := range h.store.suppliers {
		if candidate.PatronRequestID == prID && candidate.IsActive {
			sr = &candidate
			defer func(id uuid.UUID) { h.store.suppliers[id] = *sr }(id)
			break
		}
	}
	fn(&pr, sr)
	h.store.requests[prID] = pr
}

func (h *harness) progress(t *testing.T, id uuid.UUID) *domain.PatronRequest {
	t.Helper()
	pr, err := h.engine.Progress(context.Background(), id)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	return pr
}

func transitionsOf(audits []domain.PatronRequestAudit) []string {
	out := make([]string, len(audits))
	for i, a := range audits {
		out[i] = fmt.Sprintf("%s->%s", a.FromStatus, a.ToStatus)
	}
	return out
}

func defaultStatuses() *ils.StatusTable {
	return ils.NewStatusTable(domain.HostLms{Code: "ANY"})
}
