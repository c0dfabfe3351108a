package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

// RequestWorkflowContext is everything a transition needs to know about one
// patron request. Transitions mutate it in memory; the engine persists the
// recorded changes after the attempt.
type RequestWorkflowContext struct {
	PatronRequest      *domain.PatronRequest
	SupplierRequest    *domain.SupplierRequest
	Patron             domain.Patron
	RequestingIdentity domain.PatronIdentity
	ClusterTitle       string

	// Host system codes. Supplying is empty until resolution, Pickup until
	// the pickup agency is known.
	BorrowingSystem string
	SupplyingSystem string
	PickupSystem    string

	BorrowingStatuses *ils.StatusTable
	SupplyingStatuses *ils.StatusTable
	PickupStatuses    *ils.StatusTable

	createdIdentities []domain.PatronIdentity
	updatedIdentities []domain.PatronIdentity
	supplierCreated   bool
	supplierChanged   bool
	archived          []domain.InactiveSupplierRequest
}

// UpdateIdentity records a change to an existing identity. Changes to the
// requesting identity are mirrored into RequestingIdentity.
func (wc *RequestWorkflowContext) UpdateIdentity(pi domain.PatronIdentity) {
	if pi.ID == wc.RequestingIdentity.ID {
		wc.RequestingIdentity = pi
	}
	for i := range wc.createdIdentities {
		if wc.createdIdentities[i].ID == pi.ID {
			wc.createdIdentities[i] = pi
			return
		}
	}
	for i := range wc.updatedIdentities {
		if wc.updatedIdentities[i].ID == pi.ID {
			wc.updatedIdentities[i] = pi
			return
		}
	}
	wc.updatedIdentities = append(wc.updatedIdentities, pi)
}

// AddIdentity records a new identity, typically a virtual patron.
func (wc *RequestWorkflowContext) AddIdentity(pi domain.PatronIdentity) {
	wc.createdIdentities = append(wc.createdIdentities, pi)
}

// pendingIdentity returns an identity created during this attempt.
func (wc *RequestWorkflowContext) pendingIdentity(hostLmsCode string) (domain.PatronIdentity, bool) {
	for _, pi := range wc.createdIdentities {
		if pi.HostLmsCode == hostLmsCode {
			return pi, true
		}
	}
	return domain.PatronIdentity{}, false
}

// SetSupplierRequest attaches a newly created supplier request.
func (wc *RequestWorkflowContext) SetSupplierRequest(sr *domain.SupplierRequest) {
	wc.SupplierRequest = sr
	wc.SupplyingSystem = sr.HostLmsCode
	wc.supplierCreated = true
}

// SupplierRequestChanged marks the loaded supplier request for update.
func (wc *RequestWorkflowContext) SupplierRequestChanged() {
	if !wc.supplierCreated {
		wc.supplierChanged = true
	}
}

// Archive records a superseded supplier item reference.
func (wc *RequestWorkflowContext) Archive(isr domain.InactiveSupplierRequest) {
	wc.archived = append(wc.archived, isr)
}

// Archived returns the supplier item references archived since the last save.
func (wc *RequestWorkflowContext) Archived() []domain.InactiveSupplierRequest {
	return wc.archived
}

// HasChanges reports whether anything besides the patron request changed.
func (wc *RequestWorkflowContext) HasChanges() bool {
	return len(wc.createdIdentities) > 0 || len(wc.updatedIdentities) > 0 ||
		wc.supplierCreated || wc.supplierChanged || len(wc.archived) > 0
}

// clearChanges forgets recorded changes once they are persisted.
func (wc *RequestWorkflowContext) clearChanges() {
	wc.createdIdentities = nil
	wc.updatedIdentities = nil
	wc.supplierCreated = false
	wc.supplierChanged = false
	wc.archived = nil
}

// PickupSide returns the local hold and item status observed where the
// patron collects the item: the borrowing system, or the pickup system for
// pickup-anywhere requests.
func (wc *RequestWorkflowContext) PickupSide() (hold, item *string, table *ils.StatusTable) {
	pr := wc.PatronRequest
	if pr.ActiveWorkflow == domain.WorkflowPickupAnywhere {
		return pr.PickupRequestStatus, pr.PickupItemStatus, wc.PickupStatuses
	}
	return pr.LocalRequestStatus, pr.LocalItemStatus, wc.BorrowingStatuses
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// ContextBuilder loads a RequestWorkflowContext from storage.
type ContextBuilder struct {
	requests requestRepo
	patrons  patronRepo
	agencies agencyRepo
	clusters clusterRepo
	registry clientRegistry
	log      *slog.Logger
}

// NewContextBuilder creates a ContextBuilder.
func NewContextBuilder(
	log *slog.Logger,
	requests requestRepo,
	patrons patronRepo,
	agencies agencyRepo,
	clusters clusterRepo,
	registry clientRegistry,
) *ContextBuilder {
	return &ContextBuilder{
		requests: requests,
		patrons:  patrons,
		agencies: agencies,
		clusters: clusters,
		registry: registry,
		log:      log.With("service", "workflow"),
	}
}

// Build loads the request with id and everything around it.
func (b *ContextBuilder) Build(ctx context.Context, id uuid.UUID) (*RequestWorkflowContext, error) {
	pr, err := b.requests.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load patron request: %w", err)
	}

	sr, err := b.requests.GetActiveSupplierRequest(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sr = nil
	case err != nil:
		return nil, fmt.Errorf("load supplier request: %w", err)
	}

	patron, err := b.patrons.GetPatron(ctx, pr.PatronID)
	if err != nil {
		return nil, fmt.Errorf("load patron: %w", err)
	}
	identity, err := b.patrons.GetIdentity(ctx, pr.RequestingIdentityID)
	if err != nil {
		return nil, fmt.Errorf("load requesting identity: %w", err)
	}

	wc := &RequestWorkflowContext{
		PatronRequest:      pr,
		SupplierRequest:    sr,
		Patron:             patron,
		RequestingIdentity: identity,
		BorrowingSystem:    identity.HostLmsCode,
	}

	cluster, err := b.clusters.GetCluster(ctx, pr.BibClusterID)
	switch {
	case err == nil:
		wc.ClusterTitle = cluster.Title
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("load cluster: %w", err)
	}

	if sr != nil {
		wc.SupplyingSystem = sr.HostLmsCode
	}
	if pr.PickupAgencyCode != "" {
		agency, err := b.agencies.GetAgency(ctx, pr.PickupAgencyCode)
		switch {
		case err == nil:
			wc.PickupSystem = agency.HostLmsCode
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("load pickup agency: %w", err)
		}
	}

	wc.BorrowingStatuses = b.statuses(wc.BorrowingSystem)
	wc.SupplyingStatuses = b.statuses(wc.SupplyingSystem)
	wc.PickupStatuses = b.statuses(wc.PickupSystem)
	return wc, nil
}

func (b *ContextBuilder) statuses(code string) *ils.StatusTable {
	if code == "" {
		return nil
	}
	table, err := b.registry.Statuses(code)
	if err != nil {
		b.log.Warn("no status table for host lms", slog.String("host_lms", code))
		return nil
	}
	return table
}
