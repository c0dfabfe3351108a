package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

// Resolve selects the supplying item and fixes the workflow.
type Resolve struct {
	deps *Dependencies
}

func (t *Resolve) Name() string { return "resolve" }

func (t *Resolve) IsApplicableFor(wc *RequestWorkflowContext) bool {
	return wc.PatronRequest.Status == domain.StatusPatronVerified && wc.SupplierRequest == nil
}

func (t *Resolve) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest

	params := resolution.Parameters{
		PatronRequestID:     pr.ID,
		ClusterID:           pr.BibClusterID,
		BorrowingAgencyCode: pr.BorrowingAgencyCode,
		PickupAgencyCode:    pr.PickupAgencyCode,
	}
	if pr.RequestedItemID != nil {
		params.RequestedItem = &domain.RequestedItem{
			LocalID:         *pr.RequestedItemID,
			LocalSystemCode: domain.Deref(pr.RequestedItemSystemCode),
			AgencyCode:      domain.Deref(pr.RequestedItemAgencyCode),
		}
	}

	res, err := t.deps.Resolver.Resolve(ctx, params)
	if err != nil {
		return err
	}
	if res.Chosen == nil {
		pr.SetStatus(domain.StatusNoItemsAvailableAtAnyAgency)
		return nil
	}

	if err := pr.SetWorkflow(res.Workflow); err != nil {
		return err
	}
	chosen := res.Chosen
	item := chosen.Item

	if res.Workflow == domain.WorkflowLocal {
		pr.LocalItemID = &item.LocalID
		pr.LocalBibID = &item.BibID
		pr.LocalItemStatus = &item.Status
		pr.SetStatus(domain.StatusResolved)
		return nil
	}

	now := t.deps.now()
	wc.SetSupplierRequest(&domain.SupplierRequest{
		ID:                    uuid.New(),
		PatronRequestID:       pr.ID,
		HostLmsCode:           chosen.HostLmsCode,
		ResolvedAgencyCode:    chosen.AgencyCode,
		LocalItemID:           item.LocalID,
		LocalBibID:            item.BibID,
		LocalItemBarcode:      item.Barcode,
		LocalItemLocationCode: item.LocationCode,
		LocalItemType:         item.LocalItemType,
		CanonicalItemType:     chosen.CanonicalItemType,
		LocalItemStatus:       &item.Status,
		IsActive:              true,
		DateCreated:           now,
		DateUpdated:           now,
	})
	pr.SetStatus(domain.StatusResolved)

	t.deps.Log.InfoContext(ctx, "item selected",
		slog.String("patron_request_id", pr.ID.String()),
		slog.String("host_lms", chosen.HostLmsCode),
		slog.String("agency", chosen.AgencyCode),
		slog.String("item_id", item.LocalID),
		slog.String("workflow", string(res.Workflow)),
	)
	return nil
}

// HandOffAsLocal places a plain local hold when the patron's own library
// holds the item, after which the request leaves the engine's care.
type HandOffAsLocal struct {
	deps *Dependencies
}

func (t *HandOffAsLocal) Name() string { return "hand-off-as-local" }

func (t *HandOffAsLocal) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status == domain.StatusResolved && pr.ActiveWorkflow == domain.WorkflowLocal
}

func (t *HandOffAsLocal) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	client, err := t.deps.client(wc.BorrowingSystem)
	if err != nil {
		return err
	}
	if domain.Deref(pr.LocalItemID) == "" {
		return fmt.Errorf("patron request %s has no local item", pr.ID)
	}

	hold, err := client.PlaceHoldRequest(ctx, ils.PlaceHoldCommand{
		PatronLocalID:   wc.RequestingIdentity.LocalID,
		RecordType:      ils.RecordTypeItem,
		RecordNumber:    *pr.LocalItemID,
		PickupLocation:  pr.PickupLocationCode,
		PatronRequestID: pr.ID,
	})
	if err != nil {
		return fmt.Errorf("place local hold at %s: %w", wc.BorrowingSystem, err)
	}
	pr.LocalRequestID = &hold.LocalID
	pr.LocalRequestStatus = &hold.LocalStatus
	pr.SetStatus(domain.StatusHandedOffAsLocal)
	return nil
}
