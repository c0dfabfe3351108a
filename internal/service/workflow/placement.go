package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

// PlaceAtSupplyingAgency places the hold on the selected item at the
// supplier, on behalf of a virtual patron there.
type PlaceAtSupplyingAgency struct {
	deps *Dependencies
}

func (t *PlaceAtSupplyingAgency) Name() string { return "place-at-supplying-agency" }

func (t *PlaceAtSupplyingAgency) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status == domain.StatusResolved &&
		pr.ActiveWorkflow != domain.WorkflowLocal &&
		wc.SupplierRequest != nil
}

func (t *PlaceAtSupplyingAgency) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr, sr := wc.PatronRequest, wc.SupplierRequest
	client, err := t.deps.client(sr.HostLmsCode)
	if err != nil {
		return err
	}

	patron, err := t.deps.patronAt(ctx, wc, sr.HostLmsCode, client)
	if err != nil {
		return err
	}
	if sr.VirtualIdentityID == nil || *sr.VirtualIdentityID != patron.ID {
		sr.VirtualIdentityID = &patron.ID
		wc.SupplierRequestChanged()
	}

	if domain.Deref(sr.LocalID) == "" {
		hold, err := client.PlaceHoldRequest(ctx, ils.PlaceHoldCommand{
			PatronLocalID:   patron.LocalID,
			RecordType:      ils.RecordTypeItem,
			RecordNumber:    sr.LocalItemID,
			PickupLocation:  pr.BorrowingAgencyCode,
			Note:            "Consortial hold for " + pr.BorrowingAgencyCode,
			PatronRequestID: pr.ID,
		})
		if err != nil {
			return fmt.Errorf("place hold at %s: %w", sr.HostLmsCode, err)
		}
		sr.LocalID = &hold.LocalID
		sr.LocalStatus = &hold.LocalStatus
		wc.SupplierRequestChanged()
	}

	pr.SetStatus(domain.StatusRequestPlacedAtSupplyingAgency)
	return nil
}

// ConfirmSupplierRequest confirms once the supplier reports the hold as
// placed or confirmed.
type ConfirmSupplierRequest struct{}

func (t *ConfirmSupplierRequest) Name() string { return "confirm-supplier-request" }

func (t *ConfirmSupplierRequest) IsApplicableFor(wc *RequestWorkflowContext) bool {
	if wc.PatronRequest.Status != domain.StatusRequestPlacedAtSupplyingAgency || wc.SupplierRequest == nil {
		return false
	}
	status, ok := mapHold(wc.SupplyingStatuses, wc.SupplierRequest.LocalStatus)
	return ok && (status == domain.HoldStatusPlaced || status == domain.HoldStatusConfirmed)
}

func (t *ConfirmSupplierRequest) Attempt(_ context.Context, wc *RequestWorkflowContext) error {
	wc.PatronRequest.SetStatus(domain.StatusConfirmed)
	return nil
}

// PlaceAtBorrowingAgency mirrors the supplied item at the patron's own
// system and holds it for them there.
type PlaceAtBorrowingAgency struct {
	deps *Dependencies
}

func (t *PlaceAtBorrowingAgency) Name() string { return "place-at-borrowing-agency" }

func (t *PlaceAtBorrowingAgency) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status == domain.StatusConfirmed &&
		pr.NextExpectedStatus == domain.StatusRequestPlacedAtBorrowingAgency &&
		wc.SupplierRequest != nil
}

func (t *PlaceAtBorrowingAgency) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	stringSlots(&pr.LocalBibID, &pr.LocalItemID, &pr.LocalItemStatus, &pr.LocalRequestID, &pr.LocalRequestStatus)
	err := t.deps.placeVirtual(ctx, wc, wc.BorrowingSystem, virtualRecords{
		BibID:      pr.LocalBibID,
		ItemID:     pr.LocalItemID,
		ItemStatus: pr.LocalItemStatus,
		HoldID:     pr.LocalRequestID,
		HoldStatus: pr.LocalRequestStatus,
	})
	clearEmpty(&pr.LocalBibID, &pr.LocalItemID, &pr.LocalItemStatus, &pr.LocalRequestID, &pr.LocalRequestStatus)
	if err != nil {
		return err
	}
	pr.SetStatus(domain.StatusRequestPlacedAtBorrowingAgency)
	return nil
}

// PlaceAtPickupAgency mirrors the supplied item at the pickup library's
// system for pickup-anywhere requests.
type PlaceAtPickupAgency struct {
	deps *Dependencies
}

func (t *PlaceAtPickupAgency) Name() string { return "place-at-pickup-agency" }

func (t *PlaceAtPickupAgency) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status == domain.StatusConfirmed &&
		pr.NextExpectedStatus == domain.StatusRequestPlacedAtPickupAgency &&
		wc.SupplierRequest != nil
}

func (t *PlaceAtPickupAgency) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	if wc.PickupSystem == "" {
		return errors.New("pickup agency has no host lms")
	}
	stringSlots(&pr.PickupBibID, &pr.PickupItemID, &pr.PickupItemStatus, &pr.PickupRequestID, &pr.PickupRequestStatus)
	err := t.deps.placeVirtual(ctx, wc, wc.PickupSystem, virtualRecords{
		BibID:      pr.PickupBibID,
		ItemID:     pr.PickupItemID,
		ItemStatus: pr.PickupItemStatus,
		HoldID:     pr.PickupRequestID,
		HoldStatus: pr.PickupRequestStatus,
	})
	clearEmpty(&pr.PickupBibID, &pr.PickupItemID, &pr.PickupItemStatus, &pr.PickupRequestID, &pr.PickupRequestStatus)
	if err != nil {
		return err
	}
	pr.SetStatus(domain.StatusRequestPlacedAtPickupAgency)
	return nil
}

func mapHold(table *ils.StatusTable, local *string) (domain.HoldStatus, bool) {
	if table == nil || local == nil {
		return "", false
	}
	return table.MapHoldStatus(*local)
}

func mapItem(table *ils.StatusTable, local *string) (domain.ItemStatus, bool) {
	if table == nil || local == nil {
		return "", false
	}
	return table.MapItemStatus(*local)
}
