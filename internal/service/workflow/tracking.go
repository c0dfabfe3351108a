package workflow

import (
	"context"
	"log/slog"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// mirror advances the request to a status once the matching observation has
// been made at a host system. It only fires when the target is exactly the
// expected next status.
type mirror struct {
	name     string
	to       domain.Status
	observed func(wc *RequestWorkflowContext) bool
}

func (t *mirror) Name() string { return t.name }

func (t *mirror) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status != domain.StatusError && pr.NextExpectedStatus == t.to && t.observed(wc)
}

func (t *mirror) Attempt(_ context.Context, wc *RequestWorkflowContext) error {
	wc.PatronRequest.SetStatus(t.to)
	return nil
}

func supplierItemIs(wc *RequestWorkflowContext, want domain.ItemStatus) bool {
	if wc.SupplierRequest == nil {
		return false
	}
	s, ok := mapItem(wc.SupplyingStatuses, wc.SupplierRequest.LocalItemStatus)
	return ok && s == want
}

func supplierHoldIs(wc *RequestWorkflowContext, want domain.HoldStatus) bool {
	if wc.SupplierRequest == nil {
		return false
	}
	s, ok := mapHold(wc.SupplyingStatuses, wc.SupplierRequest.LocalStatus)
	return ok && s == want
}

func pickupItemIs(wc *RequestWorkflowContext, want domain.ItemStatus) bool {
	_, item, table := wc.PickupSide()
	s, ok := mapItem(table, item)
	return ok && s == want
}

func pickupHoldIs(wc *RequestWorkflowContext, want domain.HoldStatus) bool {
	hold, _, table := wc.PickupSide()
	s, ok := mapHold(table, hold)
	return ok && s == want
}

// PickupTransit fires when the supplier ships the item.
func PickupTransit() Transition {
	return &mirror{
		name: "pickup-transit",
		to:   domain.StatusPickupTransit,
		observed: func(wc *RequestWorkflowContext) bool {
			return supplierItemIs(wc, domain.ItemStatusTransit) || supplierHoldIs(wc, domain.HoldStatusTransit)
		},
	}
}

// ReceivedAtPickup fires when the pickup library checks the item in.
func ReceivedAtPickup() Transition {
	return &mirror{
		name: "received-at-pickup",
		to:   domain.StatusReceivedAtPickup,
		observed: func(wc *RequestWorkflowContext) bool {
			return pickupItemIs(wc, domain.ItemStatusReceived)
		},
	}
}

// ReadyForPickup fires when the item is on the hold shelf.
func ReadyForPickup() Transition {
	return &mirror{
		name: "ready-for-pickup",
		to:   domain.StatusReadyForPickup,
		observed: func(wc *RequestWorkflowContext) bool {
			return pickupItemIs(wc, domain.ItemStatusOnHoldShelf) || pickupHoldIs(wc, domain.HoldStatusReady)
		},
	}
}

// ReturnTransit fires when the patron returns the item.
func ReturnTransit() Transition {
	return &mirror{
		name: "return-transit",
		to:   domain.StatusReturnTransit,
		observed: func(wc *RequestWorkflowContext) bool {
			return pickupItemIs(wc, domain.ItemStatusReturned)
		},
	}
}

// Completed fires when the supplier has its item back on the shelf.
func Completed() Transition {
	return &mirror{
		name: "completed",
		to:   domain.StatusCompleted,
		observed: func(wc *RequestWorkflowContext) bool {
			return supplierItemIs(wc, domain.ItemStatusAvailable)
		},
	}
}

// Loaned fires when the patron checks the item out. The supplier's copy is
// checked out to the virtual patron, best effort.
type Loaned struct {
	deps *Dependencies
}

func (t *Loaned) Name() string { return "loaned" }

func (t *Loaned) IsApplicableFor(wc *RequestWorkflowContext) bool {
	pr := wc.PatronRequest
	return pr.Status != domain.StatusError &&
		pr.NextExpectedStatus == domain.StatusLoaned &&
		pickupItemIs(wc, domain.ItemStatusLoaned)
}

func (t *Loaned) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr, sr := wc.PatronRequest, wc.SupplierRequest
	if sr != nil {
		if client, err := t.deps.client(sr.HostLmsCode); err == nil {
			barcode := domain.Deref(wc.RequestingIdentity.LocalBarcode)
			if err := client.CheckOutItemToPatron(ctx, sr.LocalItemID, barcode); err != nil {
				t.deps.Log.WarnContext(ctx, "supplier checkout failed",
					slog.String("patron_request_id", pr.ID.String()),
					slog.String("host_lms", sr.HostLmsCode),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	pr.SetStatus(domain.StatusLoaned)
	return nil
}

// Finalise removes the virtual records and retires the supplier request.
// Cleanup failures are logged, never fatal.
type Finalise struct {
	deps *Dependencies
}

func (t *Finalise) Name() string { return "finalise" }

func (t *Finalise) IsApplicableFor(wc *RequestWorkflowContext) bool {
	return wc.PatronRequest.Status == domain.StatusCompleted
}

func (t *Finalise) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	t.cleanup(ctx, pr, wc.BorrowingSystem, pr.LocalItemID, pr.LocalBibID)
	if pr.ActiveWorkflow == domain.WorkflowPickupAnywhere {
		t.cleanup(ctx, pr, wc.PickupSystem, pr.PickupItemID, pr.PickupBibID)
	}
	if sr := wc.SupplierRequest; sr != nil && sr.IsActive {
		sr.IsActive = false
		wc.SupplierRequestChanged()
	}
	pr.SetStatus(domain.StatusFinalised)
	return nil
}

func (t *Finalise) cleanup(ctx context.Context, pr *domain.PatronRequest, system string, itemID, bibID *string) {
	client, err := t.deps.client(system)
	if err != nil {
		return
	}
	warn := func(what string, err error) {
		t.deps.Log.WarnContext(ctx, "virtual record cleanup failed",
			slog.String("patron_request_id", pr.ID.String()),
			slog.String("host_lms", system),
			slog.String("record", what),
			slog.String("error", err.Error()),
		)
	}
	if id := domain.Deref(itemID); id != "" {
		if err := client.DeleteItem(ctx, id); err != nil {
			warn("item", err)
		}
	}
	if id := domain.Deref(bibID); id != "" {
		if err := client.DeleteBib(ctx, id); err != nil {
			warn("bib", err)
		}
	}
}
