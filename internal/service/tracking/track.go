package tracking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/workflow"
)

const substitutionReason = "supplier item substituted"

// TrackRequest refreshes the host records of one request and progresses it.
// Requests in ERROR or a terminal status are returned unchanged.
func (s *Service) TrackRequest(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	_, pr, err := s.trackRequest(ctx, id)
	return pr, err
}

func (s *Service) track(ctx context.Context, id uuid.UUID) (before, after domain.Status, err error) {
	before, pr, err := s.trackRequest(ctx, id)
	if pr != nil {
		after = pr.Status
	}
	return before, after, err
}

func (s *Service) trackRequest(ctx context.Context, id uuid.UUID) (domain.Status, *domain.PatronRequest, error) {
	wc, err := s.builder.Build(ctx, id)
	if err != nil {
		return "", nil, err
	}
	pr := wc.PatronRequest
	before := pr.Status
	if !pr.Status.IsTrackable() {
		return before, pr, nil
	}

	changed, err := s.refresh(ctx, wc)
	if err != nil {
		return before, pr, err
	}
	if changed || wc.HasChanges() {
		if err := s.engine.Save(ctx, wc); err != nil {
			return before, pr, fmt.Errorf("save observations: %w", err)
		}
	}

	progressed, err := s.engine.Progress(ctx, id)
	if progressed != nil {
		pr = progressed
	}
	return before, pr, err
}

// refresh polls every local record the request knows about and stores the
// observed local statuses in wc. Records the host no longer knows are
// skipped; any other failure aborts the refresh with nothing saved.
func (s *Service) refresh(ctx context.Context, wc *workflow.RequestWorkflowContext) (bool, error) {
	pr := wc.PatronRequest
	changed := false

	if sr := wc.SupplierRequest; sr != nil && sr.IsActive && wc.SupplyingSystem != "" {
		client, err := s.registry.Lookup(wc.SupplyingSystem)
		if err != nil {
			return false, err
		}
		if err := s.refreshSupplier(ctx, wc, client); err != nil {
			return false, err
		}
	}

	if wc.BorrowingSystem != "" && (pr.LocalRequestID != nil || pr.LocalItemID != nil) {
		c, err := s.observeSide(ctx, wc, wc.BorrowingSystem, wc.BorrowingStatuses,
			pr.LocalRequestID, &pr.LocalRequestStatus, pr.LocalItemID, &pr.LocalItemStatus)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}

	if wc.PickupSystem != "" && (pr.PickupRequestID != nil || pr.PickupItemID != nil) {
		c, err := s.observeSide(ctx, wc, wc.PickupSystem, wc.PickupStatuses,
			pr.PickupRequestID, &pr.PickupRequestStatus, pr.PickupItemID, &pr.PickupItemStatus)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}

	return changed, nil
}

func (s *Service) refreshSupplier(ctx context.Context, wc *workflow.RequestWorkflowContext, client ils.Client) error {
	sr := wc.SupplierRequest
	changed := false

	if sr.LocalID != nil {
		hold, err := client.GetHold(ctx, *sr.LocalID)
		switch {
		case ils.IsNotFound(err):
			s.warnMissing(ctx, wc, wc.SupplyingSystem, "hold", *sr.LocalID)
		case err != nil:
			return fmt.Errorf("get supplier hold: %w", err)
		default:
			// Archive first so the inactive record keeps the replaced hold's status.
			if hold.ItemID != "" && hold.ItemID != sr.LocalItemID {
				if err := s.substitute(ctx, wc, client, hold); err != nil {
					return err
				}
			}
			if setIfChanged(&sr.LocalStatus, hold.LocalStatus) {
				changed = true
				s.checkHoldMapping(ctx, wc, wc.SupplyingSystem, wc.SupplyingStatuses, hold.LocalStatus)
			}
		}
	}

	if sr.LocalItemID != "" {
		item, err := client.GetItem(ctx, sr.LocalItemID)
		switch {
		case ils.IsNotFound(err):
			s.warnMissing(ctx, wc, wc.SupplyingSystem, "item", sr.LocalItemID)
		case err != nil:
			return fmt.Errorf("get supplier item: %w", err)
		default:
			if setIfChanged(&sr.LocalItemStatus, item.Status) {
				changed = true
				s.checkItemMapping(ctx, wc, wc.SupplyingSystem, wc.SupplyingStatuses, item.Status)
			}
		}
	}

	if changed {
		wc.SupplierRequestChanged()
	}
	return nil
}

// substitute archives the current supplier item reference and repoints the
// active supplier request at the item the hold now targets.
func (s *Service) substitute(ctx context.Context, wc *workflow.RequestWorkflowContext, client ils.Client, hold ils.Hold) error {
	sr := wc.SupplierRequest
	item, err := client.GetItem(ctx, hold.ItemID)
	if err != nil {
		return fmt.Errorf("get substituted item %s: %w", hold.ItemID, err)
	}

	wc.Archive(sr.Archive(substitutionReason, s.now().UTC()))

	previous := sr.LocalItemID
	sr.LocalItemID = item.LocalID
	sr.LocalBibID = item.BibID
	sr.LocalItemBarcode = item.Barcode
	if sr.LocalItemBarcode == "" {
		sr.LocalItemBarcode = hold.Barcode
	}
	sr.LocalItemLocationCode = item.LocationCode
	sr.LocalItemStatus = nil
	if item.LocalItemType != "" && item.LocalItemType != sr.LocalItemType {
		sr.LocalItemType = item.LocalItemType
		canonical, err := s.mapper.ToCanonicalItemType(ctx, wc.SupplyingSystem, item.LocalItemType)
		if err != nil {
			s.log.WarnContext(ctx, "substituted item type not mapped",
				slog.String("patron_request_id", wc.PatronRequest.ID.String()),
				slog.String("item_type", item.LocalItemType),
				slog.String("error", err.Error()),
			)
		} else {
			sr.CanonicalItemType = canonical
		}
	}
	wc.SupplierRequestChanged()

	s.log.InfoContext(ctx, "supplier item substituted",
		slog.String("patron_request_id", wc.PatronRequest.ID.String()),
		slog.String("host_lms", wc.SupplyingSystem),
		slog.String("previous_item", previous),
		slog.String("item", item.LocalID),
	)
	return nil
}

func (s *Service) observeSide(
	ctx context.Context,
	wc *workflow.RequestWorkflowContext,
	system string,
	table *ils.StatusTable,
	holdID *string, holdStatus **string,
	itemID *string, itemStatus **string,
) (bool, error) {
	client, err := s.registry.Lookup(system)
	if err != nil {
		return false, err
	}
	changed := false

	if holdID != nil {
		hold, err := client.GetHold(ctx, *holdID)
		switch {
		case ils.IsNotFound(err):
			s.warnMissing(ctx, wc, system, "hold", *holdID)
		case err != nil:
			return false, fmt.Errorf("get hold at %s: %w", system, err)
		default:
			if setIfChanged(holdStatus, hold.LocalStatus) {
				changed = true
				s.checkHoldMapping(ctx, wc, system, table, hold.LocalStatus)
			}
		}
	}

	if itemID != nil {
		item, err := client.GetItem(ctx, *itemID)
		switch {
		case ils.IsNotFound(err):
			s.warnMissing(ctx, wc, system, "item", *itemID)
		case err != nil:
			return false, fmt.Errorf("get item at %s: %w", system, err)
		default:
			if setIfChanged(itemStatus, item.Status) {
				changed = true
				s.checkItemMapping(ctx, wc, system, table, item.Status)
			}
		}
	}
	return changed, nil
}

func setIfChanged(field **string, observed string) bool {
	if observed == "" || domain.Deref(*field) == observed {
		return false
	}
	*field = &observed
	return true
}

func (s *Service) checkItemMapping(ctx context.Context, wc *workflow.RequestWorkflowContext, system string, table *ils.StatusTable, local string) {
	if table == nil {
		return
	}
	if _, ok := table.MapItemStatus(local); !ok {
		s.warnUnmapped(ctx, wc, system, "item", local)
	}
}

func (s *Service) checkHoldMapping(ctx context.Context, wc *workflow.RequestWorkflowContext, system string, table *ils.StatusTable, local string) {
	if table == nil {
		return
	}
	if _, ok := table.MapHoldStatus(local); !ok {
		s.warnUnmapped(ctx, wc, system, "hold", local)
	}
}

func (s *Service) warnUnmapped(ctx context.Context, wc *workflow.RequestWorkflowContext, system, kind, local string) {
	s.log.WarnContext(ctx, "unmapped local status",
		slog.String("patron_request_id", wc.PatronRequest.ID.String()),
		slog.String("host_lms", system),
		slog.String("record", kind),
		slog.String("local_status", local),
	)
}

func (s *Service) warnMissing(ctx context.Context, wc *workflow.RequestWorkflowContext, system, kind, localID string) {
	s.log.WarnContext(ctx, "local record not found",
		slog.String("patron_request_id", wc.PatronRequest.ID.String()),
		slog.String("host_lms", system),
		slog.String("record", kind),
		slog.String("local_id", localID),
	)
}
