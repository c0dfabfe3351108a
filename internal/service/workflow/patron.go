package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// ValidatePatron re-reads the requesting patron at their home system and
// fixes the borrowing and pickup agencies.
type ValidatePatron struct {
	deps *Dependencies
}

func (t *ValidatePatron) Name() string { return "validate-patron" }

func (t *ValidatePatron) IsApplicableFor(wc *RequestWorkflowContext) bool {
	return wc.PatronRequest.Status == domain.StatusSubmittedToDCB
}

func (t *ValidatePatron) Attempt(ctx context.Context, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	identity := wc.RequestingIdentity

	client, err := t.deps.client(identity.HostLmsCode)
	if err != nil {
		return err
	}
	patron, err := client.GetPatronByLocalID(ctx, identity.LocalID)
	if err != nil {
		return fmt.Errorf("look up patron %s at %s: %w", identity.LocalID, identity.HostLmsCode, err)
	}
	if patron.Blocked {
		return fmt.Errorf("patron %s is blocked at %s", identity.LocalID, identity.HostLmsCode)
	}

	canonical, err := t.deps.Mapper.ToCanonicalPatronType(ctx, identity.HostLmsCode, patron.LocalPatronType)
	if err != nil {
		return err
	}

	homeLibrary := patron.LocalHomeLibraryCode
	if homeLibrary == "" {
		homeLibrary = wc.Patron.HomeLibraryCode
	}
	borrowingAgency, err := t.deps.Mapper.LocationToAgency(ctx, identity.HostLmsCode, homeLibrary)
	if err != nil {
		return fmt.Errorf("determine borrowing agency: %w", err)
	}
	pickupAgency, err := t.pickupAgency(ctx, pr)
	if err != nil {
		return fmt.Errorf("determine pickup agency: %w", err)
	}

	now := t.deps.now()
	identity.LocalPtype = &patron.LocalPatronType
	identity.CanonicalPtype = &canonical
	if patron.LocalBarcode != "" {
		identity.LocalBarcode = &patron.LocalBarcode
	}
	if homeLibrary != "" {
		identity.LocalHomeLibraryCode = &homeLibrary
	}
	identity.ResolvedAgencyCode = &borrowingAgency
	identity.LastValidated = &now
	wc.UpdateIdentity(identity)

	pr.BorrowingAgencyCode = borrowingAgency
	pr.PickupAgencyCode = pickupAgency
	pr.SetStatus(domain.StatusPatronVerified)

	t.deps.Log.DebugContext(ctx, "patron verified",
		slog.String("patron_request_id", pr.ID.String()),
		slog.String("borrowing_agency", borrowingAgency),
		slog.String("pickup_agency", pickupAgency),
	)
	return nil
}

func (t *ValidatePatron) pickupAgency(ctx context.Context, pr *domain.PatronRequest) (string, error) {
	loc, err := t.deps.pickupLocation(ctx, pr)
	switch {
	case err == nil:
		if code := domain.Deref(loc.AgencyCode); code != "" {
			return code, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return "", err
	}
	return t.deps.Mapper.PickupLocationToAgency(ctx, pr.PickupLocationContext, pr.PickupLocationCode)
}
