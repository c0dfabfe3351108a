package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

// Dependencies are the collaborators shared by the standard transitions.
type Dependencies struct {
	Registry  clientRegistry
	Mapper    mapper
	Patrons   patronRepo
	Locations locationRepo
	Resolver  itemResolver
	Log       *slog.Logger
	Now       func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Dependencies) client(code string) (ils.Client, error) {
	if code == "" {
		return nil, errors.New("host lms not determined")
	}
	return d.Registry.Lookup(code)
}

// StandardTransitions returns every transition in the order the engine
// should consider them.
func StandardTransitions(d Dependencies) []Transition {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	deps := &d
	return []Transition{
		&ValidatePatron{deps: deps},
		&Resolve{deps: deps},
		&HandOffAsLocal{deps: deps},
		&PlaceAtSupplyingAgency{deps: deps},
		&ConfirmSupplierRequest{},
		&PlaceAtBorrowingAgency{deps: deps},
		&PlaceAtPickupAgency{deps: deps},
		PickupTransit(),
		ReceivedAtPickup(),
		ReadyForPickup(),
		&Loaned{deps: deps},
		ReturnTransit(),
		Completed(),
		&Finalise{deps: deps},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// pickupLocation finds the request's pickup location by id or by code in the
// pickup context.
func (d *Dependencies) pickupLocation(ctx context.Context, pr *domain.PatronRequest) (domain.Location, error) {
	if id, err := uuid.Parse(pr.PickupLocationCode); err == nil {
		return d.Locations.GetLocation(ctx, id)
	}
	return d.Locations.FindLocationByCode(ctx, pr.PickupLocationCode, pr.PickupLocationContext)
}

// patronAt returns the identity to act as at system: the requesting identity
// at the patron's own system, otherwise a virtual patron created on demand.
// The virtual patron's type is kept in line with the requesting patron's.
func (d *Dependencies) patronAt(ctx context.Context, wc *RequestWorkflowContext, system string, client ils.Client) (domain.PatronIdentity, error) {
	home := wc.RequestingIdentity
	if system == home.HostLmsCode {
		return home, nil
	}

	ptype, err := d.Mapper.DeterminePatronType(ctx, system, home.HostLmsCode, domain.Deref(home.LocalPtype))
	if err != nil {
		return domain.PatronIdentity{}, err
	}

	if pi, ok := wc.pendingIdentity(system); ok {
		return pi, nil
	}
	existing, err := d.Patrons.FindVirtualIdentity(ctx, wc.Patron.ID, system)
	switch {
	case err == nil:
		if domain.Deref(existing.LocalPtype) != ptype {
			if _, err := client.UpdatePatron(ctx, existing.LocalID, ptype); err != nil {
				return domain.PatronIdentity{}, fmt.Errorf("update virtual patron at %s: %w", system, err)
			}
			existing.LocalPtype = &ptype
			wc.UpdateIdentity(existing)
		}
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.PatronIdentity{}, fmt.Errorf("look up virtual identity: %w", err)
	}

	uniqueID := home.LocalID + "@" + home.HostLmsCode
	found, err := client.FindVirtualPatron(ctx, uniqueID)
	var localID string
	switch {
	case err == nil:
		localID = found.LocalID
		if found.LocalPatronType != ptype {
			if _, err := client.UpdatePatron(ctx, localID, ptype); err != nil {
				return domain.PatronIdentity{}, fmt.Errorf("update virtual patron at %s: %w", system, err)
			}
		}
	case ils.IsNotFound(err):
		localID, err = client.CreatePatron(ctx, ils.Patron{
			LocalPatronType:      ptype,
			LocalBarcode:         domain.Deref(home.LocalBarcode),
			LocalHomeLibraryCode: domain.Deref(home.LocalHomeLibraryCode),
			UniqueIDs:            []string{uniqueID},
		})
		if err != nil {
			return domain.PatronIdentity{}, fmt.Errorf("create virtual patron at %s: %w", system, err)
		}
	default:
		return domain.PatronIdentity{}, fmt.Errorf("find virtual patron at %s: %w", system, err)
	}

	pi := domain.PatronIdentity{
		ID:                 uuid.New(),
		PatronID:           wc.Patron.ID,
		HostLmsCode:        system,
		LocalID:            localID,
		LocalPtype:         &ptype,
		CanonicalPtype:     home.CanonicalPtype,
		LocalBarcode:       home.LocalBarcode,
		ResolvedAgencyCode: home.ResolvedAgencyCode,
		IsHomeIdentity:     false,
	}
	wc.AddIdentity(pi)
	d.Log.InfoContext(ctx, "virtual patron ready",
		slog.String("patron_request_id", wc.PatronRequest.ID.String()),
		slog.String("host_lms", system),
		slog.String("local_id", localID),
	)
	return pi, nil
}

// virtualRecords is a bib, item and hold created to mirror the supplied item
// at a system other than the supplier's.
type virtualRecords struct {
	BibID, ItemID, ItemStatus, HoldID, HoldStatus *string
}

// placeVirtual creates (or completes) the virtual bib, item and hold at
// system. Records already present in rec are not created again.
func (d *Dependencies) placeVirtual(ctx context.Context, wc *RequestWorkflowContext, system string, rec virtualRecords) error {
	pr, sr := wc.PatronRequest, wc.SupplierRequest
	if sr == nil {
		return errors.New("no active supplier request")
	}
	client, err := d.client(system)
	if err != nil {
		return err
	}
	patron, err := d.patronAt(ctx, wc, system, client)
	if err != nil {
		return err
	}

	if domain.Deref(rec.BibID) == "" {
		bibID, err := client.CreateBib(ctx, ils.Bib{Title: wc.ClusterTitle})
		if err != nil {
			return fmt.Errorf("create virtual bib at %s: %w", system, err)
		}
		*rec.BibID = bibID
	}
	if domain.Deref(rec.ItemID) == "" {
		item, err := client.CreateItem(ctx, ils.CreateItemCommand{
			PatronRequestID:   pr.ID,
			BibID:             *rec.BibID,
			LocationCode:      pr.PickupLocationCode,
			Barcode:           sr.LocalItemBarcode,
			CanonicalItemType: sr.CanonicalItemType,
		})
		if err != nil {
			return fmt.Errorf("create virtual item at %s: %w", system, err)
		}
		*rec.ItemID = item.LocalID
		*rec.ItemStatus = item.LocalStatus
	}
	if domain.Deref(rec.HoldID) == "" {
		hold, err := client.PlaceHoldRequest(ctx, ils.PlaceHoldCommand{
			PatronLocalID:   patron.LocalID,
			RecordType:      ils.RecordTypeItem,
			RecordNumber:    *rec.ItemID,
			PickupLocation:  pr.PickupLocationCode,
			Note:            "Consortial hold for " + sr.ResolvedAgencyCode,
			PatronRequestID: pr.ID,
		})
		if err != nil {
			return fmt.Errorf("place hold at %s: %w", system, err)
		}
		*rec.HoldID = hold.LocalID
		*rec.HoldStatus = hold.LocalStatus
	}
	return nil
}

// stringSlots allocates every nil field so placeVirtual can fill it in place.
func stringSlots(fields ...**string) {
	for _, f := range fields {
		if *f == nil {
			*f = new(string)
		}
	}
}

// clearEmpty turns empty slots back into nil.
func clearEmpty(fields ...**string) {
	for _, f := range fields {
		if *f != nil && **f == "" {
			*f = nil
		}
	}
}
