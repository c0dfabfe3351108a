package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

// findPickupLocation accepts either a location id or a code scoped to the
// pickup context.
func findPickupLocation(ctx context.Context, locations locationRepo, cmd domain.PlacePatronRequestCommand) (domain.Location, error) {
	if id, err := uuid.Parse(cmd.PickupLocation.Code); err == nil {
		return locations.GetLocation(ctx, id)
	}
	return locations.FindLocationByCode(ctx, cmd.PickupLocation.Code, cmd.PickupContext())
}

// ---------------------------------------------------------------------------
// Pickup location
// ---------------------------------------------------------------------------

// PickupLocationCheck fails when the pickup location is unknown.
type PickupLocationCheck struct {
	locations locationRepo
}

func (c *PickupLocationCheck) Name() string { return "pickup-location" }

func (c *PickupLocationCheck) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	_, err := findPickupLocation(ctx, c.locations, cmd)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return []domain.CheckResult{domain.Failed(domain.FailureUnknownPickupLocation,
			fmt.Sprintf("pickup location %q is not recognised", cmd.PickupLocation.Code))}, nil
	case err != nil:
		return nil, fmt.Errorf("find pickup location: %w", err)
	}
	return []domain.CheckResult{domain.Passed()}, nil
}

// PickupLocationToAgencyCheck fails when the pickup location cannot be tied
// to an agency, either directly or through a mapping.
type PickupLocationToAgencyCheck struct {
	locations locationRepo
	mapper    mapper
}

func (c *PickupLocationToAgencyCheck) Name() string { return "pickup-location-to-agency" }

func (c *PickupLocationToAgencyCheck) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	loc, err := findPickupLocation(ctx, c.locations, cmd)
	switch {
	case err == nil:
		if domain.Deref(loc.AgencyCode) != "" {
			return []domain.CheckResult{domain.Passed()}, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find pickup location: %w", err)
	}

	_, err = c.mapper.PickupLocationToAgency(ctx, cmd.PickupContext(), cmd.PickupLocation.Code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return []domain.CheckResult{domain.Failed(domain.FailurePickupLocationNotMapped,
			fmt.Sprintf("pickup location %q is not mapped to an agency", cmd.PickupLocation.Code))}, nil
	case err != nil:
		return nil, fmt.Errorf("map pickup location: %w", err)
	}
	return []domain.CheckResult{domain.Passed()}, nil
}

// ---------------------------------------------------------------------------
// Duplicate request
// ---------------------------------------------------------------------------

// DuplicateRequestCheck fails when the same patron asked for the same
// cluster at the same pickup location within the window.
type DuplicateRequestCheck struct {
	requests requestRepo
	window   time.Duration
	now      func() time.Time
}

// NewDuplicateRequestCheck creates a DuplicateRequestCheck.
func NewDuplicateRequestCheck(requests requestRepo, window time.Duration) *DuplicateRequestCheck {
	return &DuplicateRequestCheck{requests: requests, window: window, now: time.Now}
}

func (c *DuplicateRequestCheck) Name() string { return "duplicate-request" }

func (c *DuplicateRequestCheck) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	since := c.now().Add(-c.window)
	exists, err := c.requests.ExistsRecent(ctx,
		cmd.Requestor.LocalSystemCode,
		cmd.Requestor.LocalID,
		cmd.Citation.BibClusterID,
		cmd.PickupLocation.Code,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("look up recent requests: %w", err)
	}
	if exists {
		return []domain.CheckResult{domain.Failed(domain.FailureDuplicateRequestAttempt,
			fmt.Sprintf("a request for cluster %s with pickup location %q was placed in the last %s",
				cmd.Citation.BibClusterID, cmd.PickupLocation.Code, c.window))}, nil
	}
	return []domain.CheckResult{domain.Passed()}, nil
}

// ---------------------------------------------------------------------------
// Patron
// ---------------------------------------------------------------------------

// PatronCheck verifies the requesting patron at their home system. It can
// report several failures at once.
type PatronCheck struct {
	registry clientRegistry
	mapper   mapper
}

func (c *PatronCheck) Name() string { return "patron" }

func (c *PatronCheck) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	system := cmd.Requestor.LocalSystemCode

	client, err := c.registry.Lookup(system)
	if err != nil {
		return []domain.CheckResult{domain.Failed(domain.FailureUnknownRequestingSystem,
			fmt.Sprintf("requesting system %q is not configured", system))}, nil
	}

	patron, err := client.GetPatronByLocalID(ctx, cmd.Requestor.LocalID)
	switch {
	case ils.IsNotFound(err):
		return []domain.CheckResult{domain.Failed(domain.FailurePatronNotFound,
			fmt.Sprintf("patron %q not found at %s", cmd.Requestor.LocalID, system))}, nil
	case err != nil:
		return nil, fmt.Errorf("look up patron at %s: %w", system, err)
	}

	var results []domain.CheckResult
	if patron.Blocked {
		results = append(results, domain.Failed(domain.FailurePatronBlocked,
			fmt.Sprintf("patron %q is blocked at %s", cmd.Requestor.LocalID, system)))
	}

	_, err = c.mapper.ToCanonicalPatronType(ctx, system, patron.LocalPatronType)
	var ptypeErr *domain.PatronTypeMappingNotFound
	switch {
	case errors.As(err, &ptypeErr):
		results = append(results, domain.Failed(domain.FailurePatronTypeNotMapped, ptypeErr.Error()))
	case err != nil:
		return nil, fmt.Errorf("map patron type: %w", err)
	}

	homeLibrary := strings.TrimSpace(cmd.Requestor.HomeLibraryCode)
	if homeLibrary == "" {
		homeLibrary = patron.LocalHomeLibraryCode
	}
	if homeLibrary == "" {
		results = append(results, domain.Failed(domain.FailurePatronHomeLibraryNotMapped,
			fmt.Sprintf("patron %q has no home library at %s", cmd.Requestor.LocalID, system)))
	} else {
		_, err = c.mapper.LocationToAgency(ctx, system, homeLibrary)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			results = append(results, domain.Failed(domain.FailurePatronHomeLibraryNotMapped,
				fmt.Sprintf("home library %q at %s is not mapped to an agency", homeLibrary, system)))
		case err != nil:
			return nil, fmt.Errorf("map home library: %w", err)
		}
	}

	if len(results) == 0 {
		results = append(results, domain.Passed())
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Resolution dry run
// ---------------------------------------------------------------------------

// ResolutionDryRunCheck fails when resolution would find nothing to supply.
// The borrowing and pickup agencies are derived the way patron validation
// derives them, so items at the patron's own agency are excluded here too.
type ResolutionDryRunCheck struct {
	locations locationRepo
	mapper    mapper
	registry  clientRegistry
	resolver  resolver
}

func (c *ResolutionDryRunCheck) Name() string { return "resolution-dry-run" }

func (c *ResolutionDryRunCheck) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	borrowing, err := c.borrowingAgency(ctx, cmd)
	if err != nil {
		return nil, err
	}
	pickup, err := c.pickupAgency(ctx, cmd)
	if err != nil {
		return nil, err
	}

	res, err := c.resolver.Resolve(ctx, resolution.Parameters{
		ClusterID:           cmd.Citation.BibClusterID,
		BorrowingAgencyCode: borrowing,
		PickupAgencyCode:    pickup,
		RequestedItem:       cmd.Item,
	})
	var resErr *domain.ResolutionError
	switch {
	case errors.As(err, &resErr):
		return []domain.CheckResult{domain.Failed(domain.FailureResolutionFailed, resErr.Error())}, nil
	case err != nil:
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if res.Chosen == nil {
		return []domain.CheckResult{domain.Failed(domain.FailureNoItemSelectable,
			fmt.Sprintf("no item in cluster %s can be supplied", cmd.Citation.BibClusterID))}, nil
	}
	return []domain.CheckResult{domain.Passed()}, nil
}

// borrowingAgency returns "" when the home library cannot be determined or
// mapped; the patron check reports those cases.
func (c *ResolutionDryRunCheck) borrowingAgency(ctx context.Context, cmd domain.PlacePatronRequestCommand) (string, error) {
	system := cmd.Requestor.LocalSystemCode
	homeLibrary := strings.TrimSpace(cmd.Requestor.HomeLibraryCode)
	if homeLibrary == "" {
		client, err := c.registry.Lookup(system)
		if err != nil {
			return "", nil
		}
		patron, err := client.GetPatronByLocalID(ctx, cmd.Requestor.LocalID)
		if err != nil {
			return "", nil
		}
		homeLibrary = patron.LocalHomeLibraryCode
	}
	if homeLibrary == "" {
		return "", nil
	}

	agency, err := c.mapper.LocationToAgency(ctx, system, homeLibrary)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("map home library: %w", err)
	}
	return agency, nil
}

func (c *ResolutionDryRunCheck) pickupAgency(ctx context.Context, cmd domain.PlacePatronRequestCommand) (string, error) {
	loc, err := findPickupLocation(ctx, c.locations, cmd)
	switch {
	case err == nil:
		if code := domain.Deref(loc.AgencyCode); code != "" {
			return code, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("find pickup location: %w", err)
	}

	agency, err := c.mapper.PickupLocationToAgency(ctx, cmd.PickupContext(), cmd.PickupLocation.Code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("map pickup location: %w", err)
	}
	return agency, nil
}
