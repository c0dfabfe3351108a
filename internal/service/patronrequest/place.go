package patronrequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// Place admits a new patron request. Failed admission checks are returned
// together as *domain.ChecksFailure and nothing is stored. Once stored, the
// request is progressed as far as it goes; a failing transition leaves it in
// ERROR and is not returned as an error, and neither is a concurrent write
// that got there first.
func (s *Service) Place(ctx context.Context, cmd domain.PlacePatronRequestCommand) (*domain.PatronRequest, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	results, err := s.preflight.Check(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}
	if failed := domain.FailedChecks(results); failed != nil {
		return nil, failed
	}

	now := s.now().UTC()
	var pr *domain.PatronRequest
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		patron, identity, err := s.findOrCreatePatron(txCtx, cmd)
		if err != nil {
			return err
		}

		pr = domain.NewPatronRequest(patron.ID, identity.ID, cmd.Citation.BibClusterID,
			cmd.PickupLocation.Code, cmd.PickupContext(), now)
		pr.RequestedVolumeDesignation = cmd.Citation.VolumeDesignator
		if item := cmd.Item; item != nil {
			pr.RequestedItemID = &item.LocalID
			pr.RequestedItemSystemCode = &item.LocalSystemCode
			if item.AgencyCode != "" {
				pr.RequestedItemAgencyCode = &item.AgencyCode
			}
		}
		if err := s.requests.Create(txCtx, pr); err != nil {
			return fmt.Errorf("create patron request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "patron request placed",
		slog.String("patron_request_id", pr.ID.String()),
		slog.String("requestor", cmd.Requestor.LocalID),
		slog.String("system", cmd.Requestor.LocalSystemCode),
		slog.String("cluster_id", cmd.Citation.BibClusterID.String()),
	)

	if _, err := s.engine.Progress(ctx, pr.ID); err != nil {
		var transErr *domain.TransitionError
		switch {
		case errors.As(err, &transErr):
			s.log.WarnContext(ctx, "patron request needs attention",
				slog.String("patron_request_id", pr.ID.String()),
				slog.String("transition", transErr.Transition),
				slog.String("error", transErr.Message),
			)
		case errors.Is(err, domain.ErrConflict):
			// Another writer (usually tracking) moved the request on first.
			s.log.InfoContext(ctx, "patron request advanced concurrently",
				slog.String("patron_request_id", pr.ID.String()),
			)
		default:
			return nil, fmt.Errorf("progress patron request %s: %w", pr.ID, err)
		}
	}

	return s.requests.Get(ctx, pr.ID)
}

func (s *Service) findOrCreatePatron(ctx context.Context, cmd domain.PlacePatronRequestCommand) (domain.Patron, domain.PatronIdentity, error) {
	identity, err := s.patrons.FindIdentity(ctx, cmd.Requestor.LocalSystemCode, cmd.Requestor.LocalID)
	switch {
	case err == nil:
		patron, err := s.patrons.GetPatron(ctx, identity.PatronID)
		if err != nil {
			return domain.Patron{}, domain.PatronIdentity{}, fmt.Errorf("load patron: %w", err)
		}
		return patron, identity, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Patron{}, domain.PatronIdentity{}, fmt.Errorf("find identity: %w", err)
	}

	now := s.now().UTC()
	patron := domain.Patron{
		ID:              uuid.New(),
		HomeLibraryCode: cmd.Requestor.HomeLibraryCode,
		DateCreated:     now,
		DateUpdated:     now,
	}
	identity = domain.PatronIdentity{
		ID:             uuid.New(),
		PatronID:       patron.ID,
		HostLmsCode:    cmd.Requestor.LocalSystemCode,
		LocalID:        cmd.Requestor.LocalID,
		IsHomeIdentity: true,
	}
	if cmd.Requestor.HomeLibraryCode != "" {
		identity.LocalHomeLibraryCode = &cmd.Requestor.HomeLibraryCode
	}

	if err := s.patrons.CreatePatron(ctx, patron); err != nil {
		return domain.Patron{}, domain.PatronIdentity{}, fmt.Errorf("create patron: %w", err)
	}
	if err := s.patrons.CreateIdentity(ctx, identity); err != nil {
		return domain.Patron{}, domain.PatronIdentity{}, fmt.Errorf("create identity: %w", err)
	}
	return patron, identity, nil
}
