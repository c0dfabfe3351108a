// Package preflight runs the admission checks for a new patron request. Every
// enabled check runs, concurrently, and every failure is reported at once.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

type locationRepo interface {
	GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error)
	FindLocationByCode(ctx context.Context, code, hostLmsCode string) (domain.Location, error)
}

type requestRepo interface {
	ExistsRecent(ctx context.Context, hostLmsCode, localID string, clusterID uuid.UUID, pickupCode string, since time.Time) (bool, error)
}

type mapper interface {
	ToCanonicalPatronType(ctx context.Context, system, localPatronType string) (string, error)
	LocationToAgency(ctx context.Context, system, locationCode string) (string, error)
	PickupLocationToAgency(ctx context.Context, pickupContext, locationCode string) (string, error)
}

type clientRegistry interface {
	Lookup(code string) (ils.Client, error)
}

type resolver interface {
	Resolve(ctx context.Context, p resolution.Parameters) (resolution.Resolution, error)
}

// Check is one admission rule. A check returns an error only when it could
// not reach a verdict; rule violations are failed results.
type Check interface {
	Name() string
	Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error)
}

// Service runs a fixed list of checks.
type Service struct {
	checks []Check
	log    *slog.Logger
}

// NewService creates a Service running checks in the given order.
func NewService(log *slog.Logger, checks ...Check) *Service {
	return &Service{
		checks: checks,
		log:    log.With("service", "preflight"),
	}
}

// Check runs every check concurrently and returns all results in
// registration order. A check that errors contributes one CHECK_ERROR
// failure. The error return is reserved for a cancelled context.
func (s *Service) Check(ctx context.Context, cmd domain.PlacePatronRequestCommand) ([]domain.CheckResult, error) {
	perCheck := make([][]domain.CheckResult, len(s.checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range s.checks {
		g.Go(func() error {
			results, err := c.Check(gctx, cmd)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.ErrorContext(gctx, "preflight check errored",
					slog.String("check", c.Name()),
					slog.String("error", err.Error()),
				)
				results = []domain.CheckResult{domain.Failed(domain.FailureCheckError,
					fmt.Sprintf("%s: %v", c.Name(), err))}
			}
			perCheck[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.CheckResult
	for _, results := range perCheck {
		all = append(all, results...)
	}

	if failed := domain.FailedChecks(all); failed != nil {
		s.log.InfoContext(ctx, "preflight checks failed",
			slog.String("requestor", cmd.Requestor.LocalID),
			slog.String("system", cmd.Requestor.LocalSystemCode),
			slog.String("failures", failed.Error()),
		)
	}
	return all, nil
}

// Settings toggles the standard checks.
type Settings struct {
	PickupLocation         bool
	PickupLocationToAgency bool
	DuplicateRequest       bool
	DuplicateWindow        time.Duration
	Patron                 bool
	ResolutionDryRun       bool
}

// Dependencies are the collaborators of the standard checks.
type Dependencies struct {
	Locations locationRepo
	Requests  requestRepo
	Mapper    mapper
	Registry  clientRegistry
	Resolver  resolver
}

// StandardChecks returns the enabled standard checks in their fixed order.
func StandardChecks(s Settings, d Dependencies) []Check {
	var checks []Check
	if s.PickupLocation {
		checks = append(checks, &PickupLocationCheck{locations: d.Locations})
	}
	if s.PickupLocationToAgency {
		checks = append(checks, &PickupLocationToAgencyCheck{locations: d.Locations, mapper: d.Mapper})
	}
	if s.DuplicateRequest {
		checks = append(checks, NewDuplicateRequestCheck(d.Requests, s.DuplicateWindow))
	}
	if s.Patron {
		checks = append(checks, &PatronCheck{registry: d.Registry, mapper: d.Mapper})
	}
	if s.ResolutionDryRun {
		checks = append(checks, &ResolutionDryRunCheck{
			locations: d.Locations,
			mapper:    d.Mapper,
			registry:  d.Registry,
			resolver:  d.Resolver,
		})
	}
	return checks
}
