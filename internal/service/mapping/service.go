// Package mapping translates patron types, item types and locations between
// host systems through the canonical context.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type mappingRepo interface {
	FindValue(ctx context.Context, fromCategory, fromContext, fromValue, toCategory, toContext string) (domain.ReferenceValueMapping, error)
	UpsertValue(ctx context.Context, m domain.ReferenceValueMapping) error
	FindRange(ctx context.Context, rangeContext, domainName, targetContext string, value int64) (domain.NumericRangeMapping, error)
	InsertRange(ctx context.Context, m domain.NumericRangeMapping) error
}

// Service resolves mappings. It is safe for concurrent use.
type Service struct {
	repo mappingRepo
	log  *slog.Logger
}

// NewService creates a new mapping service.
func NewService(log *slog.Logger, repo mappingRepo) *Service {
	return &Service{
		repo: repo,
		log:  log.With("service", "mapping"),
	}
}

// ---------------------------------------------------------------------------
// Patron types
// ---------------------------------------------------------------------------

// DeterminePatronType maps a patron type local to requestingSystem onto the
// type the supplying system knows. Hop 1 goes local→canonical at the
// requesting system, hop 2 goes canonical→local at the supplying system.
func (s *Service) DeterminePatronType(ctx context.Context, supplyingSystem, requestingSystem, localPatronType string) (string, error) {
	canonical, err := s.ToCanonicalPatronType(ctx, requestingSystem, localPatronType)
	if err != nil {
		return "", err
	}

	m, err := s.repo.FindValue(ctx, domain.CategoryPatronType, domain.CanonicalContext, canonical, domain.CategoryPatronType, supplyingSystem)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", &domain.PatronTypeMappingNotFound{Hop: 2, System: supplyingSystem, Value: canonical}
	case err != nil:
		return "", fmt.Errorf("map canonical patron type %q to %s: %w", canonical, supplyingSystem, err)
	}

	s.log.DebugContext(ctx, "patron type mapped",
		slog.String("requesting_system", requestingSystem),
		slog.String("supplying_system", supplyingSystem),
		slog.String("local", localPatronType),
		slog.String("canonical", canonical),
		slog.String("target", m.ToValue),
	)
	return m.ToValue, nil
}

// ToCanonicalPatronType is hop 1 alone. Integer patron types are looked up
// in the numeric ranges first, then as exact values.
func (s *Service) ToCanonicalPatronType(ctx context.Context, system, localPatronType string) (string, error) {
	v, err := s.toCanonical(ctx, domain.CategoryPatronType, system, localPatronType)
	if errors.Is(err, domain.ErrNotFound) {
		return "", &domain.PatronTypeMappingNotFound{Hop: 1, System: system, Value: localPatronType}
	}
	return v, err
}

// ---------------------------------------------------------------------------
// Item types
// ---------------------------------------------------------------------------

// ToCanonicalItemType maps an item type local to system into the canonical context.
func (s *Service) ToCanonicalItemType(ctx context.Context, system, localItemType string) (string, error) {
	v, err := s.toCanonical(ctx, domain.CategoryItemType, system, localItemType)
	if errors.Is(err, domain.ErrNotFound) {
		return "", &domain.MappingNotFound{Category: domain.CategoryItemType, Context: system, Value: localItemType}
	}
	return v, err
}

// IsLoanable reports whether an item of localItemType may circulate to
// another agency, together with its canonical type. An unmapped type is not
// loanable.
func (s *Service) IsLoanable(ctx context.Context, system, localItemType string) (bool, string, error) {
	canonical, err := s.ToCanonicalItemType(ctx, system, localItemType)
	var notMapped *domain.MappingNotFound
	switch {
	case errors.As(err, &notMapped):
		return false, "", nil
	case err != nil:
		return false, "", err
	}
	return canonical != domain.NonCirculatingItemType, canonical, nil
}

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

// LocationToAgency returns the agency code a shelving location of system
// belongs to.
func (s *Service) LocationToAgency(ctx context.Context, system, locationCode string) (string, error) {
	return s.toAgency(ctx, domain.CategoryLocation, system, locationCode)
}

// PickupLocationToAgency returns the agency code serving a pickup location
// referenced in pickupContext.
func (s *Service) PickupLocationToAgency(ctx context.Context, pickupContext, locationCode string) (string, error) {
	return s.toAgency(ctx, domain.CategoryPickupLocation, pickupContext, locationCode)
}

func (s *Service) toAgency(ctx context.Context, category, system, code string) (string, error) {
	m, err := s.repo.FindValue(ctx, category, system, code, domain.CategoryAgency, domain.CanonicalContext)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", &domain.MappingNotFound{Category: category, Context: system, Value: code}
	case err != nil:
		return "", fmt.Errorf("map %s %q at %s to agency: %w", category, code, system, err)
	}
	return m.ToValue, nil
}

func (s *Service) toCanonical(ctx context.Context, category, system, value string) (string, error) {
	if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
		r, err := s.repo.FindRange(ctx, system, category, domain.CanonicalContext, n)
		switch {
		case err == nil:
			return r.MappedValue, nil
		case !errors.Is(err, domain.ErrNotFound):
			return "", fmt.Errorf("map %s %d at %s: %w", category, n, system, err)
		}
	}

	m, err := s.repo.FindValue(ctx, category, system, value, category, domain.CanonicalContext)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("map %s %q at %s: %w", category, value, system, err)
	}
	return m.ToValue, nil
}

// ---------------------------------------------------------------------------
// Administration
// ---------------------------------------------------------------------------

// AddReferenceValue stores m, replacing the target of an existing mapping
// with the same source key.
func (s *Service) AddReferenceValue(ctx context.Context, m domain.ReferenceValueMapping) error {
	var errs []domain.FieldError
	for _, f := range []struct{ name, value string }{
		{"fromCategory", m.FromCategory},
		{"fromContext", m.FromContext},
		{"fromValue", m.FromValue},
		{"toCategory", m.ToCategory},
		{"toContext", m.ToContext},
		{"toValue", m.ToValue},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, domain.FieldError{Field: f.name, Message: "required"})
		}
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}

	m.ID = domain.ReferenceValueMappingID(m.FromCategory, m.FromContext, m.FromValue, m.ToCategory, m.ToContext)
	if err := s.repo.UpsertValue(ctx, m); err != nil {
		return fmt.Errorf("add reference value mapping: %w", err)
	}
	return nil
}

// AddNumericRange stores m. A range overlapping an existing one in the same
// (context, domain) is rejected with domain.ErrConflict.
func (s *Service) AddNumericRange(ctx context.Context, m domain.NumericRangeMapping) error {
	switch {
	case strings.TrimSpace(m.Context) == "":
		return domain.NewValidationError("context", "required")
	case strings.TrimSpace(m.Domain) == "":
		return domain.NewValidationError("domain", "required")
	case strings.TrimSpace(m.MappedValue) == "":
		return domain.NewValidationError("mappedValue", "required")
	case m.LowerBound > m.UpperBound:
		return domain.NewValidationError("lowerBound", "must not exceed upperBound")
	}
	if m.TargetContext == "" {
		m.TargetContext = domain.CanonicalContext
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	if err := s.repo.InsertRange(ctx, m); err != nil {
		return fmt.Errorf("add numeric range mapping: %w", err)
	}
	s.log.InfoContext(ctx, "numeric range mapping added",
		slog.String("context", m.Context),
		slog.String("domain", m.Domain),
		slog.Int64("lower", m.LowerBound),
		slog.Int64("upper", m.UpperBound),
	)
	return nil
}
