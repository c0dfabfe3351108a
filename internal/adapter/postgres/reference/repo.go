// Package reference persists host systems, agencies and locations.
package reference

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const (
	hostLmsTable  = "host_lms"
	agencyTable   = "agency"
	locationTable = "location"
)

var (
	hostLmsColumns  = []string{"id", "code", "name", "client_type", "base_url", "item_status_overrides", "hold_status_overrides", "client_config"}
	agencyColumns   = []string{"id", "code", "name", "host_lms_code", "priority"}
	locationColumns = []string{"id", "code", "name", "agency_code", "host_lms_code", "is_pickup"}
)

// Repo provides reference data persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reference data repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type hostLmsRow struct {
	ID                  uuid.UUID         `db:"id"`
	Code                string            `db:"code"`
	Name                string            `db:"name"`
	ClientType          string            `db:"client_type"`
	BaseURL             string            `db:"base_url"`
	ItemStatusOverrides map[string]string `db:"item_status_overrides"`
	HoldStatusOverrides map[string]string `db:"hold_status_overrides"`
	ClientConfig        map[string]string `db:"client_config"`
}

func (r hostLmsRow) toDomain() domain.HostLms {
	return domain.HostLms{
		ID:                  r.ID,
		Code:                r.Code,
		Name:                r.Name,
		ClientType:          domain.HostLmsClientType(r.ClientType),
		BaseURL:             r.BaseURL,
		ItemStatusOverrides: r.ItemStatusOverrides,
		HoldStatusOverrides: r.HoldStatusOverrides,
		ClientConfig:        r.ClientConfig,
	}
}

type locationRow struct {
	ID          uuid.UUID `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	AgencyCode  *string   `db:"agency_code"`
	HostLmsCode string    `db:"host_lms_code"`
	IsPickup    bool      `db:"is_pickup"`
}

type agencyRow struct {
	ID          uuid.UUID `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	HostLmsCode string    `db:"host_lms_code"`
	Priority    int       `db:"priority"`
}

func emptyIfNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// ---------------------------------------------------------------------------
// Host systems
// ---------------------------------------------------------------------------

// CreateHostLms inserts a host system.
func (r *Repo) CreateHostLms(ctx context.Context, h domain.HostLms) error {
	query := postgres.Builder().
		Insert(hostLmsTable).
		Columns(hostLmsColumns...).
		Values(h.ID, h.Code, h.Name, string(h.ClientType), h.BaseURL,
			emptyIfNil(h.ItemStatusOverrides), emptyIfNil(h.HoldStatusOverrides), emptyIfNil(h.ClientConfig))

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, hostLmsTable, h.Code)
	}
	return nil
}

// GetHostLms returns the host system with code.
func (r *Repo) GetHostLms(ctx context.Context, code string) (domain.HostLms, error) {
	query := postgres.Builder().Select(hostLmsColumns...).From(hostLmsTable).Where(squirrel.Eq{"code": code})

	var row hostLmsRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.HostLms{}, postgres.MapError(err, hostLmsTable, code)
	}
	return row.toDomain(), nil
}

// ListHostLms returns every configured host system ordered by code.
func (r *Repo) ListHostLms(ctx context.Context) ([]domain.HostLms, error) {
	query := postgres.Builder().Select(hostLmsColumns...).From(hostLmsTable).OrderBy("code")

	var rows []hostLmsRow
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", hostLmsTable, err)
	}
	out := make([]domain.HostLms, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Agencies
// ---------------------------------------------------------------------------

// CreateAgency inserts an agency.
func (r *Repo) CreateAgency(ctx context.Context, a domain.Agency) error {
	query := postgres.Builder().
		Insert(agencyTable).
		Columns(agencyColumns...).
		Values(a.ID, a.Code, a.Name, a.HostLmsCode, a.Priority)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, agencyTable, a.Code)
	}
	return nil
}

// GetAgency returns the agency with code.
func (r *Repo) GetAgency(ctx context.Context, code string) (domain.Agency, error) {
	query := postgres.Builder().Select(agencyColumns...).From(agencyTable).Where(squirrel.Eq{"code": code})

	var row agencyRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.Agency{}, postgres.MapError(err, agencyTable, code)
	}
	return domain.Agency(row), nil
}

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

// CreateLocation inserts a location.
func (r *Repo) CreateLocation(ctx context.Context, l domain.Location) error {
	query := postgres.Builder().
		Insert(locationTable).
		Columns(locationColumns...).
		Values(l.ID, l.Code, l.Name, l.AgencyCode, l.HostLmsCode, l.IsPickup)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, locationTable, l.Code)
	}
	return nil
}

// GetLocation returns the location with id.
func (r *Repo) GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	query := postgres.Builder().Select(locationColumns...).From(locationTable).Where(squirrel.Eq{"id": id})

	var row locationRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.Location{}, postgres.MapError(err, locationTable, id)
	}
	return domain.Location(row), nil
}

// FindLocationByCode returns the location with code. A location owned by
// hostLmsCode is preferred; otherwise the first match by host code is used.
func (r *Repo) FindLocationByCode(ctx context.Context, code, hostLmsCode string) (domain.Location, error) {
	query := postgres.Builder().
		Select(locationColumns...).
		From(locationTable).
		Where(squirrel.Eq{"code": code}).
		OrderByClause("(host_lms_code = ?) DESC", hostLmsCode).
		OrderBy("host_lms_code").
		Limit(1)

	var row locationRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.Location{}, postgres.MapError(err, locationTable, code)
	}
	return domain.Location(row), nil
}
