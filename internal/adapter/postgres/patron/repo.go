// Package patron persists patrons and their per-system identities.
package patron

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const (
	patronTable   = "patron"
	identityTable = "patron_identity"
)

var identityColumns = []string{
	"id", "patron_id", "host_lms_code", "local_id", "local_ptype", "canonical_ptype",
	"local_barcode", "local_home_library_code", "resolved_agency_code", "is_home_identity", "last_validated",
}

// Repo provides patron persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new patron repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type patronRow struct {
	ID              uuid.UUID `db:"id"`
	HomeLibraryCode string    `db:"home_library_code"`
	DateCreated     time.Time `db:"date_created"`
	DateUpdated     time.Time `db:"date_updated"`
}

type identityRow struct {
	ID                   uuid.UUID  `db:"id"`
	PatronID             uuid.UUID  `db:"patron_id"`
	HostLmsCode          string     `db:"host_lms_code"`
	LocalID              string     `db:"local_id"`
	LocalPtype           *string    `db:"local_ptype"`
	CanonicalPtype       *string    `db:"canonical_ptype"`
	LocalBarcode         *string    `db:"local_barcode"`
	LocalHomeLibraryCode *string    `db:"local_home_library_code"`
	ResolvedAgencyCode   *string    `db:"resolved_agency_code"`
	IsHomeIdentity       bool       `db:"is_home_identity"`
	LastValidated        *time.Time `db:"last_validated"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// CreatePatron inserts a patron.
func (r *Repo) CreatePatron(ctx context.Context, p domain.Patron) error {
	query := postgres.Builder().
		Insert(patronTable).
		Columns("id", "home_library_code", "date_created", "date_updated").
		Values(p.ID, p.HomeLibraryCode, p.DateCreated, p.DateUpdated)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, patronTable, p.ID)
	}
	return nil
}

// CreateIdentity inserts an identity. (hostLmsCode, localID) is unique.
func (r *Repo) CreateIdentity(ctx context.Context, pi domain.PatronIdentity) error {
	query := postgres.Builder().
		Insert(identityTable).
		Columns(identityColumns...).
		Values(pi.ID, pi.PatronID, pi.HostLmsCode, pi.LocalID, pi.LocalPtype, pi.CanonicalPtype,
			pi.LocalBarcode, pi.LocalHomeLibraryCode, pi.ResolvedAgencyCode, pi.IsHomeIdentity, pi.LastValidated)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, identityTable, pi.HostLmsCode+":"+pi.LocalID)
	}
	return nil
}

// UpdateIdentity rewrites the mutable fields of pi.
func (r *Repo) UpdateIdentity(ctx context.Context, pi domain.PatronIdentity) error {
	query := postgres.Builder().
		Update(identityTable).
		SetMap(map[string]any{
			"local_ptype":             pi.LocalPtype,
			"canonical_ptype":         pi.CanonicalPtype,
			"local_barcode":           pi.LocalBarcode,
			"local_home_library_code": pi.LocalHomeLibraryCode,
			"resolved_agency_code":    pi.ResolvedAgencyCode,
			"last_validated":          pi.LastValidated,
		}).
		Where(squirrel.Eq{"id": pi.ID})

	n, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query)
	if err != nil {
		return postgres.MapError(err, identityTable, pi.ID)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", identityTable, pi.ID, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetPatron returns the patron with id.
func (r *Repo) GetPatron(ctx context.Context, id uuid.UUID) (domain.Patron, error) {
	query := postgres.Builder().
		Select("id", "home_library_code", "date_created", "date_updated").
		From(patronTable).
		Where(squirrel.Eq{"id": id})

	var row patronRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.Patron{}, postgres.MapError(err, patronTable, id)
	}
	return domain.Patron(row), nil
}

// GetIdentity returns the identity with id.
func (r *Repo) GetIdentity(ctx context.Context, id uuid.UUID) (domain.PatronIdentity, error) {
	return r.getIdentity(ctx, squirrel.Eq{"id": id}, id)
}

// FindIdentity returns the identity known at hostLmsCode as localID.
func (r *Repo) FindIdentity(ctx context.Context, hostLmsCode, localID string) (domain.PatronIdentity, error) {
	return r.getIdentity(ctx, squirrel.Eq{"host_lms_code": hostLmsCode, "local_id": localID}, hostLmsCode+":"+localID)
}

// FindVirtualIdentity returns the non-home identity of patronID at hostLmsCode.
func (r *Repo) FindVirtualIdentity(ctx context.Context, patronID uuid.UUID, hostLmsCode string) (domain.PatronIdentity, error) {
	return r.getIdentity(ctx, squirrel.Eq{
		"patron_id":        patronID,
		"host_lms_code":    hostLmsCode,
		"is_home_identity": false,
	}, patronID.String()+"@"+hostLmsCode)
}

// ListIdentities returns every identity of patronID, home identity first.
func (r *Repo) ListIdentities(ctx context.Context, patronID uuid.UUID) ([]domain.PatronIdentity, error) {
	query := postgres.Builder().
		Select(identityColumns...).
		From(identityTable).
		Where(squirrel.Eq{"patron_id": patronID}).
		OrderBy("is_home_identity DESC", "host_lms_code")

	var rows []identityRow
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", identityTable, err)
	}
	out := make([]domain.PatronIdentity, len(rows))
	for i, row := range rows {
		out[i] = domain.PatronIdentity(row)
	}
	return out, nil
}

func (r *Repo) getIdentity(ctx context.Context, where squirrel.Eq, key any) (domain.PatronIdentity, error) {
	query := postgres.Builder().Select(identityColumns...).From(identityTable).Where(where).Limit(1)

	var row identityRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.PatronIdentity{}, postgres.MapError(err, identityTable, key)
	}
	return domain.PatronIdentity(row), nil
}
