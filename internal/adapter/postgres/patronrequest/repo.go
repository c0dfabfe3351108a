// Package patronrequest persists patron requests and their supplier requests.
package patronrequest

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

const table = "patron_request"

var columns = []string{
	"id", "patron_id", "requesting_identity_id", "bib_cluster_id", "requested_volume_designation",
	"pickup_location_code", "pickup_location_context", "pickup_agency_code", "borrowing_agency_code",
	"requested_item_id", "requested_item_system_code", "requested_item_agency_code",
	"active_workflow", "status", "previous_status", "next_expected_status", "error_message",
	"local_request_id", "local_request_status", "local_item_id", "local_item_status", "local_bib_id",
	"pickup_request_id", "pickup_request_status", "pickup_item_id", "pickup_item_status", "pickup_bib_id",
	"version", "date_created", "date_updated",
}

// Repo provides patron request persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new patron request repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new patron request at version 1.
func (r *Repo) Create(ctx context.Context, pr *domain.PatronRequest) error {
	pr.Version = 1
	row := fromDomain(pr)
	query := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(row.values()...)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, table, pr.ID)
	}
	return nil
}

// Update writes pr if nobody else has written it since it was read. A stale
// version yields domain.ErrConflict. On success pr.Version is advanced.
func (r *Repo) Update(ctx context.Context, pr *domain.PatronRequest) error {
	pr.DateUpdated = time.Now().UTC()
	row := fromDomain(pr)
	values := row.values()

	query := postgres.Builder().Update(table)
	// id, date_created and version are never rewritten from the struct.
	for i, col := range columns {
		if col == "id" || col == "version" || col == "date_created" {
			continue
		}
		query = query.Set(col, values[i])
	}
	query = query.
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": pr.ID, "version": pr.Version})

	n, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query)
	if err != nil {
		return postgres.MapError(err, table, pr.ID)
	}
	if n == 0 {
		if _, getErr := r.Get(ctx, pr.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%s %s: stale version %d: %w", table, pr.ID, pr.Version, domain.ErrConflict)
	}
	pr.Version++
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the patron request with id. Inside a transaction the row is
// locked until commit.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	var row requestRow
	query := postgres.Builder().Select(columns...).From(table).Where(squirrel.Eq{"id": id})
	if postgres.InTx(ctx) {
		query = query.Suffix("FOR UPDATE")
	}
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return nil, postgres.MapError(err, table, id)
	}
	return row.toDomain(), nil
}

// ListTrackable returns up to limit ids of requests the tracking loop should
// poll, ordered by id and starting strictly after the given id.
func (r *Repo) ListTrackable(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	skip := []string{string(domain.StatusError)}
	for _, s := range domain.AllStatuses {
		if s.IsTerminal() {
			skip = append(skip, string(s))
		}
	}

	query := postgres.Builder().
		Select("id").
		From(table).
		Where(squirrel.NotEq{"status": skip}).
		Where(squirrel.Gt{"id": after}).
		OrderBy("id").
		Limit(uint64(limit))

	var ids []uuid.UUID
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &ids, query); err != nil {
		return nil, fmt.Errorf("list trackable patron requests: %w", err)
	}
	return ids, nil
}

// ExistsRecent reports whether the identity (hostLmsCode, localID) placed a
// request for clusterID with the same pickup location since the given time.
func (r *Repo) ExistsRecent(ctx context.Context, hostLmsCode, localID string, clusterID uuid.UUID, pickupCode string, since time.Time) (bool, error) {
	query := postgres.Builder().
		Select("1").
		From(table + " pr").
		Join("patron_identity pi ON pi.id = pr.requesting_identity_id").
		Where(squirrel.Eq{
			"pi.host_lms_code":        hostLmsCode,
			"pi.local_id":             localID,
			"pr.bib_cluster_id":       clusterID,
			"pr.pickup_location_code": pickupCode,
		}).
		Where(squirrel.GtOrEq{"pr.date_created": since}).
		Prefix("SELECT EXISTS (").
		Suffix(")")

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var exists bool
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent patron requests: %w", err)
	}
	return exists, nil
}

// CountByStatus returns the number of requests per status.
func (r *Repo) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	query := postgres.Builder().
		Select("status", "count(*) AS n").
		From(table).
		GroupBy("status")

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("count patron requests by status: %w", err)
	}
	counts := make(map[domain.Status]int, len(rows))
	for _, row := range rows {
		counts[domain.Status(row.Status)] = row.N
	}
	return counts, nil
}
