// Package mapping persists reference value and numeric range mappings.
package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const (
	valueTable = "reference_value_mapping"
	rangeTable = "numeric_range_mapping"
)

// Repo provides mapping persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new mapping repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

type valueRow struct {
	ID           uuid.UUID `db:"id"`
	FromCategory string    `db:"from_category"`
	FromContext  string    `db:"from_context"`
	FromValue    string    `db:"from_value"`
	ToCategory   string    `db:"to_category"`
	ToContext    string    `db:"to_context"`
	ToValue      string    `db:"to_value"`
}

type rangeRow struct {
	ID            uuid.UUID `db:"id"`
	Context       string    `db:"context"`
	Domain        string    `db:"domain"`
	LowerBound    int64     `db:"lower_bound"`
	UpperBound    int64     `db:"upper_bound"`
	TargetContext string    `db:"target_context"`
	MappedValue   string    `db:"mapped_value"`
}

var rangeColumns = []string{"id", "context", "domain", "lower_bound", "upper_bound", "target_context", "mapped_value"}

// ---------------------------------------------------------------------------
// Reference values
// ---------------------------------------------------------------------------

// FindValue returns the exact mapping for fromValue, or domain.ErrNotFound.
func (r *Repo) FindValue(ctx context.Context, fromCategory, fromContext, fromValue, toCategory, toContext string) (domain.ReferenceValueMapping, error) {
	query := postgres.Builder().
		Select("id", "from_category", "from_context", "from_value", "to_category", "to_context", "to_value").
		From(valueTable).
		Where(squirrel.Eq{
			"from_category": fromCategory,
			"from_context":  fromContext,
			"from_value":    fromValue,
			"to_category":   toCategory,
			"to_context":    toContext,
		})

	var row valueRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.ReferenceValueMapping{}, postgres.MapError(err, valueTable, fromContext+":"+fromValue)
	}
	return domain.ReferenceValueMapping(row), nil
}

// UpsertValue inserts m or replaces the target of the existing mapping with
// the same source key.
func (r *Repo) UpsertValue(ctx context.Context, m domain.ReferenceValueMapping) error {
	query := postgres.Builder().
		Insert(valueTable).
		Columns("id", "from_category", "from_context", "from_value", "to_category", "to_context", "to_value").
		Values(m.ID, m.FromCategory, m.FromContext, m.FromValue, m.ToCategory, m.ToContext, m.ToValue).
		Suffix("ON CONFLICT (from_category, from_context, from_value, to_category, to_context) DO UPDATE SET to_value = EXCLUDED.to_value")

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, valueTable, m.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Numeric ranges
// ---------------------------------------------------------------------------

// FindRange returns the range in (context, domain) covering value and
// targeting targetContext. When ranges overlap the one with the lowest lower
// bound wins.
func (r *Repo) FindRange(ctx context.Context, rangeContext, domainName, targetContext string, value int64) (domain.NumericRangeMapping, error) {
	query := postgres.Builder().
		Select(rangeColumns...).
		From(rangeTable).
		Where(squirrel.Eq{"context": rangeContext, "domain": domainName, "target_context": targetContext}).
		Where(squirrel.LtOrEq{"lower_bound": value}).
		Where(squirrel.GtOrEq{"upper_bound": value}).
		OrderBy("lower_bound", "id").
		Limit(1)

	var row rangeRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.NumericRangeMapping{}, postgres.MapError(err, rangeTable, fmt.Sprintf("%s:%s:%d", rangeContext, domainName, value))
	}
	return domain.NumericRangeMapping(row), nil
}

// InsertRange stores m unless it overlaps an existing range in the same
// (context, domain), which yields domain.ErrConflict. Concurrent inserts into
// one (context, domain) are serialised with a transaction-scoped advisory lock.
func (r *Repo) InsertRange(ctx context.Context, m domain.NumericRangeMapping) error {
	if m.LowerBound > m.UpperBound {
		return domain.NewValidationError("lowerBound", "must not exceed upperBound")
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rangeTable+":"+m.Context+":"+m.Domain); err != nil {
			return fmt.Errorf("lock %s: %w", rangeTable, err)
		}

		var existing rangeRow
		overlap := postgres.Builder().
			Select(rangeColumns...).
			From(rangeTable).
			Where(squirrel.Eq{"context": m.Context, "domain": m.Domain}).
			Where(squirrel.LtOrEq{"lower_bound": m.UpperBound}).
			Where(squirrel.GtOrEq{"upper_bound": m.LowerBound}).
			OrderBy("lower_bound").
			Limit(1)
		err := postgres.Get(ctx, q, &existing, overlap)
		switch {
		case err == nil:
			return fmt.Errorf("%s [%d, %d] overlaps [%d, %d] in %s/%s: %w", rangeTable,
				m.LowerBound, m.UpperBound, existing.LowerBound, existing.UpperBound, m.Context, m.Domain, domain.ErrConflict)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("check %s overlap: %w", rangeTable, err)
		}

		insert := postgres.Builder().
			Insert(rangeTable).
			Columns(rangeColumns...).
			Values(m.ID, m.Context, m.Domain, m.LowerBound, m.UpperBound, m.TargetContext, m.MappedValue)
		if _, err := postgres.Exec(ctx, q, insert); err != nil {
			return postgres.MapError(err, rangeTable, m.ID)
		}
		return nil
	})
}

// ListRanges returns every range in (context, domain), ordered by lower bound.
func (r *Repo) ListRanges(ctx context.Context, rangeContext, domainName string) ([]domain.NumericRangeMapping, error) {
	query := postgres.Builder().
		Select(rangeColumns...).
		From(rangeTable).
		Where(squirrel.Eq{"context": rangeContext, "domain": domainName}).
		OrderBy("lower_bound", "id")

	var rows []rangeRow
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", rangeTable, err)
	}
	out := make([]domain.NumericRangeMapping, len(rows))
	for i, row := range rows {
		out[i] = domain.NumericRangeMapping(row)
	}
	return out, nil
}
