// Package cluster reads clustered bibliographic records.
package cluster

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
	clusterTable = "bib_cluster"
	bibTable     = "bib_record"
)

var bibColumns = []string{"id", "cluster_id", "source_system_code", "source_record_id", "title"}

// Repo provides cluster persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cluster repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type clusterRow struct {
	ID    uuid.UUID `db:"id"`
	Title string    `db:"title"`
}

type bibRow struct {
	ID               uuid.UUID `db:"id"`
	ClusterID        uuid.UUID `db:"cluster_id"`
	SourceSystemCode string    `db:"source_system_code"`
	SourceRecordID   string    `db:"source_record_id"`
	Title            string    `db:"title"`
}

// CreateCluster inserts a cluster.
func (r *Repo) CreateCluster(ctx context.Context, c domain.BibCluster) error {
	query := postgres.Builder().Insert(clusterTable).Columns("id", "title").Values(c.ID, c.Title)
	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, clusterTable, c.ID)
	}
	return nil
}

// AddBib inserts a member record of an existing cluster.
func (r *Repo) AddBib(ctx context.Context, b domain.BibRecord) error {
	query := postgres.Builder().
		Insert(bibTable).
		Columns(bibColumns...).
		Values(b.ID, b.ClusterID, b.SourceSystemCode, b.SourceRecordID, b.Title)
	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, bibTable, b.SourceSystemCode+":"+b.SourceRecordID)
	}
	return nil
}

// GetCluster returns the cluster with id.
func (r *Repo) GetCluster(ctx context.Context, id uuid.UUID) (domain.BibCluster, error) {
	query := postgres.Builder().Select("id", "title").From(clusterTable).Where(squirrel.Eq{"id": id})

	var row clusterRow
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return domain.BibCluster{}, postgres.MapError(err, clusterTable, id)
	}
	return domain.BibCluster(row), nil
}

// ListBibs returns the member records of clusterID ordered by source system
// and record id.
func (r *Repo) ListBibs(ctx context.Context, clusterID uuid.UUID) ([]domain.BibRecord, error) {
	query := postgres.Builder().
		Select(bibColumns...).
		From(bibTable).
		Where(squirrel.Eq{"cluster_id": clusterID}).
		OrderBy("source_system_code", "source_record_id")

	var rows []bibRow
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", bibTable, err)
	}
	out := make([]domain.BibRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.BibRecord(row)
	}
	return out, nil
}
