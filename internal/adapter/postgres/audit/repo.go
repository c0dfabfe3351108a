// Package audit implements the patron request audit trail using PostgreSQL.
// It provides append-only operations.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const table = "patron_request_audit"

// Repo provides audit persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends one audit row.
func (r *Repo) Create(ctx context.Context, a domain.PatronRequestAudit) error {
	var data []byte
	if a.AuditData != nil {
		b, err := json.Marshal(a.AuditData)
		if err != nil {
			return fmt.Errorf("%s marshal audit data: %w", table, err)
		}
		data = b
	}

	query := postgres.Builder().
		Insert(table).
		Columns("id", "patron_request_id", "audit_date", "from_status", "to_status", "brief_description", "audit_data").
		Values(a.ID, a.PatronRequestID, a.AuditDate, string(a.FromStatus), string(a.ToStatus), a.BriefDescription, data)

	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, table, a.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

type auditRow struct {
	ID               uuid.UUID `db:"id"`
	PatronRequestID  uuid.UUID `db:"patron_request_id"`
	AuditDate        time.Time `db:"audit_date"`
	FromStatus       string    `db:"from_status"`
	ToStatus         string    `db:"to_status"`
	BriefDescription *string   `db:"brief_description"`
	AuditData        []byte    `db:"audit_data"`
}

// ListByPatronRequest returns the audit trail of one request, oldest first.
func (r *Repo) ListByPatronRequest(ctx context.Context, patronRequestID uuid.UUID) ([]domain.PatronRequestAudit, error) {
	query := postgres.Builder().
		Select("id", "patron_request_id", "audit_date", "from_status", "to_status", "brief_description", "audit_data").
		From(table).
		Where(squirrel.Eq{"patron_request_id": patronRequestID}).
		OrderBy("audit_date", "id")

	var rows []auditRow
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}

	out := make([]domain.PatronRequestAudit, len(rows))
	for i, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func (row auditRow) toDomain() (domain.PatronRequestAudit, error) {
	a := domain.PatronRequestAudit{
		ID:               row.ID,
		PatronRequestID:  row.PatronRequestID,
		AuditDate:        row.AuditDate,
		FromStatus:       domain.Status(row.FromStatus),
		ToStatus:         domain.Status(row.ToStatus),
		BriefDescription: row.BriefDescription,
	}
	if len(row.AuditData) > 0 {
		data := make(map[string]any)
		if err := json.Unmarshal(row.AuditData, &data); err != nil {
			return domain.PatronRequestAudit{}, fmt.Errorf("%s %s unmarshal audit data: %w", table, row.ID, err)
		}
		a.AuditData = data
	}
	return a, nil
}
