package patronrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

const (
	supplierTable = "supplier_request"
	inactiveTable = "inactive_supplier_request"
)

var supplierColumns = []string{
	"id", "patron_request_id", "host_lms_code", "resolved_agency_code",
	"local_item_id", "local_bib_id", "local_item_barcode", "local_item_location_code",
	"local_item_type", "canonical_item_type", "local_item_status",
	"local_id", "local_status", "virtual_identity_id", "is_active",
	"date_created", "date_updated",
}

type supplierRow struct {
	ID                    uuid.UUID  `db:"id"`
	PatronRequestID       uuid.UUID  `db:"patron_request_id"`
	HostLmsCode           string     `db:"host_lms_code"`
	ResolvedAgencyCode    string     `db:"resolved_agency_code"`
	LocalItemID           string     `db:"local_item_id"`
	LocalBibID            string     `db:"local_bib_id"`
	LocalItemBarcode      string     `db:"local_item_barcode"`
	LocalItemLocationCode string     `db:"local_item_location_code"`
	LocalItemType         string     `db:"local_item_type"`
	CanonicalItemType     string     `db:"canonical_item_type"`
	LocalItemStatus       *string    `db:"local_item_status"`
	LocalID               *string    `db:"local_id"`
	LocalStatus           *string    `db:"local_status"`
	VirtualIdentityID     *uuid.UUID `db:"virtual_identity_id"`
	IsActive              bool       `db:"is_active"`
	DateCreated           time.Time  `db:"date_created"`
	DateUpdated           time.Time  `db:"date_updated"`
}

func (r supplierRow) toDomain() *domain.SupplierRequest {
	return &domain.SupplierRequest{
		ID:                    r.ID,
		PatronRequestID:       r.PatronRequestID,
		HostLmsCode:           r.HostLmsCode,
		ResolvedAgencyCode:    r.ResolvedAgencyCode,
		LocalItemID:           r.LocalItemID,
		LocalBibID:            r.LocalBibID,
		LocalItemBarcode:      r.LocalItemBarcode,
		LocalItemLocationCode: r.LocalItemLocationCode,
		LocalItemType:         r.LocalItemType,
		CanonicalItemType:     r.CanonicalItemType,
		LocalItemStatus:       r.LocalItemStatus,
		LocalID:               r.LocalID,
		LocalStatus:           r.LocalStatus,
		VirtualIdentityID:     r.VirtualIdentityID,
		IsActive:              r.IsActive,
		DateCreated:           r.DateCreated,
		DateUpdated:           r.DateUpdated,
	}
}

// CreateSupplierRequest inserts sr.
func (r *Repo) CreateSupplierRequest(ctx context.Context, sr *domain.SupplierRequest) error {
	query := postgres.Builder().
		Insert(supplierTable).
		Columns(supplierColumns...).
		Values(
			sr.ID, sr.PatronRequestID, sr.HostLmsCode, sr.ResolvedAgencyCode,
			sr.LocalItemID, sr.LocalBibID, sr.LocalItemBarcode, sr.LocalItemLocationCode,
			sr.LocalItemType, sr.CanonicalItemType, sr.LocalItemStatus,
			sr.LocalID, sr.LocalStatus, sr.VirtualIdentityID, sr.IsActive,
			sr.DateCreated, sr.DateUpdated,
		)
	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, supplierTable, sr.ID)
	}
	return nil
}

// UpdateSupplierRequest rewrites every mutable column of sr.
func (r *Repo) UpdateSupplierRequest(ctx context.Context, sr *domain.SupplierRequest) error {
	sr.DateUpdated = time.Now().UTC()
	query := postgres.Builder().
		Update(supplierTable).
		SetMap(map[string]any{
			"host_lms_code":            sr.HostLmsCode,
			"resolved_agency_code":     sr.ResolvedAgencyCode,
			"local_item_id":            sr.LocalItemID,
			"local_bib_id":             sr.LocalBibID,
			"local_item_barcode":       sr.LocalItemBarcode,
			"local_item_location_code": sr.LocalItemLocationCode,
			"local_item_type":          sr.LocalItemType,
			"canonical_item_type":      sr.CanonicalItemType,
			"local_item_status":        sr.LocalItemStatus,
			"local_id":                 sr.LocalID,
			"local_status":             sr.LocalStatus,
			"virtual_identity_id":      sr.VirtualIdentityID,
			"is_active":                sr.IsActive,
			"date_updated":             sr.DateUpdated,
		}).
		Where(squirrel.Eq{"id": sr.ID})

	n, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query)
	if err != nil {
		return postgres.MapError(err, supplierTable, sr.ID)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", supplierTable, sr.ID, domain.ErrNotFound)
	}
	return nil
}

// GetActiveSupplierRequest returns the active supplier request of a patron request.
func (r *Repo) GetActiveSupplierRequest(ctx context.Context, patronRequestID uuid.UUID) (*domain.SupplierRequest, error) {
	var row supplierRow
	query := postgres.Builder().
		Select(supplierColumns...).
		From(supplierTable).
		Where(squirrel.Eq{"patron_request_id": patronRequestID, "is_active": true})
	if err := postgres.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query); err != nil {
		return nil, postgres.MapError(err, "active "+supplierTable+" for patron_request", patronRequestID)
	}
	return row.toDomain(), nil
}

// ListSupplierRequests returns every supplier request of a patron request, oldest first.
func (r *Repo) ListSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]*domain.SupplierRequest, error) {
	var rows []supplierRow
	query := postgres.Builder().
		Select(supplierColumns...).
		From(supplierTable).
		Where(squirrel.Eq{"patron_request_id": patronRequestID}).
		OrderBy("date_created", "id")
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list supplier requests: %w", err)
	}
	out := make([]*domain.SupplierRequest, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// CreateInactiveSupplierRequest archives a superseded item reference.
func (r *Repo) CreateInactiveSupplierRequest(ctx context.Context, isr domain.InactiveSupplierRequest) error {
	query := postgres.Builder().
		Insert(inactiveTable).
		Columns(
			"id", "patron_request_id", "supplier_request_id", "host_lms_code",
			"local_item_id", "local_bib_id", "local_item_barcode", "local_item_location_code",
			"local_id", "local_status", "reason", "date_created",
		).
		Values(
			isr.ID, isr.PatronRequestID, isr.SupplierRequestID, isr.HostLmsCode,
			isr.LocalItemID, isr.LocalBibID, isr.LocalItemBarcode, isr.LocalItemLocationCode,
			isr.LocalID, isr.LocalStatus, isr.Reason, isr.DateCreated,
		)
	if _, err := postgres.Exec(ctx, postgres.QuerierFromCtx(ctx, r.pool), query); err != nil {
		return postgres.MapError(err, inactiveTable, isr.ID)
	}
	return nil
}

// ListInactiveSupplierRequests returns archived item references, oldest first.
func (r *Repo) ListInactiveSupplierRequests(ctx context.Context, patronRequestID uuid.UUID) ([]domain.InactiveSupplierRequest, error) {
	var rows []struct {
		ID                    uuid.UUID `db:"id"`
		PatronRequestID       uuid.UUID `db:"patron_request_id"`
		SupplierRequestID     uuid.UUID `db:"supplier_request_id"`
		HostLmsCode           string    `db:"host_lms_code"`
		LocalItemID           string    `db:"local_item_id"`
		LocalBibID            string    `db:"local_bib_id"`
		LocalItemBarcode      string    `db:"local_item_barcode"`
		LocalItemLocationCode string    `db:"local_item_location_code"`
		LocalID               *string   `db:"local_id"`
		LocalStatus           *string   `db:"local_status"`
		Reason                string    `db:"reason"`
		DateCreated           time.Time `db:"date_created"`
	}
	query := postgres.Builder().
		Select(
			"id", "patron_request_id", "supplier_request_id", "host_lms_code",
			"local_item_id", "local_bib_id", "local_item_barcode", "local_item_location_code",
			"local_id", "local_status", "reason", "date_created",
		).
		From(inactiveTable).
		Where(squirrel.Eq{"patron_request_id": patronRequestID}).
		OrderBy("date_created", "id")
	if err := postgres.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query); err != nil {
		return nil, fmt.Errorf("list inactive supplier requests: %w", err)
	}
	out := make([]domain.InactiveSupplierRequest, len(rows))
	for i, row := range rows {
		out[i] = domain.InactiveSupplierRequest(row)
	}
	return out, nil
}
