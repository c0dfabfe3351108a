package patronrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

type requestRow struct {
	ID                         uuid.UUID `db:"id"`
	PatronID                   uuid.UUID `db:"patron_id"`
	RequestingIdentityID       uuid.UUID `db:"requesting_identity_id"`
	BibClusterID               uuid.UUID `db:"bib_cluster_id"`
	RequestedVolumeDesignation *string   `db:"requested_volume_designation"`
	PickupLocationCode         string    `db:"pickup_location_code"`
	PickupLocationContext      string    `db:"pickup_location_context"`
	PickupAgencyCode           string    `db:"pickup_agency_code"`
	BorrowingAgencyCode        string    `db:"borrowing_agency_code"`
	RequestedItemID            *string   `db:"requested_item_id"`
	RequestedItemSystemCode    *string   `db:"requested_item_system_code"`
	RequestedItemAgencyCode    *string   `db:"requested_item_agency_code"`
	ActiveWorkflow             string    `db:"active_workflow"`
	Status                     string    `db:"status"`
	PreviousStatus             string    `db:"previous_status"`
	NextExpectedStatus         string    `db:"next_expected_status"`
	ErrorMessage               *string   `db:"error_message"`
	LocalRequestID             *string   `db:"local_request_id"`
	LocalRequestStatus         *string   `db:"local_request_status"`
	LocalItemID                *string   `db:"local_item_id"`
	LocalItemStatus            *string   `db:"local_item_status"`
	LocalBibID                 *string   `db:"local_bib_id"`
	PickupRequestID            *string   `db:"pickup_request_id"`
	PickupRequestStatus        *string   `db:"pickup_request_status"`
	PickupItemID               *string   `db:"pickup_item_id"`
	PickupItemStatus           *string   `db:"pickup_item_status"`
	PickupBibID                *string   `db:"pickup_bib_id"`
	Version                    int       `db:"version"`
	DateCreated                time.Time `db:"date_created"`
	DateUpdated                time.Time `db:"date_updated"`
}

// values returns the row's values in the order of columns.
func (r requestRow) values() []any {
	return []any{
		r.ID, r.PatronID, r.RequestingIdentityID, r.BibClusterID, r.RequestedVolumeDesignation,
		r.PickupLocationCode, r.PickupLocationContext, r.PickupAgencyCode, r.BorrowingAgencyCode,
		r.RequestedItemID, r.RequestedItemSystemCode, r.RequestedItemAgencyCode,
		r.ActiveWorkflow, r.Status, r.PreviousStatus, r.NextExpectedStatus, r.ErrorMessage,
		r.LocalRequestID, r.LocalRequestStatus, r.LocalItemID, r.LocalItemStatus, r.LocalBibID,
		r.PickupRequestID, r.PickupRequestStatus, r.PickupItemID, r.PickupItemStatus, r.PickupBibID,
		r.Version, r.DateCreated, r.DateUpdated,
	}
}

func fromDomain(pr *domain.PatronRequest) requestRow {
	return requestRow{
		ID:                         pr.ID,
		PatronID:                   pr.PatronID,
		RequestingIdentityID:       pr.RequestingIdentityID,
		BibClusterID:               pr.BibClusterID,
		RequestedVolumeDesignation: pr.RequestedVolumeDesignation,
		PickupLocationCode:         pr.PickupLocationCode,
		PickupLocationContext:      pr.PickupLocationContext,
		PickupAgencyCode:           pr.PickupAgencyCode,
		BorrowingAgencyCode:        pr.BorrowingAgencyCode,
		RequestedItemID:            pr.RequestedItemID,
		RequestedItemSystemCode:    pr.RequestedItemSystemCode,
		RequestedItemAgencyCode:    pr.RequestedItemAgencyCode,
		ActiveWorkflow:             string(pr.ActiveWorkflow),
		Status:                     string(pr.Status),
		PreviousStatus:             string(pr.PreviousStatus),
		NextExpectedStatus:         string(pr.NextExpectedStatus),
		ErrorMessage:               pr.ErrorMessage,
		LocalRequestID:             pr.LocalRequestID,
		LocalRequestStatus:         pr.LocalRequestStatus,
		LocalItemID:                pr.LocalItemID,
		LocalItemStatus:            pr.LocalItemStatus,
		LocalBibID:                 pr.LocalBibID,
		PickupRequestID:            pr.PickupRequestID,
		PickupRequestStatus:        pr.PickupRequestStatus,
		PickupItemID:               pr.PickupItemID,
		PickupItemStatus:           pr.PickupItemStatus,
		PickupBibID:                pr.PickupBibID,
		Version:                    pr.Version,
		DateCreated:                pr.DateCreated,
		DateUpdated:                pr.DateUpdated,
	}
}

func (r requestRow) toDomain() *domain.PatronRequest {
	return &domain.PatronRequest{
		ID:                         r.ID,
		PatronID:                   r.PatronID,
		RequestingIdentityID:       r.RequestingIdentityID,
		BibClusterID:               r.BibClusterID,
		RequestedVolumeDesignation: r.RequestedVolumeDesignation,
		PickupLocationCode:         r.PickupLocationCode,
		PickupLocationContext:      r.PickupLocationContext,
		PickupAgencyCode:           r.PickupAgencyCode,
		BorrowingAgencyCode:        r.BorrowingAgencyCode,
		RequestedItemID:            r.RequestedItemID,
		RequestedItemSystemCode:    r.RequestedItemSystemCode,
		RequestedItemAgencyCode:    r.RequestedItemAgencyCode,
		ActiveWorkflow:             domain.Workflow(r.ActiveWorkflow),
		Status:                     domain.Status(r.Status),
		PreviousStatus:             domain.Status(r.PreviousStatus),
		NextExpectedStatus:         domain.Status(r.NextExpectedStatus),
		ErrorMessage:               r.ErrorMessage,
		LocalRequestID:             r.LocalRequestID,
		LocalRequestStatus:         r.LocalRequestStatus,
		LocalItemID:                r.LocalItemID,
		LocalItemStatus:            r.LocalItemStatus,
		LocalBibID:                 r.LocalBibID,
		PickupRequestID:            r.PickupRequestID,
		PickupRequestStatus:        r.PickupRequestStatus,
		PickupItemID:               r.PickupItemID,
		PickupItemStatus:           r.PickupItemStatus,
		PickupBibID:                r.PickupBibID,
		Version:                    r.Version,
		DateCreated:                r.DateCreated,
		DateUpdated:                r.DateUpdated,
	}
}
