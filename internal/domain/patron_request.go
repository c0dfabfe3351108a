package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PatronRequest is the aggregate root of one interlibrary loan request.
type PatronRequest struct {
	ID                   uuid.UUID
	PatronID             uuid.UUID
	RequestingIdentityID uuid.UUID

	BibClusterID               uuid.UUID
	RequestedVolumeDesignation *string

	PickupLocationCode    string
	PickupLocationContext string
	PickupAgencyCode      string
	BorrowingAgencyCode   string

	// Explicit item selection carried from the placement command.
	RequestedItemID         *string
	RequestedItemSystemCode *string
	RequestedItemAgencyCode *string

	ActiveWorkflow     Workflow
	Status             Status
	PreviousStatus     Status
	NextExpectedStatus Status
	ErrorMessage       *string

	// Borrowing-side local records (virtual item and hold, or the real item
	// for a local workflow).
	LocalRequestID     *string
	LocalRequestStatus *string
	LocalItemID        *string
	LocalItemStatus    *string
	LocalBibID         *string

	// Pickup-side local records, pickup-anywhere workflow only.
	PickupRequestID     *string
	PickupRequestStatus *string
	PickupItemID        *string
	PickupItemStatus    *string
	PickupBibID         *string

	// Version increments on every successful write; stale writes are rejected.
	Version int

	DateCreated time.Time
	DateUpdated time.Time
}

// NewPatronRequest returns a request in SUBMITTED_TO_DCB.
func NewPatronRequest(patronID, identityID, clusterID uuid.UUID, pickupCode, pickupContext string, now time.Time) *PatronRequest {
	pr := &PatronRequest{
		ID:                    uuid.New(),
		PatronID:              patronID,
		RequestingIdentityID:  identityID,
		BibClusterID:          clusterID,
		PickupLocationCode:    pickupCode,
		PickupLocationContext: pickupContext,
		Status:                StatusSubmittedToDCB,
		DateCreated:           now,
		DateUpdated:           now,
	}
	pr.NextExpectedStatus = NextExpectedStatus(pr.Status, pr.ActiveWorkflow)
	return pr
}

// SetStatus moves the request to s, remembering the prior status and
// re-deriving the expected next status.
func (pr *PatronRequest) SetStatus(s Status) {
	if pr.Status == s {
		return
	}
	pr.PreviousStatus = pr.Status
	pr.Status = s
	pr.NextExpectedStatus = NextExpectedStatus(s, pr.ActiveWorkflow)
}

// SetWorkflow fixes the workflow. It can only be set once.
func (pr *PatronRequest) SetWorkflow(w Workflow) error {
	if pr.ActiveWorkflow != "" && pr.ActiveWorkflow != w {
		return fmt.Errorf("patron request %s: workflow already %s: %w", pr.ID, pr.ActiveWorkflow, ErrConflict)
	}
	pr.ActiveWorkflow = w
	pr.NextExpectedStatus = NextExpectedStatus(pr.Status, w)
	return nil
}

// MarkError moves the request to ERROR with a truncated message.
func (pr *PatronRequest) MarkError(msg string, maxLen int) {
	truncated := TruncateMessage(msg, maxLen)
	pr.SetStatus(StatusError)
	pr.ErrorMessage = &truncated
}

// Rollback restores the status before the last error. It is the only
// supported manual recovery and touches local bookkeeping only.
func (pr *PatronRequest) Rollback() error {
	if pr.Status != StatusError {
		return fmt.Errorf("patron request %s is %s, only %s can be rolled back: %w",
			pr.ID, pr.Status, StatusError, ErrConflict)
	}
	if pr.PreviousStatus == "" || pr.PreviousStatus == StatusError {
		return fmt.Errorf("patron request %s has no status to roll back to: %w", pr.ID, ErrConflict)
	}
	pr.Status = pr.PreviousStatus
	pr.PreviousStatus = StatusError
	pr.ErrorMessage = nil
	pr.NextExpectedStatus = NextExpectedStatus(pr.Status, pr.ActiveWorkflow)
	return nil
}

// Clone returns a shallow copy safe to mutate without touching pr.
func (pr *PatronRequest) Clone() *PatronRequest {
	cp := *pr
	return &cp
}

// SupplierRequest is the request as placed with the supplying agency.
type SupplierRequest struct {
	ID              uuid.UUID
	PatronRequestID uuid.UUID

	HostLmsCode           string
	ResolvedAgencyCode    string
	LocalItemID           string
	LocalBibID            string
	LocalItemBarcode      string
	LocalItemLocationCode string
	LocalItemType         string
	CanonicalItemType     string
	LocalItemStatus       *string

	// Supplier-side hold.
	LocalID     *string
	LocalStatus *string

	VirtualIdentityID *uuid.UUID
	IsActive          bool

	DateCreated time.Time
	DateUpdated time.Time
}

// InactiveSupplierRequest archives a superseded supplier item reference.
type InactiveSupplierRequest struct {
	ID                    uuid.UUID
	PatronRequestID       uuid.UUID
	SupplierRequestID     uuid.UUID
	HostLmsCode           string
	LocalItemID           string
	LocalBibID            string
	LocalItemBarcode      string
	LocalItemLocationCode string
	LocalID               *string
	LocalStatus           *string
	Reason                string
	DateCreated           time.Time
}

// Archive captures the current item reference of sr.
func (sr *SupplierRequest) Archive(reason string, now time.Time) InactiveSupplierRequest {
	return InactiveSupplierRequest{
		ID:                    uuid.New(),
		PatronRequestID:       sr.PatronRequestID,
		SupplierRequestID:     sr.ID,
		HostLmsCode:           sr.HostLmsCode,
		LocalItemID:           sr.LocalItemID,
		LocalBibID:            sr.LocalBibID,
		LocalItemBarcode:      sr.LocalItemBarcode,
		LocalItemLocationCode: sr.LocalItemLocationCode,
		LocalID:               sr.LocalID,
		LocalStatus:           sr.LocalStatus,
		Reason:                reason,
		DateCreated:           now,
	}
}

// PatronRequestAudit is one row per transition attempt.
type PatronRequestAudit struct {
	ID               uuid.UUID
	PatronRequestID  uuid.UUID
	AuditDate        time.Time
	FromStatus       Status
	ToStatus         Status
	BriefDescription *string
	AuditData        map[string]any
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Deref returns *p or the zero value.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
