package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/patronrequest"
)

type patronRequestService interface {
	Place(ctx context.Context, cmd domain.PlacePatronRequestCommand) (*domain.PatronRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	Audits(ctx context.Context, id uuid.UUID) ([]domain.PatronRequestAudit, error)
	Update(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	Rollback(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	SupplierRequests(ctx context.Context, id uuid.UUID) (patronrequest.SupplierHistory, error)
}

// PatronRequestHandler serves the patron request endpoints.
type PatronRequestHandler struct {
	svc patronRequestService
	log *slog.Logger
}

// NewPatronRequestHandler creates a PatronRequestHandler.
func NewPatronRequestHandler(svc patronRequestService, logger *slog.Logger) *PatronRequestHandler {
	return &PatronRequestHandler{svc: svc, log: logger.With("handler", "patron_request")}
}

type placeRequest struct {
	Requestor struct {
		LocalID         string `json:"localId"`
		LocalSystemCode string `json:"localSystemCode"`
		HomeLibraryCode string `json:"homeLibraryCode"`
	} `json:"requestor"`
	Citation struct {
		BibClusterID     uuid.UUID `json:"bibClusterId"`
		VolumeDesignator *string   `json:"volumeDesignator"`
	} `json:"citation"`
	PickupLocation struct {
		Code    string `json:"code"`
		Context string `json:"context"`
	} `json:"pickupLocation"`
	Item *struct {
		LocalID         string `json:"localId"`
		LocalSystemCode string `json:"localSystemCode"`
		AgencyCode      string `json:"agencyCode"`
	} `json:"item"`
	Description *string `json:"description"`
}

func (p placeRequest) toCommand() domain.PlacePatronRequestCommand {
	cmd := domain.PlacePatronRequestCommand{
		Requestor: domain.Requestor{
			LocalID:         p.Requestor.LocalID,
			LocalSystemCode: p.Requestor.LocalSystemCode,
			HomeLibraryCode: p.Requestor.HomeLibraryCode,
		},
		Citation: domain.Citation{
			BibClusterID:     p.Citation.BibClusterID,
			VolumeDesignator: p.Citation.VolumeDesignator,
		},
		PickupLocation: domain.PickupLocation{
			Code:    p.PickupLocation.Code,
			Context: p.PickupLocation.Context,
		},
		Description: p.Description,
	}
	if p.Item != nil {
		cmd.Item = &domain.RequestedItem{
			LocalID:         p.Item.LocalID,
			LocalSystemCode: p.Item.LocalSystemCode,
			AgencyCode:      p.Item.AgencyCode,
		}
	}
	return cmd
}

type patronRequestResponse struct {
	ID                  uuid.UUID `json:"id"`
	PatronID            uuid.UUID `json:"patronId"`
	RequestingIdentity  uuid.UUID `json:"requestingIdentityId"`
	BibClusterID        uuid.UUID `json:"bibClusterId"`
	VolumeDesignation   *string   `json:"requestedVolumeDesignation,omitempty"`
	PickupLocationCode  string    `json:"pickupLocationCode"`
	PickupContext       string    `json:"pickupLocationContext"`
	PickupAgencyCode    string    `json:"pickupAgencyCode,omitempty"`
	BorrowingAgencyCode string    `json:"borrowingAgencyCode,omitempty"`
	ActiveWorkflow      string    `json:"activeWorkflow,omitempty"`
	Status              string    `json:"status"`
	PreviousStatus      string    `json:"previousStatus,omitempty"`
	NextExpectedStatus  string    `json:"nextExpectedStatus,omitempty"`
	ErrorMessage        *string   `json:"errorMessage,omitempty"`
	LocalRequestID      *string   `json:"localRequestId,omitempty"`
	LocalRequestStatus  *string   `json:"localRequestStatus,omitempty"`
	LocalItemID         *string   `json:"localItemId,omitempty"`
	LocalItemStatus     *string   `json:"localItemStatus,omitempty"`
	PickupRequestID     *string   `json:"pickupRequestId,omitempty"`
	PickupRequestStatus *string   `json:"pickupRequestStatus,omitempty"`
	PickupItemID        *string   `json:"pickupItemId,omitempty"`
	PickupItemStatus    *string   `json:"pickupItemStatus,omitempty"`
	DateCreated         time.Time `json:"dateCreated"`
	DateUpdated         time.Time `json:"dateUpdated"`
}

func toPatronRequestResponse(pr *domain.PatronRequest) patronRequestResponse {
	return patronRequestResponse{
		ID:                  pr.ID,
		PatronID:            pr.PatronID,
		RequestingIdentity:  pr.RequestingIdentityID,
		BibClusterID:        pr.BibClusterID,
		VolumeDesignation:   pr.RequestedVolumeDesignation,
		PickupLocationCode:  pr.PickupLocationCode,
		PickupContext:       pr.PickupLocationContext,
		PickupAgencyCode:    pr.PickupAgencyCode,
		BorrowingAgencyCode: pr.BorrowingAgencyCode,
		ActiveWorkflow:      pr.ActiveWorkflow.String(),
		Status:              pr.Status.String(),
		PreviousStatus:      pr.PreviousStatus.String(),
		NextExpectedStatus:  pr.NextExpectedStatus.String(),
		ErrorMessage:        pr.ErrorMessage,
		LocalRequestID:      pr.LocalRequestID,
		LocalRequestStatus:  pr.LocalRequestStatus,
		LocalItemID:         pr.LocalItemID,
		LocalItemStatus:     pr.LocalItemStatus,
		PickupRequestID:     pr.PickupRequestID,
		PickupRequestStatus: pr.PickupRequestStatus,
		PickupItemID:        pr.PickupItemID,
		PickupItemStatus:    pr.PickupItemStatus,
		DateCreated:         pr.DateCreated,
		DateUpdated:         pr.DateUpdated,
	}
}

type auditResponse struct {
	ID               uuid.UUID      `json:"id"`
	AuditDate        time.Time      `json:"auditDate"`
	FromStatus       string         `json:"fromStatus,omitempty"`
	ToStatus         string         `json:"toStatus,omitempty"`
	BriefDescription *string        `json:"briefDescription,omitempty"`
	AuditData        map[string]any `json:"auditData,omitempty"`
}

type supplierRequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	HostLmsCode        string     `json:"hostLmsCode"`
	ResolvedAgencyCode string     `json:"resolvedAgencyCode,omitempty"`
	LocalItemID        string     `json:"localItemId"`
	LocalItemBarcode   string     `json:"localItemBarcode,omitempty"`
	LocalItemLocation  string     `json:"localItemLocationCode,omitempty"`
	LocalItemType      string     `json:"localItemType,omitempty"`
	CanonicalItemType  string     `json:"canonicalItemType,omitempty"`
	LocalItemStatus    *string    `json:"localItemStatus,omitempty"`
	LocalID            *string    `json:"localId,omitempty"`
	LocalStatus        *string    `json:"localStatus,omitempty"`
	VirtualIdentityID  *uuid.UUID `json:"virtualIdentityId,omitempty"`
	IsActive           bool       `json:"isActive"`
	DateCreated        time.Time  `json:"dateCreated"`
}

type inactiveSupplierRequestResponse struct {
	SupplierRequestID uuid.UUID `json:"supplierRequestId"`
	HostLmsCode       string    `json:"hostLmsCode"`
	LocalItemID       string    `json:"localItemId"`
	LocalItemBarcode  string    `json:"localItemBarcode,omitempty"`
	LocalID           *string   `json:"localId,omitempty"`
	LocalStatus       *string   `json:"localStatus,omitempty"`
	Reason            string    `json:"reason"`
	DateCreated       time.Time `json:"dateCreated"`
}

type supplierHistoryResponse struct {
	SupplierRequests []supplierRequestResponse         `json:"supplierRequests"`
	Inactive         []inactiveSupplierRequestResponse `json:"inactiveSupplierRequests"`
}

// Place handles POST /patrons/requests/place.
func (h *PatronRequestHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pr, err := h.svc.Place(r.Context(), req.toCommand())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatronRequestResponse(pr))
}

// Get handles GET /patrons/requests/{id}.
func (h *PatronRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Get)
}

// Update handles POST /patrons/requests/{id}/update.
func (h *PatronRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Update)
}

// Rollback handles POST /patrons/requests/{id}/rollback.
func (h *PatronRequestHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Rollback)
}

// Audits handles GET /patrons/requests/{id}/audits.
func (h *PatronRequestHandler) Audits(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	audits, err := h.svc.Audits(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := make([]auditResponse, 0, len(audits))
	for _, a := range audits {
		resp = append(resp, auditResponse{
			ID:               a.ID,
			AuditDate:        a.AuditDate,
			FromStatus:       a.FromStatus.String(),
			ToStatus:         a.ToStatus.String(),
			BriefDescription: a.BriefDescription,
			AuditData:        a.AuditData,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SupplierRequests handles GET /patrons/requests/{id}/supplier-requests.
func (h *PatronRequestHandler) SupplierRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	history, err := h.svc.SupplierRequests(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := supplierHistoryResponse{
		SupplierRequests: make([]supplierRequestResponse, 0, len(history.SupplierRequests)),
		Inactive:         make([]inactiveSupplierRequestResponse, 0, len(history.Inactive)),
	}
	for _, sr := range history.SupplierRequests {
		resp.SupplierRequests = append(resp.SupplierRequests, supplierRequestResponse{
			ID:                 sr.ID,
			HostLmsCode:        sr.HostLmsCode,
			ResolvedAgencyCode: sr.ResolvedAgencyCode,
			LocalItemID:        sr.LocalItemID,
			LocalItemBarcode:   sr.LocalItemBarcode,
			LocalItemLocation:  sr.LocalItemLocationCode,
			LocalItemType:      sr.LocalItemType,
			CanonicalItemType:  sr.CanonicalItemType,
			LocalItemStatus:    sr.LocalItemStatus,
			LocalID:            sr.LocalID,
			LocalStatus:        sr.LocalStatus,
			VirtualIdentityID:  sr.VirtualIdentityID,
			IsActive:           sr.IsActive,
			DateCreated:        sr.DateCreated,
		})
	}
	for _, isr := range history.Inactive {
		resp.Inactive = append(resp.Inactive, inactiveSupplierRequestResponse{
			SupplierRequestID: isr.SupplierRequestID,
			HostLmsCode:       isr.HostLmsCode,
			LocalItemID:       isr.LocalItemID,
			LocalItemBarcode:  isr.LocalItemBarcode,
			LocalID:           isr.LocalID,
			LocalStatus:       isr.LocalStatus,
			Reason:            isr.Reason,
			DateCreated:       isr.DateCreated,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PatronRequestHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, uuid.UUID) (*domain.PatronRequest, error),
) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	pr, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatronRequestResponse(pr))
}
