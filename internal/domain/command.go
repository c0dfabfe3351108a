package domain

import (
	"strings"

	"github.com/google/uuid"
)

// PlacePatronRequestCommand is the inbound request to place a loan.
type PlacePatronRequestCommand struct {
	Requestor      Requestor
	Citation       Citation
	PickupLocation PickupLocation
	Item           *RequestedItem
	Description    *string
}

// Requestor identifies the patron at their home system.
type Requestor struct {
	LocalID         string
	LocalSystemCode string
	HomeLibraryCode string
}

// Citation references the clustered bibliographic record.
type Citation struct {
	BibClusterID     uuid.UUID
	VolumeDesignator *string
}

// PickupLocation identifies where the patron collects the item.
type PickupLocation struct {
	Code    string
	Context string
}

// RequestedItem pins resolution to one specific item.
type RequestedItem struct {
	LocalID         string
	LocalSystemCode string
	AgencyCode      string
}

// Validate checks all fields and collects all errors.
func (c PlacePatronRequestCommand) Validate() error {
	var errs []FieldError

	if strings.TrimSpace(c.Requestor.LocalID) == "" {
		errs = append(errs, FieldError{Field: "requestor.localId", Message: "required"})
	}
	if strings.TrimSpace(c.Requestor.LocalSystemCode) == "" {
		errs = append(errs, FieldError{Field: "requestor.localSystemCode", Message: "required"})
	}
	if c.Citation.BibClusterID == uuid.Nil {
		errs = append(errs, FieldError{Field: "citation.bibClusterId", Message: "required"})
	}
	if strings.TrimSpace(c.PickupLocation.Code) == "" {
		errs = append(errs, FieldError{Field: "pickupLocation.code", Message: "required"})
	}
	if c.Item != nil {
		if strings.TrimSpace(c.Item.LocalID) == "" {
			errs = append(errs, FieldError{Field: "item.localId", Message: "required"})
		}
		if strings.TrimSpace(c.Item.LocalSystemCode) == "" {
			errs = append(errs, FieldError{Field: "item.localSystemCode", Message: "required"})
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PickupContext returns the pickup location context, defaulting to the
// requesting system.
func (c PlacePatronRequestCommand) PickupContext() string {
	if c.PickupLocation.Context != "" {
		return c.PickupLocation.Context
	}
	return c.Requestor.LocalSystemCode
}
