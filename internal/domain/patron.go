package domain

import (
	"time"

	"github.com/google/uuid"
)

// Patron is the consortium-wide patron; each system it is known at holds a
// PatronIdentity.
type Patron struct {
	ID              uuid.UUID
	HomeLibraryCode string
	DateCreated     time.Time
	DateUpdated     time.Time
}

// PatronIdentity is a patron's record at one host system. Non-home
// identities are virtual patrons created at supplying agencies.
type PatronIdentity struct {
	ID                   uuid.UUID
	PatronID             uuid.UUID
	HostLmsCode          string
	LocalID              string
	LocalPtype           *string
	CanonicalPtype       *string
	LocalBarcode         *string
	LocalHomeLibraryCode *string
	ResolvedAgencyCode   *string
	IsHomeIdentity       bool
	LastValidated        *time.Time
}
