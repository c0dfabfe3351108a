// Package ils defines the capability contract every host library system
// adapter satisfies, plus the per-host registry and status tables the engine
// uses to talk to them.
package ils

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// RecordType is the kind of record a hold targets.
type RecordType string

const (
	RecordTypeItem RecordType = "ITEM"
	RecordTypeBib  RecordType = "BIB"
)

// PlaceHoldCommand describes a hold to place at a host system.
type PlaceHoldCommand struct {
	PatronLocalID   string
	RecordType      RecordType
	RecordNumber    string
	PickupLocation  string
	Note            string
	PatronRequestID uuid.UUID
}

// LocalRequest identifies a hold as created by the host system.
type LocalRequest struct {
	LocalID     string
	LocalStatus string
}

// Hold is a hold as currently reported by the host system.
type Hold struct {
	LocalID     string
	LocalStatus string
	// ItemID is the item the hold currently targets, empty for title-level holds.
	ItemID string
	// Barcode of the targeted item, when the host reports one.
	Barcode string
}

// Patron is a patron record at a host system.
type Patron struct {
	LocalID              string
	LocalPatronType      string
	LocalBarcode         string
	LocalHomeLibraryCode string
	LocalNames           []string
	// UniqueIDs identify virtual patrons created on behalf of another system.
	UniqueIDs []string
	Blocked   bool
}

// Bib is the bibliographic stub created at a host system to anchor a virtual item.
type Bib struct {
	Title  string
	Author string
}

// Item is an item record at a host system. Status is the local vocabulary;
// callers translate it through the host's StatusTable.
type Item struct {
	LocalID       string
	BibID         string
	Barcode       string
	CallNumber    string
	LocationCode  string
	LocalItemType string
	Status        string
	HoldCount     int
	Suppressed    bool
	DueDate       *time.Time
	// AgencyCode is set when the host itself reports the owning agency.
	AgencyCode string
}

// CreateItemCommand describes a virtual item to create at a host system.
type CreateItemCommand struct {
	PatronRequestID   uuid.UUID
	BibID             string
	LocationCode      string
	Barcode           string
	CanonicalItemType string
}

// CreatedItem identifies an item as created by the host system.
type CreatedItem struct {
	LocalID     string
	LocalStatus string
}

// Client is the capability contract of one host system. Every method must
// report failures as *Error so callers can tell not-found, transient and
// fatal conditions apart.
type Client interface {
	HostLms() domain.HostLms

	PlaceHoldRequest(ctx context.Context, cmd PlaceHoldCommand) (LocalRequest, error)
	GetHold(ctx context.Context, holdID string) (Hold, error)

	GetPatronByLocalID(ctx context.Context, localID string) (Patron, error)
	FindVirtualPatron(ctx context.Context, uniqueID string) (Patron, error)
	CreatePatron(ctx context.Context, patron Patron) (string, error)
	UpdatePatron(ctx context.Context, localID, patronType string) (Patron, error)
	PatronAuth(ctx context.Context, profile, principal, secret string) (Patron, error)

	CreateBib(ctx context.Context, bib Bib) (string, error)
	CreateItem(ctx context.Context, cmd CreateItemCommand) (CreatedItem, error)
	GetItems(ctx context.Context, bibID string) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (Item, error)

	// Best-effort operations. Adapters that cannot support them return nil.
	UpdateItemStatus(ctx context.Context, itemID string, status domain.ItemStatus) error
	CheckOutItemToPatron(ctx context.Context, itemID, patronBarcode string) error
	DeleteItem(ctx context.Context, itemID string) error
	DeleteBib(ctx context.Context, bibID string) error
}
