package domain

// ItemStatus is the canonical status of a physical or virtual item.
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "AVAILABLE"
	ItemStatusTransit     ItemStatus = "TRANSIT"
	ItemStatusReceived    ItemStatus = "RECEIVED"
	ItemStatusOnHoldShelf ItemStatus = "ON_HOLDSHELF"
	ItemStatusLoaned      ItemStatus = "LOANED"
	ItemStatusReturned    ItemStatus = "RETURNED"
	ItemStatusMissing     ItemStatus = "MISSING"
	ItemStatusUnavailable ItemStatus = "UNAVAILABLE"
)

func (s ItemStatus) String() string { return string(s) }

// HoldStatus is the canonical status of a hold at any host system.
type HoldStatus string

const (
	HoldStatusPlaced    HoldStatus = "PLACED"
	HoldStatusConfirmed HoldStatus = "CONFIRMED"
	HoldStatusTransit   HoldStatus = "TRANSIT"
	HoldStatusReady     HoldStatus = "READY"
	HoldStatusCancelled HoldStatus = "CANCELLED"
	HoldStatusMissing   HoldStatus = "MISSING"
)

func (s HoldStatus) String() string { return string(s) }

// IsLive reports whether the hold still stands at the host system.
func (s HoldStatus) IsLive() bool {
	switch s {
	case HoldStatusPlaced, HoldStatusConfirmed, HoldStatusTransit, HoldStatusReady:
		return true
	}
	return false
}
