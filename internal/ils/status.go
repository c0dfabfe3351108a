package ils

import (
	"strings"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// DefaultItemStatuses is the inbound local→canonical item table shared by
// hosts that do not override it.
var DefaultItemStatuses = map[string]domain.ItemStatus{
	"In":          domain.ItemStatusAvailable,
	"Available":   domain.ItemStatusAvailable,
	"Transferred": domain.ItemStatusTransit,
	"Received":    domain.ItemStatusReceived,
	"Held":        domain.ItemStatusOnHoldShelf,
	"Out":         domain.ItemStatusLoaned,
	"In-Transit":  domain.ItemStatusReturned,
	"Missing":     domain.ItemStatusMissing,
}

// DefaultHoldStatuses is the inbound local→canonical hold table.
var DefaultHoldStatuses = map[string]domain.HoldStatus{
	"0":         domain.HoldStatusPlaced,
	"PLACED":    domain.HoldStatusPlaced,
	"CONFIRMED": domain.HoldStatusConfirmed,
	"TRANSIT":   domain.HoldStatusTransit,
	"READY":     domain.HoldStatusReady,
	"Held":      domain.HoldStatusReady,
	"CANCELLED": domain.HoldStatusCancelled,
	"MISSING":   domain.HoldStatusMissing,
}

// StatusTable translates one host's local status vocabulary to canonical
// statuses. Raw vendor strings are only ever interpreted here.
type StatusTable struct {
	items map[string]domain.ItemStatus
	holds map[string]domain.HoldStatus
}

// NewStatusTable builds the table for host: the defaults with the host's
// overrides applied on top. Overrides naming unknown canonical values are ignored.
func NewStatusTable(host domain.HostLms) *StatusTable {
	t := &StatusTable{
		items: make(map[string]domain.ItemStatus, len(DefaultItemStatuses)+len(host.ItemStatusOverrides)),
		holds: make(map[string]domain.HoldStatus, len(DefaultHoldStatuses)+len(host.HoldStatusOverrides)),
	}
	for k, v := range DefaultItemStatuses {
		t.items[k] = v
	}
	for k, v := range DefaultHoldStatuses {
		t.holds[k] = v
	}
	for k, v := range host.ItemStatusOverrides {
		if s := domain.ItemStatus(strings.ToUpper(v)); isKnownItemStatus(s) {
			t.items[k] = s
		}
	}
	for k, v := range host.HoldStatusOverrides {
		if s := domain.HoldStatus(strings.ToUpper(v)); isKnownHoldStatus(s) {
			t.holds[k] = s
		}
	}
	return t
}

// MapItemStatus returns the canonical status for a local item status. The
// second result is false for unmapped values.
func (t *StatusTable) MapItemStatus(local string) (domain.ItemStatus, bool) {
	s, ok := t.items[local]
	return s, ok
}

// MapHoldStatus returns the canonical status for a local hold status.
func (t *StatusTable) MapHoldStatus(local string) (domain.HoldStatus, bool) {
	s, ok := t.holds[local]
	return s, ok
}

// LocalItemStatus returns a local value mapping to canonical s, used when
// writing a status back to the host. Ties resolve to the lexically first key.
func (t *StatusTable) LocalItemStatus(s domain.ItemStatus) (string, bool) {
	best, found := "", false
	for k, v := range t.items {
		if v == s && (!found || k < best) {
			best, found = k, true
		}
	}
	return best, found
}

func isKnownItemStatus(s domain.ItemStatus) bool {
	switch s {
	case domain.ItemStatusAvailable, domain.ItemStatusTransit, domain.ItemStatusReceived,
		domain.ItemStatusOnHoldShelf, domain.ItemStatusLoaned, domain.ItemStatusReturned,
		domain.ItemStatusMissing, domain.ItemStatusUnavailable:
		return true
	}
	return false
}

func isKnownHoldStatus(s domain.HoldStatus) bool {
	switch s {
	case domain.HoldStatusPlaced, domain.HoldStatusConfirmed, domain.HoldStatusTransit,
		domain.HoldStatusReady, domain.HoldStatusCancelled, domain.HoldStatusMissing:
		return true
	}
	return false
}
