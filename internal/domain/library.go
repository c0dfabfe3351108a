package domain

import "github.com/google/uuid"

// HostLmsClientType selects the adapter implementation for a host system.
type HostLmsClientType string

const (
	HostLmsClientHTTP  HostLmsClientType = "http"
	HostLmsClientDummy HostLmsClientType = "dummy"
)

// HostLms is one independently operated library system.
type HostLms struct {
	ID         uuid.UUID
	Code       string
	Name       string
	ClientType HostLmsClientType
	BaseURL    string

	// Inbound local→canonical status overrides on top of the default table.
	ItemStatusOverrides map[string]string
	HoldStatusOverrides map[string]string

	ClientConfig map[string]string
}

// Agency is a lending/borrowing library served by one host system.
type Agency struct {
	ID          uuid.UUID
	Code        string
	Name        string
	HostLmsCode string
	// Priority orders candidate items during resolution; lower wins.
	Priority int
}

// Location is a shelving or pickup location.
type Location struct {
	ID          uuid.UUID
	Code        string
	Name        string
	AgencyCode  *string
	HostLmsCode string
	IsPickup    bool
}
