package domain

import "time"

// Lease is a held cluster-wide lock. Token identifies this holder so that a
// release never frees a lock taken over by someone else.
type Lease struct {
	Name       string
	Token      string
	AcquiredAt time.Time
}
