package domain

import "github.com/google/uuid"

// BibCluster is a merged bibliographic description spanning several source
// systems' records for the same work.
type BibCluster struct {
	ID    uuid.UUID
	Title string
}

// BibRecord is one member record of a cluster, owned by a host system.
type BibRecord struct {
	ID               uuid.UUID
	ClusterID        uuid.UUID
	SourceSystemCode string
	SourceRecordID   string
	Title            string
}
