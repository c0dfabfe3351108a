package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedHostLms creates a dummy host system with a unique code.
func SeedHostLms(t *testing.T, pool *pgxpool.Pool) domain.HostLms {
	t.Helper()

	suffix := uniqueSuffix()
	host := domain.HostLms{
		ID:                  uuid.New(),
		Code:                "HOST-" + suffix,
		Name:                "Test Host " + suffix,
		ClientType:          domain.HostLmsClientDummy,
		ItemStatusOverrides: map[string]string{},
		HoldStatusOverrides: map[string]string{},
		ClientConfig:        map[string]string{},
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO host_lms (id, code, name, client_type) VALUES ($1, $2, $3, $4)`,
		host.ID, host.Code, host.Name, string(host.ClientType),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedHostLms: %v", err)
	}
	return host
}

// SeedAgency creates an agency served by hostLmsCode.
func SeedAgency(t *testing.T, pool *pgxpool.Pool, hostLmsCode string, priority int) domain.Agency {
	t.Helper()

	suffix := uniqueSuffix()
	agency := domain.Agency{
		ID:          uuid.New(),
		Code:        "AG-" + suffix,
		Name:        "Test Agency " + suffix,
		HostLmsCode: hostLmsCode,
		Priority:    priority,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO agency (id, code, name, host_lms_code, priority) VALUES ($1, $2, $3, $4, $5)`,
		agency.ID, agency.Code, agency.Name, agency.HostLmsCode, agency.Priority,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAgency: %v", err)
	}
	return agency
}

// SeedLocation creates a pickup location at hostLmsCode, optionally owned by agencyCode.
func SeedLocation(t *testing.T, pool *pgxpool.Pool, hostLmsCode string, agencyCode *string) domain.Location {
	t.Helper()

	suffix := uniqueSuffix()
	loc := domain.Location{
		ID:          uuid.New(),
		Code:        "LOC-" + suffix,
		Name:        "Test Location " + suffix,
		AgencyCode:  agencyCode,
		HostLmsCode: hostLmsCode,
		IsPickup:    true,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO location (id, code, name, agency_code, host_lms_code, is_pickup) VALUES ($1, $2, $3, $4, $5, $6)`,
		loc.ID, loc.Code, loc.Name, loc.AgencyCode, loc.HostLmsCode, loc.IsPickup,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLocation: %v", err)
	}
	return loc
}

// SeedPatron creates a patron with a home identity at hostLmsCode.
func SeedPatron(t *testing.T, pool *pgxpool.Pool, hostLmsCode string) (domain.Patron, domain.PatronIdentity) {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	patron := domain.Patron{
		ID:              uuid.New(),
		HomeLibraryCode: "HOME-" + suffix,
		DateCreated:     now,
		DateUpdated:     now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO patron (id, home_library_code, date_created, date_updated) VALUES ($1, $2, $3, $4)`,
		patron.ID, patron.HomeLibraryCode, patron.DateCreated, patron.DateUpdated,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPatron insert patron: %v", err)
	}

	identity := domain.PatronIdentity{
		ID:             uuid.New(),
		PatronID:       patron.ID,
		HostLmsCode:    hostLmsCode,
		LocalID:        "P-" + suffix,
		LocalPtype:     domain.Ptr("15"),
		IsHomeIdentity: true,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO patron_identity (id, patron_id, host_lms_code, local_id, local_ptype, is_home_identity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		identity.ID, identity.PatronID, identity.HostLmsCode, identity.LocalID, identity.LocalPtype, identity.IsHomeIdentity,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPatron insert identity: %v", err)
	}

	return patron, identity
}

// SeedCluster creates a cluster with one member record per system code.
func SeedCluster(t *testing.T, pool *pgxpool.Pool, systemCodes ...string) (domain.BibCluster, []domain.BibRecord) {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	cluster := domain.BibCluster{ID: uuid.New(), Title: "Test Title " + suffix}

	if _, err := pool.Exec(ctx, `INSERT INTO bib_cluster (id, title) VALUES ($1, $2)`, cluster.ID, cluster.Title); err != nil {
		t.Fatalf("testhelper: SeedCluster insert cluster: %v", err)
	}

	bibs := make([]domain.BibRecord, 0, len(systemCodes))
	for _, code := range systemCodes {
		bib := domain.BibRecord{
			ID:               uuid.New(),
			ClusterID:        cluster.ID,
			SourceSystemCode: code,
			SourceRecordID:   "B-" + uniqueSuffix(),
			Title:            cluster.Title,
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO bib_record (id, cluster_id, source_system_code, source_record_id, title) VALUES ($1, $2, $3, $4, $5)`,
			bib.ID, bib.ClusterID, bib.SourceSystemCode, bib.SourceRecordID, bib.Title,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedCluster insert bib: %v", err)
		}
		bibs = append(bibs, bib)
	}

	return cluster, bibs
}

// SeedPatronRequest creates a request in SUBMITTED_TO_DCB for identity.
func SeedPatronRequest(t *testing.T, pool *pgxpool.Pool, identity domain.PatronIdentity, clusterID uuid.UUID, pickupCode string) *domain.PatronRequest {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	pr := domain.NewPatronRequest(identity.PatronID, identity.ID, clusterID, pickupCode, identity.HostLmsCode, now)
	pr.Version = 1

	_, err := pool.Exec(context.Background(),
		`INSERT INTO patron_request (id, patron_id, requesting_identity_id, bib_cluster_id, pickup_location_code,
		     pickup_location_context, status, next_expected_status, version, date_created, date_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pr.ID, pr.PatronID, pr.RequestingIdentityID, pr.BibClusterID, pr.PickupLocationCode,
		pr.PickupLocationContext, string(pr.Status), string(pr.NextExpectedStatus), pr.Version, pr.DateCreated, pr.DateUpdated,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPatronRequest: %v", err)
	}
	return pr
}
