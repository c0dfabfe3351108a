package cluster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/cluster"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/testhelper"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

func TestRepo_ClusterAndBibs(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := cluster.New(pool)
	ctx := context.Background()

	c := domain.BibCluster{ID: uuid.New(), Title: "Moby Dick"}
	if err := repo.CreateCluster(ctx, c); err != nil {
		t.Fatalf("CreateCluster: %v", err)
	}
	for _, sys := range []string{"ZZZ", "AAA"} {
		if err := repo.AddBib(ctx, domain.BibRecord{
			ID: uuid.New(), ClusterID: c.ID, SourceSystemCode: sys, SourceRecordID: uuid.NewString(), Title: c.Title,
		}); err != nil {
			t.Fatalf("AddBib: %v", err)
		}
	}

	got, err := repo.GetCluster(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCluster: %v", err)
	}
	if got != c {
		t.Errorf("got %+v, want %+v", got, c)
	}

	bibs, err := repo.ListBibs(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListBibs: %v", err)
	}
	if len(bibs) != 2 || bibs[0].SourceSystemCode != "AAA" {
		t.Errorf("ListBibs: got %+v", bibs)
	}
}

func TestRepo_EmptyAndMissing(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := cluster.New(pool)
	ctx := context.Background()

	if _, err := repo.GetCluster(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	empty, _ := testhelper.SeedCluster(t, pool)
	bibs, err := repo.ListBibs(ctx, empty.ID)
	if err != nil {
		t.Fatalf("ListBibs: %v", err)
	}
	if len(bibs) != 0 {
		t.Errorf("expected no bibs, got %d", len(bibs))
	}

	err = repo.AddBib(ctx, domain.BibRecord{ID: uuid.New(), ClusterID: uuid.New(), SourceSystemCode: "X", SourceRecordID: "1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown cluster: expected ErrNotFound, got %v", err)
	}
}
