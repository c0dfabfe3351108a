package resolution

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

var (
	_ clusterRepo = &clusterRepoMock{}
	_ agencyRepo  = &agencyRepoMock{}
	_ itemMapper  = &itemMapperMock{}
)

type clusterRepoMock struct {
	GetClusterFunc func(ctx context.Context, id uuid.UUID) (domain.BibCluster, error)
	ListBibsFunc   func(ctx context.Context, clusterID uuid.UUID) ([]domain.BibRecord, error)

	calls struct {
		GetCluster []struct{ ID uuid.UUID }
		ListBibs   []struct{ ClusterID uuid.UUID }
	}
	lockGetCluster sync.RWMutex
	lockListBibs   sync.RWMutex
}

func (mock *clusterRepoMock) GetCluster(ctx context.Context, id uuid.UUID) (domain.BibCluster, error) {
	if mock.GetClusterFunc == nil {
		panic("clusterRepoMock.GetClusterFunc: method is nil but clusterRepo.GetCluster was just called")
	}
	mock.lockGetCluster.Lock()
	mock.calls.GetCluster = append(mock.calls.GetCluster, struct{ ID uuid.UUID }{id})
	mock.lockGetCluster.Unlock()
	return mock.GetClusterFunc(ctx, id)
}

func (mock *clusterRepoMock) ListBibs(ctx context.Context, clusterID uuid.UUID) ([]domain.BibRecord, error) {
	if mock.ListBibsFunc == nil {
		panic("clusterRepoMock.ListBibsFunc: method is nil but clusterRepo.ListBibs was just called")
	}
	mock.lockListBibs.Lock()
	mock.calls.ListBibs = append(mock.calls.ListBibs, struct{ ClusterID uuid.UUID }{clusterID})
	mock.lockListBibs.Unlock()
	return mock.ListBibsFunc(ctx, clusterID)
}

func (mock *clusterRepoMock) ListBibsCalls() []struct{ ClusterID uuid.UUID } {
	mock.lockListBibs.RLock()
	calls := mock.calls.ListBibs
	mock.lockListBibs.RUnlock()
	return calls
}

type agencyRepoMock struct {
	GetAgencyFunc func(ctx context.Context, code string) (domain.Agency, error)

	calls struct {
		GetAgency []struct{ Code string }
	}
	lockGetAgency sync.RWMutex
}

func (mock *agencyRepoMock) GetAgency(ctx context.Context, code string) (domain.Agency, error) {
	if mock.GetAgencyFunc == nil {
		panic("agencyRepoMock.GetAgencyFunc: method is nil but agencyRepo.GetAgency was just called")
	}
	mock.lockGetAgency.Lock()
	mock.calls.GetAgency = append(mock.calls.GetAgency, struct{ Code string }{code})
	mock.lockGetAgency.Unlock()
	return mock.GetAgencyFunc(ctx, code)
}

type itemMapperMock struct {
	IsLoanableFunc       func(ctx context.Context, system, localItemType string) (bool, string, error)
	LocationToAgencyFunc func(ctx context.Context, system, locationCode string) (string, error)

	calls struct {
		IsLoanable       []struct{ System, LocalItemType string }
		LocationToAgency []struct{ System, LocationCode string }
	}
	lockIsLoanable       sync.RWMutex
	lockLocationToAgency sync.RWMutex
}

func (mock *itemMapperMock) IsLoanable(ctx context.Context, system, localItemType string) (bool, string, error) {
	if mock.IsLoanableFunc == nil {
		panic("itemMapperMock.IsLoanableFunc: method is nil but itemMapper.IsLoanable was just called")
	}
	mock.lockIsLoanable.Lock()
	mock.calls.IsLoanable = append(mock.calls.IsLoanable, struct{ System, LocalItemType string }{system, localItemType})
	mock.lockIsLoanable.Unlock()
	return mock.IsLoanableFunc(ctx, system, localItemType)
}

func (mock *itemMapperMock) LocationToAgency(ctx context.Context, system, locationCode string) (string, error) {
	if mock.LocationToAgencyFunc == nil {
		panic("itemMapperMock.LocationToAgencyFunc: method is nil but itemMapper.LocationToAgency was just called")
	}
	mock.lockLocationToAgency.Lock()
	mock.calls.LocationToAgency = append(mock.calls.LocationToAgency, struct{ System, LocationCode string }{system, locationCode})
	mock.lockLocationToAgency.Unlock()
	return mock.LocationToAgencyFunc(ctx, system, locationCode)
}
