package preflight

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

var (
	_ locationRepo = &locationRepoMock{}
	_ requestRepo  = &requestRepoMock{}
	_ mapper       = &mapperMock{}
	_ resolver     = &resolverMock{}
)

type locationRepoMock struct {
	GetLocationFunc        func(ctx context.Context, id uuid.UUID) (domain.Location, error)
	FindLocationByCodeFunc func(ctx context.Context, code, hostLmsCode string) (domain.Location, error)

	calls struct {
		FindLocationByCode []struct{ Code, HostLmsCode string }
	}
	lockFindLocationByCode sync.RWMutex
}

func (mock *locationRepoMock) GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	if mock.GetLocationFunc == nil {
		panic("locationRepoMock.GetLocationFunc: method is nil but locationRepo.GetLocation was just called")
	}
	return mock.GetLocationFunc(ctx, id)
}

func (mock *locationRepoMock) FindLocationByCode(ctx context.Context, code, hostLmsCode string) (domain.Location, error) {
	if mock.FindLocationByCodeFunc == nil {
		panic("locationRepoMock.FindLocationByCodeFunc: method is nil but locationRepo.FindLocationByCode was just called")
	}
	mock.lockFindLocationByCode.Lock()
	mock.calls.FindLocationByCode = append(mock.calls.FindLocationByCode, struct{ Code, HostLmsCode string }{code, hostLmsCode})
	mock.lockFindLocationByCode.Unlock()
	return mock.FindLocationByCodeFunc(ctx, code, hostLmsCode)
}

func (mock *locationRepoMock) FindLocationByCodeCalls() []struct{ Code, HostLmsCode string } {
	mock.lockFindLocationByCode.RLock()
	calls := mock.calls.FindLocationByCode
	mock.lockFindLocationByCode.RUnlock()
	return calls
}

type requestRepoMock struct {
	ExistsRecentFunc func(ctx context.Context, hostLmsCode, localID string, clusterID uuid.UUID, pickupCode string, since time.Time) (bool, error)

	calls struct {
		ExistsRecent []struct {
			HostLmsCode string
			LocalID     string
			ClusterID   uuid.UUID
			PickupCode  string
			Since       time.Time
		}
	}
	lockExistsRecent sync.RWMutex
}

func (mock *requestRepoMock) ExistsRecent(ctx context.Context, hostLmsCode, localID string, clusterID uuid.UUID, pickupCode string, since time.Time) (bool, error) {
	if mock.ExistsRecentFunc == nil {
		panic("requestRepoMock.ExistsRecentFunc: method is nil but requestRepo.ExistsRecent was just called")
	}
	mock.lockExistsRecent.Lock()
	mock.calls.ExistsRecent = append(mock.calls.ExistsRecent, struct {
		HostLmsCode string
		LocalID     string
		ClusterID   uuid.UUID
		PickupCode  string
		Since       time.Time
	}{hostLmsCode, localID, clusterID, pickupCode, since})
	mock.lockExistsRecent.Unlock()
	return mock.ExistsRecentFunc(ctx, hostLmsCode, localID, clusterID, pickupCode, since)
}

func (mock *requestRepoMock) ExistsRecentCalls() []struct {
	HostLmsCode string
	LocalID     string
	ClusterID   uuid.UUID
	PickupCode  string
	Since       time.Time
} {
	mock.lockExistsRecent.RLock()
	calls := mock.calls.ExistsRecent
	mock.lockExistsRecent.RUnlock()
	return calls
}

type mapperMock struct {
	ToCanonicalPatronTypeFunc  func(ctx context.Context, system, localPatronType string) (string, error)
	LocationToAgencyFunc       func(ctx context.Context, system, locationCode string) (string, error)
	PickupLocationToAgencyFunc func(ctx context.Context, pickupContext, locationCode string) (string, error)
}

func (mock *mapperMock) ToCanonicalPatronType(ctx context.Context, system, localPatronType string) (string, error) {
	if mock.ToCanonicalPatronTypeFunc == nil {
		panic("mapperMock.ToCanonicalPatronTypeFunc: method is nil but mapper.ToCanonicalPatronType was just called")
	}
	return mock.ToCanonicalPatronTypeFunc(ctx, system, localPatronType)
}

func (mock *mapperMock) LocationToAgency(ctx context.Context, system, locationCode string) (string, error) {
	if mock.LocationToAgencyFunc == nil {
		panic("mapperMock.LocationToAgencyFunc: method is nil but mapper.LocationToAgency was just called")
	}
	return mock.LocationToAgencyFunc(ctx, system, locationCode)
}

func (mock *mapperMock) PickupLocationToAgency(ctx context.Context, pickupContext, locationCode string) (string, error) {
	if mock.PickupLocationToAgencyFunc == nil {
		panic("mapperMock.PickupLocationToAgencyFunc: method is nil but mapper.PickupLocationToAgency was just called")
	}
	return mock.PickupLocationToAgencyFunc(ctx, pickupContext, locationCode)
}

type resolverMock struct {
	ResolveFunc func(ctx context.Context, p resolution.Parameters) (resolution.Resolution, error)

	calls struct {
		Resolve []struct{ P resolution.Parameters }
	}
	lockResolve sync.RWMutex
}

func (mock *resolverMock) Resolve(ctx context.Context, p resolution.Parameters) (resolution.Resolution, error) {
	if mock.ResolveFunc == nil {
		panic("resolverMock.ResolveFunc: method is nil but resolver.Resolve was just called")
	}
	mock.lockResolve.Lock()
	mock.calls.Resolve = append(mock.calls.Resolve, struct{ P resolution.Parameters }{p})
	mock.lockResolve.Unlock()
	return mock.ResolveFunc(ctx, p)
}

func (mock *resolverMock) ResolveCalls() []struct{ P resolution.Parameters } {
	mock.lockResolve.RLock()
	calls := mock.calls.Resolve
	mock.lockResolve.RUnlock()
	return calls
}
