package mapping

import (
	"context"
	"sync"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

var _ mappingRepo = &mappingRepoMock{}

type mappingRepoMock struct {
	FindValueFunc   func(ctx context.Context, fromCategory, fromContext, fromValue, toCategory, toContext string) (domain.ReferenceValueMapping, error)
	UpsertValueFunc func(ctx context.Context, m domain.ReferenceValueMapping) error
	FindRangeFunc   func(ctx context.Context, rangeContext, domainName, targetContext string, value int64) (domain.NumericRangeMapping, error)
	InsertRangeFunc func(ctx context.Context, m domain.NumericRangeMapping) error

	calls struct {
		FindValue []struct {
			FromCategory, FromContext, FromValue, ToCategory, ToContext string
		}
		UpsertValue []struct{ M domain.ReferenceValueMapping }
		FindRange   []struct {
			RangeContext, DomainName, TargetContext string
			Value                                   int64
		}
		InsertRange []struct{ M domain.NumericRangeMapping }
	}
	lockFindValue   sync.RWMutex
	lockUpsertValue sync.RWMutex
	lockFindRange   sync.RWMutex
	lockInsertRange sync.RWMutex
}

func (mock *mappingRepoMock) FindValue(ctx context.Context, fromCategory, fromContext, fromValue, toCategory, toContext string) (domain.ReferenceValueMapping, error) {
	if mock.FindValueFunc == nil {
		panic("mappingRepoMock.FindValueFunc: method is nil but mappingRepo.FindValue was just called")
	}
	mock.lockFindValue.Lock()
	mock.calls.FindValue = append(mock.calls.FindValue, struct {
		FromCategory, FromContext, FromValue, ToCategory, ToContext string
	}{fromCategory, fromContext, fromValue, toCategory, toContext})
	mock.lockFindValue.Unlock()
	return mock.FindValueFunc(ctx, fromCategory, fromContext, fromValue, toCategory, toContext)
}

func (mock *mappingRepoMock) FindValueCalls() []struct {
	FromCategory, FromContext, FromValue, ToCategory, ToContext string
} {
	mock.lockFindValue.RLock()
	calls := mock.calls.FindValue
	mock.lockFindValue.RUnlock()
	return calls
}

func (mock *mappingRepoMock) UpsertValue(ctx context.Context, m domain.ReferenceValueMapping) error {
	if mock.UpsertValueFunc == nil {
		panic("mappingRepoMock.UpsertValueFunc: method is nil but mappingRepo.UpsertValue was just called")
	}
	mock.lockUpsertValue.Lock()
	mock.calls.UpsertValue = append(mock.calls.UpsertValue, struct{ M domain.ReferenceValueMapping }{m})
	mock.lockUpsertValue.Unlock()
	return mock.UpsertValueFunc(ctx, m)
}

func (mock *mappingRepoMock) UpsertValueCalls() []struct{ M domain.ReferenceValueMapping } {
	mock.lockUpsertValue.RLock()
	calls := mock.calls.UpsertValue
	mock.lockUpsertValue.RUnlock()
	return calls
}

func (mock *mappingRepoMock) FindRange(ctx context.Context, rangeContext, domainName, targetContext string, value int64) (domain.NumericRangeMapping, error) {
	if mock.FindRangeFunc == nil {
		panic("mappingRepoMock.FindRangeFunc: method is nil but mappingRepo.FindRange was just called")
	}
	mock.lockFindRange.Lock()
	mock.calls.FindRange = append(mock.calls.FindRange, struct {
		RangeContext, DomainName, TargetContext string
		Value                                   int64
	}{rangeContext, domainName, targetContext, value})
	mock.lockFindRange.Unlock()
	return mock.FindRangeFunc(ctx, rangeContext, domainName, targetContext, value)
}

func (mock *mappingRepoMock) FindRangeCalls() []struct {
	RangeContext, DomainName, TargetContext string
	Value                                   int64
} {
	mock.lockFindRange.RLock()
	calls := mock.calls.FindRange
	mock.lockFindRange.RUnlock()
	return calls
}

func (mock *mappingRepoMock) InsertRange(ctx context.Context, m domain.NumericRangeMapping) error {
	if mock.InsertRangeFunc == nil {
		panic("mappingRepoMock.InsertRangeFunc: method is nil but mappingRepo.InsertRange was just called")
	}
	mock.lockInsertRange.Lock()
	mock.calls.InsertRange = append(mock.calls.InsertRange, struct{ M domain.NumericRangeMapping }{m})
	mock.lockInsertRange.Unlock()
	return mock.InsertRangeFunc(ctx, m)
}

func (mock *mappingRepoMock) InsertRangeCalls() []struct{ M domain.NumericRangeMapping } {
	mock.lockInsertRange.RLock()
	calls := mock.calls.InsertRange
	mock.lockInsertRange.RUnlock()
	return calls
}
