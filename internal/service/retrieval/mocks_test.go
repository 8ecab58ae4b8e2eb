package retrieval

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

var (
	_ noteRepo    = &noteRepoMock{}
	_ salesRepo   = &salesRepoMock{}
	_ vectorIndex = &vectorIndexMock{}
)

type listByIDsCall struct {
	UserID    string
	IDs       []uuid.UUID
	DateRange *domain.DateRange
}

type noteRepoMock struct {
	ListByIDsFunc func(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.Note, error)

	calls struct {
		ListByIDs []listByIDsCall
	}
	lockListByIDs sync.RWMutex
}

func (mock *noteRepoMock) ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.Note, error) {
	if mock.ListByIDsFunc == nil {
		panic("noteRepoMock.ListByIDsFunc: method is nil but noteRepo.ListByIDs was just called")
	}
	mock.lockListByIDs.Lock()
	mock.calls.ListByIDs = append(mock.calls.ListByIDs, listByIDsCall{UserID: userID, IDs: ids, DateRange: dr})
	mock.lockListByIDs.Unlock()
	return mock.ListByIDsFunc(ctx, userID, ids, dr)
}

func (mock *noteRepoMock) ListByIDsCalls() []listByIDsCall {
	mock.lockListByIDs.RLock()
	calls := mock.calls.ListByIDs
	mock.lockListByIDs.RUnlock()
	return calls
}

type salesRepoMock struct {
	ListByIDsFunc func(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.SalesRecord, error)

	calls struct {
		ListByIDs []listByIDsCall
	}
	lockListByIDs sync.RWMutex
}

func (mock *salesRepoMock) ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.SalesRecord, error) {
	if mock.ListByIDsFunc == nil {
		panic("salesRepoMock.ListByIDsFunc: method is nil but salesRepo.ListByIDs was just called")
	}
	mock.lockListByIDs.Lock()
	mock.calls.ListByIDs = append(mock.calls.ListByIDs, listByIDsCall{UserID: userID, IDs: ids, DateRange: dr})
	mock.lockListByIDs.Unlock()
	return mock.ListByIDsFunc(ctx, userID, ids, dr)
}

func (mock *salesRepoMock) ListByIDsCalls() []listByIDsCall {
	mock.lockListByIDs.RLock()
	calls := mock.calls.ListByIDs
	mock.lockListByIDs.RUnlock()
	return calls
}

type vectorIndexMock struct {
	QueryFunc func(ctx context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error)

	calls struct {
		Query []domain.VectorQuery
	}
	lockQuery sync.RWMutex
}

func (mock *vectorIndexMock) Query(ctx context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error) {
	if mock.QueryFunc == nil {
		panic("vectorIndexMock.QueryFunc: method is nil but vectorIndex.Query was just called")
	}
	mock.lockQuery.Lock()
	mock.calls.Query = append(mock.calls.Query, q)
	mock.lockQuery.Unlock()
	return mock.QueryFunc(ctx, q)
}

func (mock *vectorIndexMock) QueryCalls() []domain.VectorQuery {
	mock.lockQuery.RLock()
	calls := mock.calls.Query
	mock.lockQuery.RUnlock()
	return calls
}
