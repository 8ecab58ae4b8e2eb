package sales

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

var (
	_ salesRepo   = &salesRepoMock{}
	_ vectorIndex = &vectorIndexMock{}
	_ embedder    = &embedderMock{}
	_ txManager   = &txManagerMock{}
)

// ---------------------------------------------------------------------------
// salesRepoMock
// ---------------------------------------------------------------------------

type salesRepoMock struct {
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error)
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]domain.SalesRecord, int, error)
	ListAfterFunc  func(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.SalesRecord, error)
	CreateFunc     func(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error)
	UpdateFunc     func(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error)
	DeleteFunc     func(ctx context.Context, userID string, id uuid.UUID) error

	mu    sync.RWMutex
	calls struct {
		GetByID    []uuid.UUID
		ListByUser []struct {
			UserID        string
			Limit, Offset int
		}
		ListAfter []uuid.UUID
		Create    []*domain.SalesRecord
		Update    []*domain.SalesRecord
		Delete    []uuid.UUID
	}
}

func (mock *salesRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error) {
	if mock.GetByIDFunc == nil {
		panic("salesRepoMock.GetByIDFunc: method is nil but salesRepo.GetByID was just called")
	}
	mock.mu.Lock()
	mock.calls.GetByID = append(mock.calls.GetByID, id)
	mock.mu.Unlock()
	return mock.GetByIDFunc(ctx, id)
}

func (mock *salesRepoMock) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SalesRecord, int, error) {
	if mock.ListByUserFunc == nil {
		panic("salesRepoMock.ListByUserFunc: method is nil but salesRepo.ListByUser was just called")
	}
	mock.mu.Lock()
	mock.calls.ListByUser = append(mock.calls.ListByUser, struct {
		UserID        string
		Limit, Offset int
	}{userID, limit, offset})
	mock.mu.Unlock()
	return mock.ListByUserFunc(ctx, userID, limit, offset)
}

func (mock *salesRepoMock) ListAfter(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.SalesRecord, error) {
	if mock.ListAfterFunc == nil {
		panic("salesRepoMock.ListAfterFunc: method is nil but salesRepo.ListAfter was just called")
	}
	mock.mu.Lock()
	mock.calls.ListAfter = append(mock.calls.ListAfter, after)
	mock.mu.Unlock()
	return mock.ListAfterFunc(ctx, userID, after, limit)
}

func (mock *salesRepoMock) Create(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error) {
	if mock.CreateFunc == nil {
		panic("salesRepoMock.CreateFunc: method is nil but salesRepo.Create was just called")
	}
	mock.mu.Lock()
	mock.calls.Create = append(mock.calls.Create, rec)
	mock.mu.Unlock()
	return mock.CreateFunc(ctx, rec)
}

func (mock *salesRepoMock) Update(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error) {
	if mock.UpdateFunc == nil {
		panic("salesRepoMock.UpdateFunc: method is nil but salesRepo.Update was just called")
	}
	mock.mu.Lock()
	mock.calls.Update = append(mock.calls.Update, rec)
	mock.mu.Unlock()
	return mock.UpdateFunc(ctx, rec)
}

func (mock *salesRepoMock) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("salesRepoMock.DeleteFunc: method is nil but salesRepo.Delete was just called")
	}
	mock.mu.Lock()
	mock.calls.Delete = append(mock.calls.Delete, id)
	mock.mu.Unlock()
	return mock.DeleteFunc(ctx, userID, id)
}

func (mock *salesRepoMock) CreateCalls() []*domain.SalesRecord {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Create
}

func (mock *salesRepoMock) UpdateCalls() []*domain.SalesRecord {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Update
}

func (mock *salesRepoMock) DeleteCalls() []uuid.UUID {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Delete
}

// ---------------------------------------------------------------------------
// vectorIndexMock
// ---------------------------------------------------------------------------

type vectorIndexMock struct {
	UpsertFunc func(ctx context.Context, records []domain.IndexedRecord) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error

	mu    sync.RWMutex
	calls struct {
		Upsert [][]domain.IndexedRecord
		Delete []uuid.UUID
	}
}

func (mock *vectorIndexMock) Upsert(ctx context.Context, records []domain.IndexedRecord) error {
	if mock.UpsertFunc == nil {
		panic("vectorIndexMock.UpsertFunc: method is nil but vectorIndex.Upsert was just called")
	}
	mock.mu.Lock()
	mock.calls.Upsert = append(mock.calls.Upsert, records)
	mock.mu.Unlock()
	return mock.UpsertFunc(ctx, records)
}

func (mock *vectorIndexMock) Delete(ctx context.Context, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("vectorIndexMock.DeleteFunc: method is nil but vectorIndex.Delete was just called")
	}
	mock.mu.Lock()
	mock.calls.Delete = append(mock.calls.Delete, id)
	mock.mu.Unlock()
	return mock.DeleteFunc(ctx, id)
}

func (mock *vectorIndexMock) UpsertCalls() [][]domain.IndexedRecord {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Upsert
}

func (mock *vectorIndexMock) DeleteCalls() []uuid.UUID {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Delete
}

// ---------------------------------------------------------------------------
// embedderMock / txManagerMock
// ---------------------------------------------------------------------------

type embedderMock struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu    sync.RWMutex
	calls []string
}

func (mock *embedderMock) Embed(ctx context.Context, text string) ([]float32, error) {
	if mock.EmbedFunc == nil {
		panic("embedderMock.EmbedFunc: method is nil but embedder.Embed was just called")
	}
	mock.mu.Lock()
	mock.calls = append(mock.calls, text)
	mock.mu.Unlock()
	return mock.EmbedFunc(ctx, text)
}

func (mock *embedderMock) EmbedCalls() []string {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		return fn(ctx)
	}
	return mock.RunInTxFunc(ctx, fn)
}
