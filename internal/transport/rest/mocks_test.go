package rest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/chat"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/note"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/sales"
)

var (
	_ noteService  = &noteServiceMock{}
	_ salesService = &salesServiceMock{}
	_ replier      = &replierMock{}
)

// ---------------------------------------------------------------------------
// noteServiceMock
// ---------------------------------------------------------------------------

type noteServiceMock struct {
	CreateFunc func(ctx context.Context, input domain.NoteInput) (*domain.Note, error)
	UpdateFunc func(ctx context.Context, input note.UpdateInput) (*domain.Note, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
	ListFunc   func(ctx context.Context, input note.ListInput) ([]domain.Note, int, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	mu    sync.RWMutex
	calls struct {
		Create []domain.NoteInput
		Update []note.UpdateInput
		Delete []uuid.UUID
		List   []note.ListInput
		Get    []uuid.UUID
	}
}

func (mock *noteServiceMock) Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error) {
	if mock.CreateFunc == nil {
		panic("noteServiceMock.CreateFunc: method is nil but noteService.Create was just called")
	}
	mock.mu.Lock()
	mock.calls.Create = append(mock.calls.Create, input)
	mock.mu.Unlock()
	return mock.CreateFunc(ctx, input)
}

func (mock *noteServiceMock) Update(ctx context.Context, input note.UpdateInput) (*domain.Note, error) {
	if mock.UpdateFunc == nil {
		panic("noteServiceMock.UpdateFunc: method is nil but noteService.Update was just called")
	}
	mock.mu.Lock()
	mock.calls.Update = append(mock.calls.Update, input)
	mock.mu.Unlock()
	return mock.UpdateFunc(ctx, input)
}

func (mock *noteServiceMock) Delete(ctx context.Context, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("noteServiceMock.DeleteFunc: method is nil but noteService.Delete was just called")
	}
	mock.mu.Lock()
	mock.calls.Delete = append(mock.calls.Delete, id)
	mock.mu.Unlock()
	return mock.DeleteFunc(ctx, id)
}

func (mock *noteServiceMock) List(ctx context.Context, input note.ListInput) ([]domain.Note, int, error) {
	if mock.ListFunc == nil {
		panic("noteServiceMock.ListFunc: method is nil but noteService.List was just called")
	}
	mock.mu.Lock()
	mock.calls.List = append(mock.calls.List, input)
	mock.mu.Unlock()
	return mock.ListFunc(ctx, input)
}

func (mock *noteServiceMock) Get(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	if mock.GetFunc == nil {
		panic("noteServiceMock.GetFunc: method is nil but noteService.Get was just called")
	}
	mock.mu.Lock()
	mock.calls.Get = append(mock.calls.Get, id)
	mock.mu.Unlock()
	return mock.GetFunc(ctx, id)
}

func (mock *noteServiceMock) UpdateCalls() []note.UpdateInput {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Update
}

func (mock *noteServiceMock) ListCalls() []note.ListInput {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.List
}

// ---------------------------------------------------------------------------
// salesServiceMock
// ---------------------------------------------------------------------------

type salesServiceMock struct {
	CreateFunc func(ctx context.Context, input domain.SalesRecordInput) (*domain.SalesRecord, error)
	UpdateFunc func(ctx context.Context, input sales.UpdateInput) (*domain.SalesRecord, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
	ListFunc   func(ctx context.Context, input sales.ListInput) ([]domain.SalesRecord, int, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error)

	mu    sync.RWMutex
	calls struct {
		Create []domain.SalesRecordInput
		Update []sales.UpdateInput
		Delete []uuid.UUID
	}
}

func (mock *salesServiceMock) Create(ctx context.Context, input domain.SalesRecordInput) (*domain.SalesRecord, error) {
	if mock.CreateFunc == nil {
		panic("salesServiceMock.CreateFunc: method is nil but salesService.Create was just called")
	}
	mock.mu.Lock()
	mock.calls.Create = append(mock.calls.Create, input)
	mock.mu.Unlock()
	return mock.CreateFunc(ctx, input)
}

func (mock *salesServiceMock) Update(ctx context.Context, input sales.UpdateInput) (*domain.SalesRecord, error) {
	if mock.UpdateFunc == nil {
		panic("salesServiceMock.UpdateFunc: method is nil but salesService.Update was just called")
	}
	mock.mu.Lock()
	mock.calls.Update = append(mock.calls.Update, input)
	mock.mu.Unlock()
	return mock.UpdateFunc(ctx, input)
}

func (mock *salesServiceMock) Delete(ctx context.Context, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("salesServiceMock.DeleteFunc: method is nil but salesService.Delete was just called")
	}
	mock.mu.Lock()
	mock.calls.Delete = append(mock.calls.Delete, id)
	mock.mu.Unlock()
	return mock.DeleteFunc(ctx, id)
}

func (mock *salesServiceMock) List(ctx context.Context, input sales.ListInput) ([]domain.SalesRecord, int, error) {
	if mock.ListFunc == nil {
		panic("salesServiceMock.ListFunc: method is nil but salesService.List was just called")
	}
	return mock.ListFunc(ctx, input)
}

func (mock *salesServiceMock) Get(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error) {
	if mock.GetFunc == nil {
		panic("salesServiceMock.GetFunc: method is nil but salesService.Get was just called")
	}
	return mock.GetFunc(ctx, id)
}

func (mock *salesServiceMock) CreateCalls() []domain.SalesRecordInput {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Create
}

// ---------------------------------------------------------------------------
// replierMock
// ---------------------------------------------------------------------------

type replierMock struct {
	ReplyFunc func(ctx context.Context, messages []domain.ConversationMessage, out chat.Emitter) (chat.Result, error)

	mu    sync.RWMutex
	calls struct {
		Reply []struct {
			Ctx      context.Context
			Messages []domain.ConversationMessage
		}
	}
}

func (mock *replierMock) Reply(ctx context.Context, messages []domain.ConversationMessage, out chat.Emitter) (chat.Result, error) {
	if mock.ReplyFunc == nil {
		panic("replierMock.ReplyFunc: method is nil but replier.Reply was just called")
	}
	mock.mu.Lock()
	mock.calls.Reply = append(mock.calls.Reply, struct {
		Ctx      context.Context
		Messages []domain.ConversationMessage
	}{ctx, messages})
	mock.mu.Unlock()
	return mock.ReplyFunc(ctx, messages, out)
}

func (mock *replierMock) ReplyCalls() []struct {
	Ctx      context.Context
	Messages []domain.ConversationMessage
} {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Reply
}
