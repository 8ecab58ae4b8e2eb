package chat

import (
	"context"
	"sync"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
)

var (
	_ llm.Model   = &modelMock{}
	_ classifier  = &classifierMock{}
	_ retriever   = &retrieverMock{}
	_ embedder    = &embedderMock{}
	_ noteCreator = &noteCreatorMock{}
	_ Emitter     = &recorder{}
)

// ---------------------------------------------------------------------------
// modelMock
// ---------------------------------------------------------------------------

type modelMock struct {
	StreamFunc func(ctx context.Context, req llm.Request, onText func(string)) (llm.Step, error)
	ChooseFunc func(ctx context.Context, system, prompt string, options []string) (string, error)

	mu    sync.RWMutex
	calls struct {
		Stream []llm.Request
	}
}

func (mock *modelMock) Stream(ctx context.Context, req llm.Request, onText func(string)) (llm.Step, error) {
	if mock.StreamFunc == nil {
		panic("modelMock.StreamFunc: method is nil but Model.Stream was just called")
	}
	mock.mu.Lock()
	mock.calls.Stream = append(mock.calls.Stream, req)
	mock.mu.Unlock()
	return mock.StreamFunc(ctx, req, onText)
}

func (mock *modelMock) Choose(ctx context.Context, system, prompt string, options []string) (string, error) {
	if mock.ChooseFunc == nil {
		panic("modelMock.ChooseFunc: method is nil but Model.Choose was just called")
	}
	return mock.ChooseFunc(ctx, system, prompt, options)
}

func (mock *modelMock) StreamCalls() []llm.Request {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls.Stream
}

// scripted returns a model that plays steps in order and repeats the last
// one when the script runs out. Step text is streamed as a single delta.
func scripted(steps ...llm.Step) *modelMock {
	var (
		mu sync.Mutex
		i  int
	)
	return &modelMock{
		StreamFunc: func(ctx context.Context, req llm.Request, onText func(string)) (llm.Step, error) {
			mu.Lock()
			step := steps[min(i, len(steps)-1)]
			i++
			mu.Unlock()
			if step.Text != "" {
				onText(step.Text)
			}
			return step, nil
		},
	}
}

// ---------------------------------------------------------------------------
// classifierMock / retrieverMock / embedderMock / noteCreatorMock
// ---------------------------------------------------------------------------

type classifierMock struct {
	ClassifyFunc func(ctx context.Context, messages []domain.ConversationMessage) (domain.IntentTag, error)

	mu    sync.RWMutex
	calls [][]domain.ConversationMessage
}

func (mock *classifierMock) Classify(ctx context.Context, messages []domain.ConversationMessage) (domain.IntentTag, error) {
	if mock.ClassifyFunc == nil {
		panic("classifierMock.ClassifyFunc: method is nil but classifier.Classify was just called")
	}
	mock.mu.Lock()
	mock.calls = append(mock.calls, messages)
	mock.mu.Unlock()
	return mock.ClassifyFunc(ctx, messages)
}

func (mock *classifierMock) ClassifyCalls() [][]domain.ConversationMessage {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls
}

type retrieverMock struct {
	RetrieveFunc func(ctx context.Context, q retrieval.Query) (retrieval.Records, error)

	mu    sync.RWMutex
	calls []retrieval.Query
}

func (mock *retrieverMock) Retrieve(ctx context.Context, q retrieval.Query) (retrieval.Records, error) {
	if mock.RetrieveFunc == nil {
		panic("retrieverMock.RetrieveFunc: method is nil but retriever.Retrieve was just called")
	}
	mock.mu.Lock()
	mock.calls = append(mock.calls, q)
	mock.mu.Unlock()
	return mock.RetrieveFunc(ctx, q)
}

func (mock *retrieverMock) RetrieveCalls() []retrieval.Query {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls
}

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

type noteCreatorMock struct {
	CreateFunc func(ctx context.Context, input domain.NoteInput) (*domain.Note, error)

	mu    sync.RWMutex
	calls []domain.NoteInput
}

func (mock *noteCreatorMock) Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error) {
	if mock.CreateFunc == nil {
		panic("noteCreatorMock.CreateFunc: method is nil but noteCreator.Create was just called")
	}
	mock.mu.Lock()
	mock.calls = append(mock.calls, input)
	mock.mu.Unlock()
	return mock.CreateFunc(ctx, input)
}

func (mock *noteCreatorMock) CreateCalls() []domain.NoteInput {
	mock.mu.RLock()
	defer mock.mu.RUnlock()
	return mock.calls
}

// ---------------------------------------------------------------------------
// recorder
// ---------------------------------------------------------------------------

// recorder is an Emitter that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Emit(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) text() string {
	var s string
	for _, e := range r.ofType(EventText) {
		s += e.Text
	}
	return s
}
