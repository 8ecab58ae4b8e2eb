//go:build e2e

package e2e_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
	noterepo "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres/note"
	salesrepo "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres/sales"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/vectorindex/pgvector"
	authpkg "github.com/heartmarshall/notes-assistant-backend/internal/auth"
	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/chat"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/intent"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/note"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/sales"
	"github.com/heartmarshall/notes-assistant-backend/internal/transport/middleware"
	"github.com/heartmarshall/notes-assistant-backend/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testSecret = "e2e-secret-that-is-at-least-32-characters"

// ---------------------------------------------------------------------------
// Fakes for the external model and embedding APIs.
// ---------------------------------------------------------------------------

// keywordEmbedder maps text onto three axes: hiking, cooking, milk.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "hik")) + 0.01,
		float32(strings.Count(lower, "cook")) + 0.01,
		float32(strings.Count(lower, "milk")) + 0.01,
	}, nil
}

// scriptedModel answers Choose with a fixed intent and plays Stream steps
// in order, repeating the last one.
type scriptedModel struct {
	intent string
	steps  []llm.Step

	mu       sync.Mutex
	i        int
	requests []llm.Request
}

func (m *scriptedModel) Choose(context.Context, string, string, []string) (string, error) {
	return m.intent, nil
}

func (m *scriptedModel) Stream(_ context.Context, req llm.Request, onText func(string)) (llm.Step, error) {
	m.mu.Lock()
	step := m.steps[min(m.i, len(m.steps)-1)]
	m.i++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if step.Text != "" {
		onText(step.Text)
	}
	return step, nil
}

func (m *scriptedModel) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func setupServer(t *testing.T, model llm.Model) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	txm := postgres.NewTxManager(pool)
	notesRepo := noterepo.New(pool)
	salesRepo := salesrepo.New(pool)
	index := pgvector.New(pool, 3)
	emb := keywordEmbedder{}

	noteSvc := note.NewService(logger, notesRepo, index, emb, txm)
	salesSvc := sales.NewService(logger, salesRepo, index, emb, txm)
	chatSvc := chat.NewService(logger, model,
		intent.NewClassifier(logger, model),
		retrieval.NewRetriever(logger, index, notesRepo, salesRepo, retrieval.DefaultTopK),
		emb, noteSvc,
		chat.Config{MaxSteps: 5, ClassifierWindow: 6, TopK: 20, DefaultTimezone: time.UTC},
	)

	jwtMgr := authpkg.NewJWTManager(testSecret, "", "")
	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.CORS(config.CORSConfig{AllowedOrigins: "*"}),
		middleware.Auth(jwtMgr),
		middleware.Timezone(),
	)(rest.NewRouter(rest.Routes{
		Health: rest.NewHealthHandler(pool, "test-version"),
		Notes:  rest.NewNoteHandler(noteSvc, logger),
		Sales:  rest.NewSalesHandler(salesSvc, logger),
		Chat:   rest.NewChatHandler(chatSvc, logger),
	}))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client(), Pool: pool, jwt: jwtMgr}
}

// newUser returns a fresh identity subject and a bearer token for it.
func (ts *testServer) newUser(t *testing.T) (string, string) {
	t.Helper()
	userID := testhelper.NewUserID()
	tok, err := ts.jwt.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	return userID, tok
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (ts *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type sseEvent struct {
	Event string
	Data  json.RawMessage
}

// chat posts a conversation and collects the event stream.
func (ts *testServer) chat(t *testing.T, token, timezone string, messages []map[string]any) (int, []sseEvent) {
	t.Helper()

	b, err := json.Marshal(map[string]any{"messages": messages})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/chat", bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if timezone != "" {
		req.Header.Set(middleware.TimezoneHeader, timezone)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var (
		events []sseEvent
		cur    sseEvent
	)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		case line == "" && cur.Event != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return resp.StatusCode, events
}

func eventsOfType(events []sseEvent, typ string) []sseEvent {
	var out []sseEvent
	for _, e := range events {
		if e.Event == typ {
			out = append(out, e)
		}
	}
	return out
}
