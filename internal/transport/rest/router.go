package rest

import (
	"net/http"

	"github.com/heartmarshall/notes-assistant-backend/internal/transport/middleware"
)

// Routes groups the handlers served by the API.
type Routes struct {
	Health *HealthHandler
	Notes  *NoteHandler
	Sales  *SalesHandler
	Chat   *ChatHandler

	// ChatLimit wraps the chat endpoint only. Nil means unlimited.
	ChatLimit middleware.Middleware

	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter registers every route on a fresh mux. Cross-cutting middleware
// is applied by the caller.
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)

	if rt.Metrics != nil && rt.MetricsPath != "" {
		mux.Handle("GET "+rt.MetricsPath, rt.Metrics)
	}

	mux.HandleFunc("GET /api/notes", rt.Notes.List)
	mux.HandleFunc("POST /api/notes", rt.Notes.Create)
	mux.HandleFunc("GET /api/notes/{id}", rt.Notes.Get)
	mux.HandleFunc("PUT /api/notes/{id}", rt.Notes.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", rt.Notes.Delete)

	mux.HandleFunc("GET /api/sales", rt.Sales.List)
	mux.HandleFunc("POST /api/sales", rt.Sales.Create)
	mux.HandleFunc("GET /api/sales/{id}", rt.Sales.Get)
	mux.HandleFunc("PUT /api/sales/{id}", rt.Sales.Update)
	mux.HandleFunc("DELETE /api/sales/{id}", rt.Sales.Delete)

	var chat http.Handler = http.HandlerFunc(rt.Chat.Chat)
	if rt.ChatLimit != nil {
		chat = rt.ChatLimit(chat)
	}
	mux.Handle("POST /api/chat", chat)

	return mux
}
