package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/note"
)

type noteService interface {
	Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error)
	Update(ctx context.Context, input note.UpdateInput) (*domain.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, input note.ListInput) ([]domain.Note, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Note, error)
}

// NoteHandler serves /api/notes.
type NoteHandler struct {
	svc noteService
	log *slog.Logger
}

func NewNoteHandler(svc noteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{svc: svc, log: logger.With("handler", "notes")}
}

type noteRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	notes, total, err := h.svc.List(r.Context(), note.ListInput{Limit: limit, Offset: offset})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items := make([]noteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, toNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[noteResponse]{Items: items, Total: total})
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	n, err := h.svc.Create(r.Context(), domain.NoteInput{Title: req.Title, Content: req.Content})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(n))
}

// Update handles PUT /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	n, err := h.svc.Update(r.Context(), note.UpdateInput{
		ID:        id,
		NoteInput: domain.NoteInput{Title: req.Title, Content: req.Content},
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
