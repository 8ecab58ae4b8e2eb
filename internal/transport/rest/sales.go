package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/sales"
)

type salesService interface {
	Create(ctx context.Context, input domain.SalesRecordInput) (*domain.SalesRecord, error)
	Update(ctx context.Context, input sales.UpdateInput) (*domain.SalesRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, input sales.ListInput) ([]domain.SalesRecord, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error)
}

// SalesHandler serves /api/sales.
type SalesHandler struct {
	svc salesService
	log *slog.Logger
}

func NewSalesHandler(svc salesService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{svc: svc, log: logger.With("handler", "sales")}
}

// salesRequest leaves SoldAt nil when absent so validation can report it.
type salesRequest struct {
	ProductName string     `json:"productName"`
	Price       float64    `json:"price"`
	SoldAt      *time.Time `json:"soldAt"`
}

func (r salesRequest) input() domain.SalesRecordInput {
	in := domain.SalesRecordInput{ProductName: r.ProductName, Price: r.Price}
	if r.SoldAt != nil {
		in.SoldAt = r.SoldAt.UTC()
	}
	return in
}

type salesResponse struct {
	ID          string    `json:"id"`
	ProductName string    `json:"productName"`
	Price       float64   `json:"price"`
	SoldAt      time.Time `json:"soldAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toSalesResponse(rec *domain.SalesRecord) salesResponse {
	return salesResponse{
		ID:          rec.ID.String(),
		ProductName: rec.ProductName,
		Price:       rec.Price,
		SoldAt:      rec.SoldAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// List handles GET /api/sales.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	records, total, err := h.svc.List(r.Context(), sales.ListInput{Limit: limit, Offset: offset})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items := make([]salesResponse, 0, len(records))
	for i := range records {
		items = append(items, toSalesResponse(&records[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[salesResponse]{Items: items, Total: total})
}

// Get handles GET /api/sales/{id}.
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesResponse(rec))
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req salesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.Create(r.Context(), req.input())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalesResponse(rec))
}

// Update handles PUT /api/sales/{id}.
func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req salesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.Update(r.Context(), sales.UpdateInput{ID: id, SalesRecordInput: req.input()})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesResponse(rec))
}

// Delete handles DELETE /api/sales/{id}.
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
