package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// maxBodyBytes bounds request bodies. Chat bodies carry the whole
// conversation, so this is generous.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string          `json:"error"`
	Fields []fieldResponse `json:"fields,omitempty"`
}

type fieldResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as 500 without details.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range verr.Errors {
			resp.Fields = append(resp.Fields, fieldResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is reading the response.
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid JSON")
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

// pageParams reads limit and offset from the query string. Missing values
// are zero and left for the service to default.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	var errs []domain.FieldError
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			errs = append(errs, domain.FieldError{Field: "limit", Message: "must be an integer"})
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			errs = append(errs, domain.FieldError{Field: "offset", Message: "must be an integer"})
		}
	}
	if len(errs) > 0 {
		return 0, 0, domain.NewValidationErrors(errs)
	}
	return limit, offset, nil
}
