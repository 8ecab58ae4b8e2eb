package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

const (
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 128
)

// RequestID propagates the caller's X-Request-Id or mints a new one.
// Inbound ids that are too long or carry non-printable bytes are replaced,
// since they end up verbatim in logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
