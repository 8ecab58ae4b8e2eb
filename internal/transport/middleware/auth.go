package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// Auth resolves the bearer token to a user id. A request without a token
// continues anonymously and the note, sales and chat handlers answer 401
// themselves, so health and metrics stay reachable. A token that fails
// validation is rejected here.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r.Header.Get("Authorization"))
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil || userID == "" {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken reports whether the header carries a non-empty bearer
// credential. Other schemes count as absent.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
