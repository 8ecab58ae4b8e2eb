package middleware

import (
	"net/http"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// TimezoneHeader carries the client's IANA timezone name.
const TimezoneHeader = "X-Timezone"

// Timezone copies the X-Timezone header into the request context.
// Validation happens where the zone is used.
func Timezone() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tz := strings.TrimSpace(r.Header.Get(TimezoneHeader)); tz != "" {
				r = r.WithContext(ctxutil.WithTimezone(r.Context(), tz))
			}
			next.ServeHTTP(w, r)
		})
	}
}
