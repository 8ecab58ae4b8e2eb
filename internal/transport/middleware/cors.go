package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/internal/config"
)

type corsPolicy struct {
	origins     map[string]struct{}
	anyOrigin   bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}),
		credentials: cfg.AllowCredentials,
		methods:     cfg.AllowedMethods,
		headers:     cfg.AllowedHeaders,
		maxAge:      strconv.Itoa(cfg.MaxAge),
	}
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers preflight requests itself and decorates the rest. The
// request origin is echoed rather than "*" so credentialed browser calls
// work. X-Request-Id is exposed for client-side error reports.
func CORS(cfg config.CORSConfig) Middleware {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			if origin != "" {
				h.Add("Vary", "Origin")
				if p.allows(origin) {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Expose-Headers", RequestIDHeader)
					if p.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", p.methods)
				h.Set("Access-Control-Allow-Headers", p.headers)
				h.Set("Access-Control-Max-Age", p.maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
