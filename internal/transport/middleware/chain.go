package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Chain composes mws so that the first one sees the request first.
// Nil entries are skipped, which lets callers switch a layer off by config.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] == nil {
				continue
			}
			h = mws[i](h)
		}
		return h
	}
}
