package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Component is a dependency reported on /health. Readiness only looks at
// required ones; an optional component being down degrades health without
// failing it. The embedding cache is optional, the database is not.
type Component struct {
	Name     string
	Check    pinger
	Required bool
}

type HealthHandler struct {
	components []Component
	version    string
}

func NewHealthHandler(db pinger, version string, extra ...Component) *HealthHandler {
	components := append([]Component{{Name: "database", Check: db, Required: true}}, extra...)
	return &HealthHandler{components: components, version: version}
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}

type componentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: statusOK, Timestamp: time.Now()})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	overall, _ := h.probe(r.Context(), true)
	writeJSON(w, httpStatus(overall), healthResponse{Status: overall, Timestamp: time.Now()})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	overall, components := h.probe(r.Context(), false)
	writeJSON(w, httpStatus(overall), healthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

// probe pings components concurrently under one shared deadline.
func (h *HealthHandler) probe(ctx context.Context, requiredOnly bool) (string, map[string]componentStatus) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]componentStatus, len(h.components))
		overall = statusOK
		g       errgroup.Group
	)
	for _, c := range h.components {
		if requiredOnly && !c.Required {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := c.Check.Ping(ctx)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				results[c.Name] = componentStatus{Status: statusOK, Latency: elapsed.String()}
				return nil
			}
			results[c.Name] = componentStatus{Status: statusDown}
			switch {
			case c.Required:
				overall = statusDown
			case overall == statusOK:
				overall = statusDegraded
			}
			return nil
		})
	}
	_ = g.Wait()
	return overall, results
}

func httpStatus(overall string) int {
	if overall == statusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
