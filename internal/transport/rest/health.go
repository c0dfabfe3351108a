package rest

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Pinger is a dependency the readiness probes check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Component names one checked dependency.
type Component struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	components []Component
	version    string
	timeout    time.Duration
}

// NewHealthHandler creates a HealthHandler. Every component is pinged by
// /ready and /health.
func NewHealthHandler(version string, components ...Component) *HealthHandler {
	return &HealthHandler{components: components, version: version, timeout: 3 * time.Second}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 when every component answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, ok := h.check(r.Context())
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Timestamp: time.Now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.check(r.Context())

	status, overall := http.StatusOK, "ok"
	if !ok {
		status, overall = http.StatusServiceUnavailable, "down"
	}

	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) check(ctx context.Context) (map[string]CompStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		results = make(map[string]CompStatus, len(h.components))
	)
	for _, c := range h.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := c.Pinger.Ping(ctx)
			latency := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[c.Name] = CompStatus{Status: "down"}
				healthy = false
				return
			}
			results[c.Name] = CompStatus{Status: "ok", Latency: latency.String()}
		}()
	}
	wg.Wait()
	return results, healthy
}
