package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"marketplace-bulk-api/pkg/response"
)

// probeKey is looked up to prove the store answers; it never exists.
const probeKey = "probe:readiness"

// Pinger checks that a backend is reachable.
type Pinger interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Handler serves the liveness, readiness and uptime endpoints.
type Handler struct {
	service string
	version string
	store   Pinger
	started time.Time
}

// New creates a new handler. store may be nil.
func New(service, version string, store Pinger) *Handler {
	return &Handler{service: service, version: version, store: store, started: time.Now()}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Check is the result of probing one dependency.
type Check struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the dependency answered with an error.
func (c Check) Failed() bool {
	return c.Status == "error"
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Checks    []Check   `json:"checks"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is the summary polled by uptime monitors.
type StatusResponse struct {
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	Status        string  `json:"status"`
	Store         Check   `json:"store"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	HeapMB        float64 `json:"heap_mb"`
	Goroutines    int     `json:"goroutines"`
	Timestamp     string  `json:"timestamp"`
}

func (h *Handler) probeStore(ctx context.Context) Check {
	c := Check{Name: "store"}
	if h.store == nil {
		c.Status = "not_configured"
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	_, err := h.store.Exists(ctx, probeKey)
	c.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		c.Status, c.Error = "error", err.Error()
		return c
	}
	c.Status = "ok"
	return c
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	})
}

// Ready handles GET /api/v1/ready. It answers 503 while the store is
// unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	store := h.probeStore(r.Context())

	status := http.StatusOK
	if store.Failed() {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, ReadyResponse{
		Ready:     !store.Failed(),
		Checks:    []Check{store},
		Timestamp: time.Now().UTC(),
	})
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	store := h.probeStore(r.Context())
	overall := "ok"
	if store.Failed() {
		overall = "degraded"
	}

	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, StatusResponse{
		Service:       h.service,
		Version:       h.version,
		Status:        overall,
		Store:         store,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		HeapMB:        float64(mem.HeapAlloc>>10) / 1024,
		Goroutines:    runtime.NumGoroutine(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
