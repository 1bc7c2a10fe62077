package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/portal-admin/internal"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// ModuleCounter is satisfied by the module registry: a registry that cannot
// be built means no authorization decision can be made.
type ModuleCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthHandler struct {
	db      Pinger
	modules ModuleCounter
	timeout time.Duration
}

func NewHealthHandler(db Pinger, modules ModuleCounter) *HealthHandler {
	return &HealthHandler{db: db, modules: modules, timeout: 2 * time.Second}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components := map[string]CheckEntry{
		"postgres": runCheck(func() (map[string]any, error) {
			return nil, h.db.PingContext(ctx)
		}),
	}
	if h.modules != nil {
		components["module_registry"] = runCheck(func() (map[string]any, error) {
			n, err := h.modules.Count(ctx)
			return map[string]any{"modules": n}, err
		})
	}

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		Components: components,
	}
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
		}
	}

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func runCheck(check func() (map[string]any, error)) CheckEntry {
	start := time.Now()
	details, err := check()

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
		return entry
	}
	entry.Details = details
	return entry
}
