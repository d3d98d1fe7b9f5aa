package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"

	healthCheckTimeout = 5 * time.Second
)

// CheckFunc reports the health of one dependency
type CheckFunc func(ctx context.Context) error

type healthCheck struct {
	run      CheckFunc
	optional bool
}

// HealthChecker serves /healthz. Basic mode only proves the process is up;
// extended mode runs every registered check in parallel.
type HealthChecker struct {
	checks map[string]healthCheck
}

// NewHealthChecker creates a checker with no dependency checks
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]healthCheck)}
}

// AddCheck registers a dependency the server cannot work without. A failure
// makes the server unhealthy.
func (h *HealthChecker) AddCheck(name string, fn CheckFunc) {
	h.checks[name] = healthCheck{run: fn}
}

// AddOptionalCheck registers a dependency the server can run without, such as
// the Redis cache or the AI provider. A failure only degrades the status.
func (h *HealthChecker) AddOptionalCheck(name string, fn CheckFunc) {
	h.checks[name] = healthCheck{run: fn, optional: true}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    healthStatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if r.URL.Query().Get("mode") != "extended" || len(h.checks) == 0 {
		respondJSON(w, http.StatusOK, response)
		return
	}

	var (
		mu       sync.Mutex
		g        errgroup.Group
		required bool
		optional bool
	)
	response.Checks = make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			err := c.run(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				response.Checks[name] = healthStatusHealthy
				return nil
			}
			response.Checks[name] = healthStatusUnhealthy + ": " + sanitizeErrorMessage(err.Error())
			if c.optional {
				optional = true
			} else {
				required = true
			}
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	switch {
	case required:
		response.Status = healthStatusUnhealthy
		status = http.StatusServiceUnavailable
	case optional:
		response.Status = healthStatusDegraded
	}
	respondJSON(w, status, response)
}
