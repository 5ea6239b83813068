package handler

import (
	"context"
	"net/http"
	"time"

	"survivor-api/internal/container"
	"survivor-api/pkg/database"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Version   string              `json:"version"`
	Service   string              `json:"service"`
	Checks    map[string]string   `json:"checks,omitempty"`
	Pool      *database.PoolStats `json:"pool,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "survivor-api",
	})
}

// Ready handles GET /health/ready. The store must answer; redis and the schedule breaker
// only degrade the response because the API keeps serving without them.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "healthy"
	code := http.StatusOK

	if err := h.container.Store.Health(ctx); err != nil {
		logger.WithError(err).Error("Store health check failed")
		checks["store"] = "unavailable"
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if rc := h.container.GetRedisClient(); rc != nil {
		if err := rc.Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			checks["redis"] = "unavailable"
			if code == http.StatusOK {
				status = "degraded"
			}
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	var pool *database.PoolStats
	if h.container.DB != nil {
		stats := h.container.DB.Stats()
		pool = &stats
	}

	checks["schedule"] = h.container.ScheduleState()
	if checks["schedule"] != "closed" && code == http.StatusOK {
		status = "degraded"
	}

	respondJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "survivor-api",
		Checks:    checks,
		Pool:      pool,
	})
}
