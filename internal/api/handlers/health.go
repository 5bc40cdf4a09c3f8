package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/algosim/pkg/database"
	"github.com/wonny/algosim/pkg/redis"
)

// HealthHandler reports server and dependency health
type HealthHandler struct {
	service string
	db      *database.DB
	cache   *redis.Client
}

// NewHealthHandler creates a health handler; db and cache may be nil
func NewHealthHandler(service string, db *database.DB, cache *redis.Client) *HealthHandler {
	return &HealthHandler{service: service, db: db, cache: cache}
}

// Check returns overall status plus per-dependency detail
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
	}

	if h.db != nil {
		dbHealth := h.db.HealthCheck(ctx)
		body["database"] = dbHealth
		if !dbHealth.Healthy {
			status = http.StatusServiceUnavailable
		}
	}

	if h.cache != nil && h.cache.Enabled() {
		redisStatus := map[string]interface{}{"healthy": true}
		if err := h.cache.Redis().Ping(ctx).Err(); err != nil {
			redisStatus["healthy"] = false
			redisStatus["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		body["redis"] = redisStatus
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	respondJSON(w, status, body)
}
