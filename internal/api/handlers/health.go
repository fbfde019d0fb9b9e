package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/ashare-daily/backend/pkg/database"
	"github.com/wonny/ashare-daily/backend/pkg/redis"
)

// HealthHandler reports service and dependency health
type HealthHandler struct {
	service string
	db      *database.DB
	redis   *redis.Client
}

// NewHealthHandler creates a health handler. db and rdb may be nil.
func NewHealthHandler(service string, db *database.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{service: service, db: db, redis: rdb}
}

// Check returns 200 when every configured dependency answers, 503 otherwise
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
	}
	status := http.StatusOK

	if h.db != nil {
		dbHealth := h.db.HealthCheck(ctx)
		body["database"] = dbHealth
		if !dbHealth.Healthy {
			status = http.StatusServiceUnavailable
		}
	}
	if h.redis.Enabled() {
		if err := h.redis.Ping(ctx); err != nil {
			body["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["redis"] = "ok"
		}
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	respondJSON(w, status, body)
}
