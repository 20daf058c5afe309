package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/zapline/campaign-dispatch/internal/lease"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db     *sql.DB
	locker lease.Locker
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, locker lease.Locker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		locker: locker,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Services: make(map[string]string),
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("database health check failed", slog.String("error", err.Error()))
		response.Status = "unhealthy"
		response.Services["database"] = "unhealthy"
	} else {
		response.Services["database"] = "healthy"
	}

	if h.locker != nil {
		if err := h.locker.Health(ctx); err != nil {
			h.logger.Error("lease backend health check failed", slog.String("error", err.Error()))
			response.Status = "unhealthy"
			response.Services["lease"] = "unhealthy"
		} else {
			response.Services["lease"] = "healthy"
		}
	} else {
		response.Services["lease"] = "not_configured"
	}

	if response.Status == "healthy" {
		respondSuccess(w, response)
	} else {
		respondJSON(w, http.StatusServiceUnavailable, response)
	}
}
