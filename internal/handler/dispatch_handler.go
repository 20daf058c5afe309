package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zapline/campaign-dispatch/internal/engine"
	"github.com/zapline/campaign-dispatch/internal/lease"
	"github.com/zapline/campaign-dispatch/internal/models"
)

// DispatchHandler exposes the trigger endpoint the external scheduler hits
// on a fixed cadence.
type DispatchHandler struct {
	engine     *engine.Engine
	locker     lease.Locker
	batchLimit int
	logger     *slog.Logger
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(eng *engine.Engine, locker lease.Locker, batchLimit int, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{
		engine:     eng,
		locker:     locker,
		batchLimit: batchLimit,
		logger:     logger,
	}
}

// Run handles POST /dispatch/run. No body is required; an optional ?limit=
// query overrides the configured batch limit. The response is the run
// summary JSON. A concurrent run answers 409.
func (h *DispatchHandler) Run(w http.ResponseWriter, r *http.Request) {
	limit := h.batchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			handleError(w, models.ErrInvalidInput("limit must be a positive integer"), h.logger)
			return
		}
		limit = parsed
	}

	release, err := h.locker.Acquire(r.Context())
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	defer release()

	summary := h.engine.RunOnce(r.Context(), limit)

	if !summary.Success {
		// Infrastructure failure: report it in the summary body rather than
		// as an opaque 500, so the scheduler sees what went wrong.
		respondJSON(w, http.StatusInternalServerError, summary)
		return
	}

	respondSuccess(w, summary)
}
