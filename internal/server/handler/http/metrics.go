package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/atinyakov/fit/internal/models"
)

// MetricsService defines the metrics operations required by MetricsHandler.
type MetricsService interface {
	// Metrics fetches and records the current metrics of the active tracker.
	Metrics(ctx context.Context) (*models.Reading, error)
	// History returns recorded readings, newest first.
	History(ctx context.Context, limit int) ([]models.Reading, error)
}

// MetricsHandler serves tracker metrics.
type MetricsHandler struct {
	MetricsService MetricsService
}

// Current handles GET /api/metrics.
func (h *MetricsHandler) Current(w http.ResponseWriter, r *http.Request) {
	reading, err := h.MetricsService.Metrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// History handles GET /api/metrics/history?limit=N.
func (h *MetricsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	readings, err := h.MetricsService.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}
