package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/fit/internal/models"
)

// MeasurementService defines the body measurement operations required by
// MeasurementHandler.
type MeasurementService interface {
	// Add records a manual measurement (height in inches, weight in pounds).
	Add(ctx context.Context, height, weight float64) (*models.Measurement, error)
	// List returns every measurement, oldest first.
	List(ctx context.Context) ([]models.Measurement, error)
	// Progress summarizes weight over time.
	Progress(ctx context.Context) (*models.Progress, error)
	// Import records height and weight reported by the active tracker.
	Import(ctx context.Context) (*models.Measurement, error)
}

// MeasurementHandler serves body measurements and progress.
type MeasurementHandler struct {
	MeasurementService MeasurementService
}

// AddMeasurementRequest is the JSON payload of POST /api/measurements.
type AddMeasurementRequest struct {
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Add handles POST /api/measurements.
func (h *MeasurementHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	m, err := h.MeasurementService.Add(r.Context(), req.Height, req.Weight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// List handles GET /api/measurements.
func (h *MeasurementHandler) List(w http.ResponseWriter, r *http.Request) {
	measurements, err := h.MeasurementService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, measurements)
}

// Progress handles GET /api/measurements/progress.
func (h *MeasurementHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.MeasurementService.Progress(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Import handles POST /api/measurements/import.
func (h *MeasurementHandler) Import(w http.ResponseWriter, r *http.Request) {
	m, err := h.MeasurementService.Import(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
