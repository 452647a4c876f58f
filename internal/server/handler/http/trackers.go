// Package http provides the HTTP handlers and router of the fit API.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/fit/internal/models"
)

// TrackerService defines the tracker management operations required by
// TrackerHandler.
type TrackerService interface {
	// Connect stores credentials and reports whether the tracker was activated.
	Connect(ctx context.Context, trackerType models.TrackerType, username, password string, setActive bool) (bool, error)
	// SetActive selects the active tracker.
	SetActive(ctx context.Context, trackerType models.TrackerType) error
	// Active returns the active tracker type, if any.
	Active() (models.TrackerType, bool, error)
	// List returns the configured trackers.
	List() ([]models.TrackerInfo, error)
	// Remove deletes the credentials of a tracker.
	Remove(trackerType models.TrackerType) error
	// Types returns the supported tracker types.
	Types() []models.TrackerType
}

// TrackerHandler handles HTTP requests for tracker credentials and the
// active tracker selection.
type TrackerHandler struct {
	TrackerService TrackerService
}

// ConnectRequest is the JSON payload of POST /api/trackers.
type ConnectRequest struct {
	TrackerType models.TrackerType `json:"tracker_type"`
	Username    string             `json:"username"`
	Password    string             `json:"password"`
	SetActive   bool               `json:"set_active"`
}

// ConnectResponse is returned by POST /api/trackers.
type ConnectResponse struct {
	TrackerType models.TrackerType `json:"tracker_type"`
	Active      bool               `json:"active"`
}

// SetActiveRequest is the JSON payload of PUT /api/trackers/active.
type SetActiveRequest struct {
	TrackerType models.TrackerType `json:"tracker_type"`
}

// List handles GET /api/trackers.
func (h *TrackerHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.TrackerService.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// Types handles GET /api/trackers/types.
func (h *TrackerHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.TrackerService.Types())
}

// Connect handles POST /api/trackers. The tracker is activated when it is
// the first one or set_active is true. Credentials are kept even when the
// upstream rejects them during activation; the response is then 401.
func (h *TrackerHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackerType == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	activated, err := h.TrackerService.Connect(r.Context(), req.TrackerType, req.Username, req.Password, req.SetActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ConnectResponse{TrackerType: req.TrackerType, Active: activated})
}

// Remove handles DELETE /api/trackers/{type}.
func (h *TrackerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	trackerType := models.TrackerType(chi.URLParam(r, "type"))
	if err := h.TrackerService.Remove(trackerType); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Active handles GET /api/trackers/active.
func (h *TrackerHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, ok, err := h.TrackerService.Active()
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "no active tracker", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, models.ActiveTrackerConfig{ActiveTracker: &active})
}

// SetActive handles PUT /api/trackers/active.
func (h *TrackerHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackerType == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.TrackerService.SetActive(r.Context(), req.TrackerType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ActiveTrackerConfig{ActiveTracker: &req.TrackerType})
}
