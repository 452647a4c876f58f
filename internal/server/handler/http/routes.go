package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/fit/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the fit API under /api.
//
// Routes:
//
//	GET    /api/trackers               → trackerHandler.List
//	GET    /api/trackers/types         → trackerHandler.Types
//	POST   /api/trackers               → trackerHandler.Connect
//	DELETE /api/trackers/{type}        → trackerHandler.Remove
//	GET    /api/trackers/active        → trackerHandler.Active
//	PUT    /api/trackers/active        → trackerHandler.SetActive
//	GET    /api/metrics                → metricsHandler.Current
//	GET    /api/metrics/history        → metricsHandler.History
//	GET    /api/measurements           → measurementHandler.List
//	POST   /api/measurements           → measurementHandler.Add
//	GET    /api/measurements/progress  → measurementHandler.Progress
//	POST   /api/measurements/import    → measurementHandler.Import
//
// Requests carrying a body must be application/json.
func NewRouter(
	trackerHandler *TrackerHandler,
	metricsHandler *MetricsHandler,
	measurementHandler *MeasurementHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	jsonOnly := chiMiddleware.AllowContentType("application/json")

	r.Route("/api", func(r chi.Router) {
		r.Route("/trackers", func(r chi.Router) {
			r.Get("/", trackerHandler.List)
			r.Get("/types", trackerHandler.Types)
			r.With(jsonOnly).Post("/", trackerHandler.Connect)
			r.Get("/active", trackerHandler.Active)
			r.With(jsonOnly).Put("/active", trackerHandler.SetActive)
			r.Delete("/{type}", trackerHandler.Remove)
		})

		r.Get("/metrics", metricsHandler.Current)
		r.Get("/metrics/history", metricsHandler.History)

		r.Route("/measurements", func(r chi.Router) {
			r.Get("/", measurementHandler.List)
			r.With(jsonOnly).Post("/", measurementHandler.Add)
			r.Get("/progress", measurementHandler.Progress)
			r.Post("/import", measurementHandler.Import)
		})
	})

	return r
}
