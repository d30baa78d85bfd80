package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegisterUser)
			r.Get("/user/{uid}", s.handleGetUser)
		})

		// Device endpoints. The root of /devices/{id} is keyed by the
		// owner's uid (device list, onboarding); the control subroutes
		// are keyed by the feeder's device id.
		r.Route("/devices/{id}", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleRegisterDevice)

			r.Put("/led", s.handleSetLED)
			r.Post("/feed", s.handleFeed)
			r.Put("/status", s.handleSetStatus)
			r.Put("/food-level", s.handleReportFoodLevel)
		})

		// Feed schedule endpoints. GET is keyed by device id, DELETE by
		// schedule row id.
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", s.handleCreateSchedule)
			r.Get("/{id}", s.handleListSchedules)
			r.Delete("/{id}", s.handleDeleteSchedule)
		})

		// Setup-time WiFi endpoints
		r.Route("/wifi", func(r chi.Router) {
			r.Get("/scan/{deviceSetupId}", s.handleWifiScan)
			r.Post("/connect", s.handleWifiConnect)
		})

		// Provisioning progress endpoints
		r.Route("/provisioning/{deviceId}", func(r chi.Router) {
			r.Get("/", s.handleProvisioningStatus)
			r.Delete("/", s.handleProvisioningCancel)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
