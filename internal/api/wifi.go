package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feederworks/petfeeder-core/internal/wifi"
)

// handleWifiScan returns the networks visible to a feeder during setup.
func (s *Server) handleWifiScan(w http.ResponseWriter, r *http.Request) {
	setupID := chi.URLParam(r, "deviceSetupId")

	networks, err := s.wifi.Scan(r.Context(), setupID)
	if err != nil {
		if errors.Is(err, wifi.ErrValidation) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("scanning networks", "setup_id", setupID, "error", err)
		writeInternalError(w, "failed to scan networks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"networks": networks})
}

// handleWifiConnect pushes encrypted WiFi credentials to a feeder.
func (s *Server) handleWifiConnect(w http.ResponseWriter, r *http.Request) {
	var req wifi.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.wifi.Connect(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, wifi.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, wifi.ErrValidation):
			writeValidationError(w, err.Error())
		case errors.Is(err, wifi.ErrInvalidCredentials):
			writeBadRequest(w, "could not decrypt credentials")
		default:
			s.logger.Error("connecting device", "esp_email", req.ESPEmail, "error", err)
			writeInternalError(w, "failed to connect device")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Device connected successfully",
	})
}
