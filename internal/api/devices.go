package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feederworks/petfeeder-core/internal/feeder"
	"github.com/feederworks/petfeeder-core/internal/registration"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// handleListDevices returns all feeders owned by a user.
// The path id is the owner's uid.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")

	devices, err := s.registration.ListDevices(r.Context(), uid)
	if err != nil {
		if errors.Is(err, registration.ErrOwnerNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("listing devices", "uid", uid, "error", err)
		writeInternalError(w, "failed to fetch devices")
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

// registerDeviceRequest is the body for POST /api/devices/{uid}.
type registerDeviceRequest struct {
	Name           string `json:"name"`
	DevicePassword string `json:"devicePassword"`
}

// handleRegisterDevice onboards a new feeder and opens its setup session.
// The path id is the owner's uid.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	reg, err := s.registration.RegisterDevice(r.Context(), uid, req.Name, req.DevicePassword)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrOwnerNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, registration.ErrValidation):
			writeValidationError(w, err.Error())
		case errors.Is(err, store.ErrDeviceExists):
			writeConflict(w, "device already registered")
		default:
			s.logger.Error("registering device", "uid", uid, "error", err)
			writeInternalError(w, "failed to create device")
		}
		return
	}

	if _, err := s.provisioning.Begin(uid, reg.DeviceID); err != nil {
		s.logger.Error("opening setup session", "device_id", reg.DeviceID, "error", err)
	}

	writeJSON(w, http.StatusCreated, reg)
}

// setLEDRequest is the body for PUT /api/devices/{deviceId}/led.
type setLEDRequest struct {
	LEDStatus bool `json:"ledStatus"`
}

// handleSetLED switches a feeder's indicator LED.
func (s *Server) handleSetLED(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	var req setLEDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.controls.SetLED(r.Context(), deviceID, req.LEDStatus); err != nil {
		s.writeControlError(w, deviceID, "updating led", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleFeed triggers a manual dispense.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	fedAt, err := s.controls.Feed(r.Context(), deviceID)
	if err != nil {
		s.writeControlError(w, deviceID, "recording feed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"lastFed": fedAt.Format(time.RFC3339),
	})
}

// setStatusRequest is the body for PUT /api/devices/{deviceId}/status.
type setStatusRequest struct {
	Status string `json:"status"`
}

// handleSetStatus records a connectivity transition reported by a feeder.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.controls.SetStatus(r.Context(), deviceID, req.Status); err != nil {
		s.writeControlError(w, deviceID, "updating status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// reportFoodLevelRequest is the body for PUT /api/devices/{deviceId}/food-level.
type reportFoodLevelRequest struct {
	FoodLevel float64 `json:"foodLevel"`
}

// handleReportFoodLevel records a hopper level reading from a feeder.
func (s *Server) handleReportFoodLevel(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	var req reportFoodLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.controls.ReportFoodLevel(r.Context(), deviceID, req.FoodLevel); err != nil {
		s.writeControlError(w, deviceID, "recording food level", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeControlError maps feeder control errors to HTTP responses.
// Unknown devices are a 404, never a silent success.
func (s *Server) writeControlError(w http.ResponseWriter, deviceID, action string, err error) {
	switch {
	case errors.Is(err, store.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, feeder.ErrValidation):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error(action, "device_id", deviceID, "error", err)
		writeInternalError(w, "device operation failed")
	}
}
