package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feederworks/petfeeder-core/internal/feeder"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// handleCreateSchedule adds a recurring feed time for a device.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var input feeder.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	schedule, err := s.schedules.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, feeder.ErrValidation):
			writeValidationError(w, err.Error())
		default:
			s.logger.Error("creating schedule", "device_id", input.DeviceID, "error", err)
			writeInternalError(w, "failed to create schedule")
		}
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

// handleListSchedules returns all feed schedules for a device.
// The path id is the feeder's device id.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	schedules, err := s.schedules.ListByDevice(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("listing schedules", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to fetch schedules")
		return
	}

	writeJSON(w, http.StatusOK, schedules)
}

// handleDeleteSchedule removes a feed schedule by its row id.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return
	}

	if err := s.schedules.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			writeNotFound(w, "schedule not found")
			return
		}
		s.logger.Error("deleting schedule", "schedule_id", id, "error", err)
		writeInternalError(w, "failed to delete schedule")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
