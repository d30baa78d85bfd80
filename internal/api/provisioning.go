package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feederworks/petfeeder-core/internal/provisioning"
)

// handleProvisioningStatus returns the setup checklist for a device.
func (s *Server) handleProvisioningStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	snap, err := s.provisioning.Snapshot(deviceID)
	if err != nil {
		if errors.Is(err, provisioning.ErrSessionNotFound) {
			writeNotFound(w, "no setup session for device")
			return
		}
		s.logger.Error("fetching setup status", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to fetch setup status")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleProvisioningCancel abandons an in-progress setup session.
func (s *Server) handleProvisioningCancel(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if err := s.provisioning.Cancel(deviceID); err != nil {
		if errors.Is(err, provisioning.ErrSessionNotFound) {
			writeNotFound(w, "no setup session for device")
			return
		}
		s.logger.Error("cancelling setup", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to cancel setup")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
