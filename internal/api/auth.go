package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feederworks/petfeeder-core/internal/registration"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// registerUserRequest is the body for POST /api/auth/register. The uid
// comes from the client's auth provider; registering an existing uid
// returns the existing account.
type registerUserRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleRegisterUser creates or returns a user account.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.registration.RegisterUser(r.Context(), req.UID, req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrValidation):
			writeValidationError(w, err.Error())
		case errors.Is(err, store.ErrUserExists):
			writeConflict(w, "email already registered")
		default:
			s.logger.Error("registering user", "error", err)
			writeInternalError(w, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleGetUser returns a user account by uid.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	user, err := s.registration.GetUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("fetching user", "uid", uid, "error", err)
		writeInternalError(w, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
