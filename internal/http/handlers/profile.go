package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/middleware"
	"github.com/hydroman/server/internal/model"
	"github.com/hydroman/server/internal/repo"
)

// ProfileHandler handles profile read/update endpoints
type ProfileHandler struct {
	users repo.UserRepo
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(users repo.UserRepo) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// HandleGet handles GET /profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("load profile failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// HandleUpdate handles PUT /profile. The body is a partial profile; absent
// fields keep their stored values.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var patch model.ProfileUpdate
	if err := decodeJSON(r, w, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("update profile failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
