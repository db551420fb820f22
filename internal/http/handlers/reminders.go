package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/middleware"
	syncsvc "github.com/hydroman/server/internal/sync"
)

// ReminderHandler handles the reminder sync endpoints
type ReminderHandler struct {
	sync *syncsvc.Service
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(sync *syncsvc.Service) *ReminderHandler {
	return &ReminderHandler{sync: sync}
}

// reminderPayload is one record in a sync batch. is_enabled defaults to true
// when absent.
type reminderPayload struct {
	ID        string `json:"id" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Label     string `json:"label"`
	IsEnabled *bool  `json:"is_enabled"`
	Icon      string `json:"icon"`
}

// syncRemindersRequest is the request body for POST /reminders/sync
type syncRemindersRequest struct {
	Reminders []reminderPayload `json:"reminders" validate:"required,min=1,dive"`
}

// HandleList handles GET /reminders
func (h *ReminderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reminders, err := h.sync.PullReminders(r.Context(), userID, nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("pull reminders failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, reminders)
}

// HandleSync handles POST /reminders/sync
func (h *ReminderHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req syncRemindersRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "No reminders provided")
		return
	}

	batch := make([]syncsvc.ReminderInput, 0, len(req.Reminders))
	for _, rem := range req.Reminders {
		batch = append(batch, syncsvc.ReminderInput{
			ID:        rem.ID,
			Time:      rem.Time,
			Label:     rem.Label,
			IsEnabled: rem.IsEnabled,
			Icon:      rem.Icon,
		})
	}

	upserted, err := h.sync.PushReminders(r.Context(), userID, batch)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("sync reminders failed")
		if errors.Is(err, apperr.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, "No reminders provided")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"synced":    len(upserted),
		"reminders": upserted,
	})
}
