package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/middleware"
	syncsvc "github.com/hydroman/server/internal/sync"
)

// WaterLogHandler handles the water log sync endpoints
type WaterLogHandler struct {
	sync *syncsvc.Service
}

// NewWaterLogHandler creates a new water log handler
func NewWaterLogHandler(sync *syncsvc.Service) *WaterLogHandler {
	return &WaterLogHandler{sync: sync}
}

// waterLogPayload is one record in a sync batch
type waterLogPayload struct {
	ID        string    `json:"id" validate:"required"`
	AmountMl  int       `json:"amount_ml" validate:"required,gt=0"`
	CupType   string    `json:"cup_type"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// syncWaterLogsRequest is the request body for POST /water-logs/sync
type syncWaterLogsRequest struct {
	Logs []waterLogPayload `json:"logs" validate:"required,min=1,dive"`
}

// HandleList handles GET /water-logs?since=<RFC3339>
func (h *WaterLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid since timestamp")
			return
		}
		since = &t
	}

	logs, err := h.sync.PullWaterLogs(r.Context(), userID, since)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("pull water logs failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

// HandleSync handles POST /water-logs/sync
func (h *WaterLogHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req syncWaterLogsRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "No logs provided")
		return
	}

	batch := make([]syncsvc.WaterLogInput, 0, len(req.Logs))
	for _, l := range req.Logs {
		batch = append(batch, syncsvc.WaterLogInput{
			ID:        l.ID,
			AmountMl:  l.AmountMl,
			CupType:   l.CupType,
			Timestamp: l.Timestamp,
		})
	}

	upserted, err := h.sync.PushWaterLogs(r.Context(), userID, batch)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("sync water logs failed")
		if errors.Is(err, apperr.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, "No logs provided")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"synced": len(upserted),
		"logs":   upserted,
	})
}

// HandleDelete handles DELETE /water-logs/{id}
func (h *WaterLogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.sync.DeleteWaterLog(r.Context(), userID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Log not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("log_id", id).Msg("delete water log failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
		"id":      id,
	})
}
