package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/auth"
	"github.com/hydroman/server/internal/middleware"
	"github.com/hydroman/server/internal/model"
	"github.com/hydroman/server/internal/otp"
	"github.com/hydroman/server/internal/repo"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.Service
	users       repo.UserRepo
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, users repo.UserRepo) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

// sendOTPRequest is the request body for POST /auth/send-otp
type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=10"`
}

// sendOTPResponse is the JSON response for send-otp
type sendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// verifyOTPRequest is the request body for POST /auth/verify-otp
type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// verifyOTPResponse is the JSON response for verify-otp
type verifyOTPResponse struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	IsNewUser bool       `json:"is_new_user"`
}

// HandleSendOTP handles POST /auth/send-otp
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Valid phone number is required")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)

	if err := h.authService.SendOTP(r.Context(), req.Phone); err != nil {
		log.Error().Err(err).Str("phone", otp.MaskPhone(req.Phone)).Msg("send otp failed")
		if errors.Is(err, apperr.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, "Valid phone number is required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	respondJSON(w, http.StatusOK, sendOTPResponse{
		Success: true,
		Message: "OTP sent successfully",
	})
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Phone and OTP code are required")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Code = strings.TrimSpace(req.Code)

	user, token, isNew, err := h.authService.VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		log.Warn().Err(err).Str("phone", otp.MaskPhone(req.Phone)).Msg("otp verification failed")
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			// Deliberately conflates "no challenge" with "expired".
			respondWithError(w, http.StatusUnauthorized, "No pending OTP found or OTP expired")
		case errors.Is(err, apperr.ErrInvalidCode):
			respondWithError(w, http.StatusUnauthorized, "Invalid OTP")
		default:
			respondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, verifyOTPResponse{
		Token:     token,
		User:      user,
		IsNewUser: isNew,
	})
}

// HandleMe handles GET /auth/me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("load user failed")
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
