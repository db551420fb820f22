package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hydroman/server/internal/apperr"
)

// maxBodyBytes caps request bodies at 5 MB, matching the mobile clients'
// largest offline sync batches.
const maxBodyBytes = 5 << 20

// validate checks request DTO struct tags; shared across handlers.
var validate = validator.New()

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response. Messages are client-safe;
// internal detail stays in the server logs.
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// decodeJSON decodes and validates a request body into dst.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", errors.Join(err, apperr.ErrValidation))
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", errors.Join(err, apperr.ErrValidation))
	}
	return nil
}
