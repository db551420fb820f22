// Package apperr defines the error taxonomy shared by services, repositories
// and HTTP handlers. Callers wrap these sentinels with fmt.Errorf("...: %w", ...)
// and the request boundary maps them to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks malformed or missing client input (HTTP 400).
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a missing active resource. OTP flows surface it as 401
	// (deliberately conflating "no challenge" with "expired"); ownership
	// lookups surface it as 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCode marks a code the provider rejected (HTTP 401).
	ErrInvalidCode = errors.New("invalid code")

	// ErrProvider marks an unreachable or misconfigured SMS provider (HTTP 500).
	ErrProvider = errors.New("otp provider failure")

	// ErrStorage marks an underlying store failure (HTTP 500).
	ErrStorage = errors.New("storage failure")
)
