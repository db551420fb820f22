package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/metrics"
	"github.com/hydroman/server/internal/repo"
)

const (
	challengeTTL = 5 * time.Minute
	minPhoneLen  = 10

	// placeholderCode is stored in place of the real code. The provider is
	// authoritative for verification; the stored value is never compared.
	placeholderCode = "000000"
)

// Store owns the OTP challenge lifecycle: issue, invalidate, verify, expire.
// Its invariant is at most one active challenge per phone; sending a new OTP
// or completing verification invalidates every other active challenge.
type Store struct {
	challenges repo.OtpRepo
	provider   Provider
}

// NewStore creates a new challenge store.
func NewStore(challenges repo.OtpRepo, provider Provider) *Store {
	return &Store{
		challenges: challenges,
		provider:   provider,
	}
}

// RequestChallenge invalidates any active challenges for the phone, asks the
// provider to issue a new one, and persists the handle with a fixed expiry.
// Nothing is persisted when the provider fails.
func (s *Store) RequestChallenge(ctx context.Context, phone string) error {
	if len(phone) < minPhoneLen {
		return fmt.Errorf("valid phone number is required: %w", apperr.ErrValidation)
	}

	if err := s.challenges.InvalidateActive(ctx, phone); err != nil {
		return err
	}

	reqID, err := s.provider.SendOTP(ctx, phone)
	if err != nil {
		metrics.OTPSentTotal.WithLabelValues("failed").Inc()
		return err
	}

	ch, err := s.challenges.Create(ctx, phone, placeholderCode, reqID, time.Now().Add(challengeTTL))
	if err != nil {
		return err
	}

	metrics.OTPSentTotal.WithLabelValues("success").Inc()
	log.Info().Str("phone", MaskPhone(phone)).Str("req_id", reqID).Time("expires_at", ch.ExpiresAt).Msg("otp challenge issued")
	return nil
}

// VerifyChallenge resolves the latest active challenge for the phone and
// delegates the code check to the provider using the stored handle. On
// success the matched challenge is consumed and all its siblings invalidated;
// on provider rejection nothing is mutated.
func (s *Store) VerifyChallenge(ctx context.Context, phone, code string) error {
	ch, err := s.challenges.GetActiveByPhone(ctx, phone)
	if err != nil {
		return err
	}

	ok, message, err := s.provider.VerifyOTP(ctx, ch.ReqID, code)
	if err != nil {
		metrics.OTPVerifiedTotal.WithLabelValues("failed").Inc()
		return err
	}
	if !ok {
		metrics.OTPVerifiedTotal.WithLabelValues("invalid").Inc()
		log.Info().Str("phone", MaskPhone(phone)).Str("message", message).Msg("otp verification rejected")
		return fmt.Errorf("%s: %w", providerMessage(message), apperr.ErrInvalidCode)
	}

	if err := s.challenges.MarkUsed(ctx, ch.ID); err != nil {
		return err
	}
	// Invalidate any concurrent duplicate challenges for the phone.
	if err := s.challenges.InvalidateActive(ctx, phone); err != nil {
		return err
	}

	metrics.OTPVerifiedTotal.WithLabelValues("success").Inc()
	log.Info().Str("phone", MaskPhone(phone)).Msg("otp verified")
	return nil
}

func providerMessage(message string) string {
	if message == "" {
		return "invalid OTP"
	}
	return message
}

// MaskPhone masks a phone number for logging (e.g. 98******10).
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	masked := make([]byte, len(phone))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[:2], phone[:2])
	copy(masked[len(phone)-2:], phone[len(phone)-2:])
	return string(masked)
}
