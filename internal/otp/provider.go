package otp

import "context"

// Provider defines the contract with the remote OTP delivery service. The
// store's invalidation and consumption rules are independent of any concrete
// provider; tests substitute a fake.
type Provider interface {
	// SendOTP issues a challenge for the phone and returns the provider's
	// opaque request handle.
	SendOTP(ctx context.Context, phone string) (reqID string, err error)

	// VerifyOTP checks the user-submitted code against the challenge
	// identified by reqID. A rejected code is reported via ok=false with the
	// provider's message, not an error; err is reserved for transport and
	// configuration failures.
	VerifyOTP(ctx context.Context, reqID, code string) (ok bool, message string, err error)

	// RetryOTP re-delivers an existing challenge, optionally through an
	// alternate channel ("sms", "voice", "email", "whatsapp"). Empty channel
	// lets the provider pick.
	RetryOTP(ctx context.Context, reqID, channel string) error
}
