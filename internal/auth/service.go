package auth

import (
	"context"
	"fmt"

	"github.com/hydroman/server/internal/metrics"
	"github.com/hydroman/server/internal/model"
	"github.com/hydroman/server/internal/repo"
)

// ChallengeStore is the slice of the OTP store the auth service needs.
type ChallengeStore interface {
	RequestChallenge(ctx context.Context, phone string) error
	VerifyChallenge(ctx context.Context, phone, code string) error
}

// Service orchestrates the authentication flow: OTP challenges on one side,
// user identity and session credentials on the other.
type Service struct {
	challenges ChallengeStore
	users      repo.UserRepo
	jwtService *JWTService
}

// NewService creates a new auth service
func NewService(challenges ChallengeStore, users repo.UserRepo, jwtService *JWTService) *Service {
	return &Service{
		challenges: challenges,
		users:      users,
		jwtService: jwtService,
	}
}

// SendOTP issues a fresh challenge for the phone.
func (s *Service) SendOTP(ctx context.Context, phone string) error {
	return s.challenges.RequestChallenge(ctx, phone)
}

// VerifyOTP verifies the code, resolves or lazily creates the user, and mints
// a session credential. The created flag reports first-time verification.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (model.User, string, bool, error) {
	if err := s.challenges.VerifyChallenge(ctx, phone, code); err != nil {
		return model.User{}, "", false, err
	}

	user, created, err := s.users.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		return model.User{}, "", false, err
	}
	if created {
		metrics.NewUsersTotal.Inc()
	}

	token, err := s.jwtService.Sign(user.ID)
	if err != nil {
		return model.User{}, "", false, fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, created, nil
}
