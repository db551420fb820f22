package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/model"
)

type fakeChallengeStore struct {
	verifyErr error
	requested []string
}

func (f *fakeChallengeStore) RequestChallenge(ctx context.Context, phone string) error {
	f.requested = append(f.requested, phone)
	return nil
}

func (f *fakeChallengeStore) VerifyChallenge(ctx context.Context, phone, code string) error {
	return f.verifyErr
}

type fakeUserRepo struct {
	byPhone map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPhone: map[string]model.User{}}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	for _, u := range f.byPhone {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, ok := f.byPhone[phone]
	if !ok {
		return model.User{}, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) GetOrCreateByPhone(ctx context.Context, phone string) (model.User, bool, error) {
	if u, ok := f.byPhone[phone]; ok {
		return u, false, nil
	}
	u := model.User{ID: uuid.New(), Phone: phone, WeightUnit: "kg"}
	f.byPhone[phone] = u
	return u, true, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfileUpdate) (model.User, error) {
	return model.User{}, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

func TestVerifyOTP_FirstVerificationCreatesUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewService(&fakeChallengeStore{}, users, NewJWTService("test-secret", time.Hour))

	user, token, isNew, err := svc.VerifyOTP(context.Background(), "9876543210", "1234")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "9876543210", user.Phone)
	assert.Nil(t, user.Name, "bare user: profile fields stay null")

	claims, err := NewJWTService("test-secret", time.Hour).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID, "credential carries only the user identifier")
}

func TestVerifyOTP_ExistingUserNotRecreated(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewService(&fakeChallengeStore{}, users, NewJWTService("test-secret", time.Hour))

	first, _, _, err := svc.VerifyOTP(context.Background(), "9876543210", "1234")
	require.NoError(t, err)

	second, _, isNew, err := svc.VerifyOTP(context.Background(), "9876543210", "1234")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
}

func TestVerifyOTP_ChallengeFailurePropagates(t *testing.T) {
	users := newFakeUserRepo()
	store := &fakeChallengeStore{verifyErr: fmt.Errorf("no pending challenge: %w", apperr.ErrNotFound)}
	svc := NewService(store, users, NewJWTService("test-secret", time.Hour))

	_, _, _, err := svc.VerifyOTP(context.Background(), "9876543210", "1234")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, users.byPhone, "no user is created on a failed verification")
}
