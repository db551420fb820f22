package otp

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

// fakeOtpRepo is an in-memory OtpRepo. Rows are append-only, as in the real
// table.
type fakeOtpRepo struct {
	rows []model.OtpChallenge
}

func (f *fakeOtpRepo) InvalidateActive(ctx context.Context, phone string) error {
	for i := range f.rows {
		if f.rows[i].Phone == phone && !f.rows[i].Used {
			f.rows[i].Used = true
		}
	}
	return nil
}

func (f *fakeOtpRepo) Create(ctx context.Context, phone, code, reqID string, expiresAt time.Time) (model.OtpChallenge, error) {
	ch := model.OtpChallenge{
		ID:        uuid.New(),
		Phone:     phone,
		Code:      code,
		ReqID:     reqID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.rows = append(f.rows, ch)
	return ch, nil
}

func (f *fakeOtpRepo) GetActiveByPhone(ctx context.Context, phone string) (model.OtpChallenge, error) {
	var latest *model.OtpChallenge
	for i := range f.rows {
		r := &f.rows[i]
		if r.Phone != phone || r.Used || r.ReqID == "" || !r.ExpiresAt.After(time.Now()) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return model.OtpChallenge{}, fmt.Errorf("no pending challenge: %w", apperr.ErrNotFound)
	}
	return *latest, nil
}

func (f *fakeOtpRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Used = true
			return nil
		}
	}
	return fmt.Errorf("challenge %s: %w", id, apperr.ErrNotFound)
}

func (f *fakeOtpRepo) active(phone string) []model.OtpChallenge {
	var out []model.OtpChallenge
	for _, r := range f.rows {
		if r.Phone == phone && !r.Used && r.ReqID != "" && r.ExpiresAt.After(time.Now()) {
			out = append(out, r)
		}
	}
	return out
}

// fakeProvider scripts provider behaviour per call.
type fakeProvider struct {
	sendErr   error
	verifyOK  bool
	verifyErr error
	nextReqID int
	verified  []string
}

func (f *fakeProvider) SendOTP(ctx context.Context, phone string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextReqID++
	return fmt.Sprintf("REQ%d", f.nextReqID), nil
}

func (f *fakeProvider) VerifyOTP(ctx context.Context, reqID, code string) (bool, string, error) {
	if f.verifyErr != nil {
		return false, "", f.verifyErr
	}
	if !f.verifyOK {
		return false, "OTP mismatch", nil
	}
	f.verified = append(f.verified, reqID)
	return true, "verified", nil
}

func (f *fakeProvider) RetryOTP(ctx context.Context, reqID, channel string) error { return nil }

const testPhone = "9876543210"

func TestRequestChallenge_ValidatesPhone(t *testing.T) {
	store := NewStore(&fakeOtpRepo{}, &fakeProvider{})

	assert.ErrorIs(t, store.RequestChallenge(context.Background(), ""), apperr.ErrValidation)
	assert.ErrorIs(t, store.RequestChallenge(context.Background(), "12345"), apperr.ErrValidation)
}

func TestRequestChallenge_SingleActiveChallenge(t *testing.T) {
	repo := &fakeOtpRepo{}
	store := NewStore(repo, &fakeProvider{})

	require.NoError(t, store.RequestChallenge(context.Background(), testPhone))

	active := repo.active(testPhone)
	require.Len(t, active, 1)
	assert.Equal(t, "REQ1", active[0].ReqID)
	assert.Equal(t, placeholderCode, active[0].Code)
	assert.WithinDuration(t, time.Now().Add(challengeTTL), active[0].ExpiresAt, 2*time.Second)
}

func TestRequestChallenge_SecondRequestInvalidatesFirst(t *testing.T) {
	repo := &fakeOtpRepo{}
	store := NewStore(repo, &fakeProvider{})

	require.NoError(t, store.RequestChallenge(context.Background(), testPhone))
	first := repo.active(testPhone)[0]

	require.NoError(t, store.RequestChallenge(context.Background(), testPhone))

	active := repo.active(testPhone)
	require.Len(t, active, 1)
	assert.NotEqual(t, first.ID, active[0].ID)
	assert.Len(t, repo.rows, 2, "invalidated rows are kept, not deleted")
}

func TestRequestChallenge_ProviderFailurePersistsNothing(t *testing.T) {
	repo := &fakeOtpRepo{}
	provider := &fakeProvider{sendErr: fmt.Errorf("unreachable: %w", apperr.ErrProvider)}
	store := NewStore(repo, provider)

	err := store.RequestChallenge(context.Background(), testPhone)
	assert.ErrorIs(t, err, apperr.ErrProvider)
	assert.Empty(t, repo.rows)
}

func TestVerifyChallenge_NoActiveChallenge(t *testing.T) {
	store := NewStore(&fakeOtpRepo{}, &fakeProvider{verifyOK: true})

	err := store.VerifyChallenge(context.Background(), testPhone, "1234")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerifyChallenge_ExpiredChallenge(t *testing.T) {
	repo := &fakeOtpRepo{}
	repo.rows = append(repo.rows, model.OtpChallenge{
		ID:        uuid.New(),
		Phone:     testPhone,
		ReqID:     "REQ1",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-6 * time.Minute),
	})
	store := NewStore(repo, &fakeProvider{verifyOK: true})

	err := store.VerifyChallenge(context.Background(), testPhone, "1234")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "expiry and absence are the same observable outcome")
}

func TestVerifyChallenge_SuccessConsumesAndInvalidatesSiblings(t *testing.T) {
	repo := &fakeOtpRepo{}
	provider := &fakeProvider{verifyOK: true}
	store := NewStore(repo, provider)

	// Two active challenges simulate the concurrent duplicate case the
	// invariant must tolerate.
	_, _ = repo.Create(context.Background(), testPhone, placeholderCode, "REQ-OLD", time.Now().Add(challengeTTL))
	repo.rows[0].CreatedAt = time.Now().Add(-time.Minute)
	_, _ = repo.Create(context.Background(), testPhone, placeholderCode, "REQ-NEW", time.Now().Add(challengeTTL))

	require.NoError(t, store.VerifyChallenge(context.Background(), testPhone, "1234"))

	assert.Equal(t, []string{"REQ-NEW"}, provider.verified, "tie-break picks the most recently created")
	assert.Empty(t, repo.active(testPhone), "all challenges inactive after success")
}

func TestVerifyChallenge_RejectionMutatesNothing(t *testing.T) {
	repo := &fakeOtpRepo{}
	store := NewStore(repo, &fakeProvider{verifyOK: false})

	repo.Create(context.Background(), testPhone, placeholderCode, "REQ1", time.Now().Add(challengeTTL))

	err := store.VerifyChallenge(context.Background(), testPhone, "0000")
	assert.ErrorIs(t, err, apperr.ErrInvalidCode)
	assert.Len(t, repo.active(testPhone), 1, "rejection leaves the challenge active")
}

func TestVerifyChallenge_SecondVerifyAfterSuccess(t *testing.T) {
	repo := &fakeOtpRepo{}
	store := NewStore(repo, &fakeProvider{verifyOK: true})

	require.NoError(t, store.RequestChallenge(context.Background(), testPhone))
	require.NoError(t, store.VerifyChallenge(context.Background(), testPhone, "1234"))

	err := store.VerifyChallenge(context.Background(), testPhone, "1234")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "consumed challenge cannot be replayed")
}

func TestVerifyChallenge_ProviderTransportFailure(t *testing.T) {
	repo := &fakeOtpRepo{}
	store := NewStore(repo, &fakeProvider{verifyErr: fmt.Errorf("timeout: %w", apperr.ErrProvider)})

	repo.Create(context.Background(), testPhone, placeholderCode, "REQ1", time.Now().Add(challengeTTL))

	err := store.VerifyChallenge(context.Background(), testPhone, "1234")
	assert.ErrorIs(t, err, apperr.ErrProvider)
	assert.Len(t, repo.active(testPhone), 1)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "98******10", MaskPhone(testPhone))
	assert.Equal(t, "****", MaskPhone("123"))
}
