package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/model"
)

// OtpRepo defines the interface for OTP challenge repository operations.
// Challenge rows are append-only: invalidation sets the used flag, nothing is
// ever deleted.
type OtpRepo interface {
	InvalidateActive(ctx context.Context, phone string) error
	Create(ctx context.Context, phone, code, reqID string, expiresAt time.Time) (model.OtpChallenge, error)
	GetActiveByPhone(ctx context.Context, phone string) (model.OtpChallenge, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

type otpRepo struct {
	db *sql.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

// InvalidateActive marks every unused challenge for the phone as used.
func (r *otpRepo) InvalidateActive(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_codes SET used = TRUE WHERE phone = $1 AND used = FALSE
	`, phone)
	if err != nil {
		return fmt.Errorf("invalidate challenges: %w", errors.Join(err, apperr.ErrStorage))
	}
	return nil
}

// Create inserts a new challenge row carrying the provider request handle.
func (r *otpRepo) Create(ctx context.Context, phone, code, reqID string, expiresAt time.Time) (model.OtpChallenge, error) {
	query := `
		INSERT INTO otp_codes (phone, code, req_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	ch := model.OtpChallenge{
		Phone:     phone,
		Code:      code,
		ReqID:     reqID,
		ExpiresAt: expiresAt,
	}
	var idStr string
	err := r.db.QueryRowContext(ctx, query, phone, code, reqID, expiresAt).Scan(&idStr, &ch.CreatedAt)
	if err != nil {
		return model.OtpChallenge{}, fmt.Errorf("insert challenge: %w", errors.Join(err, apperr.ErrStorage))
	}
	ch.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.OtpChallenge{}, fmt.Errorf("parse challenge ID: %w", err)
	}
	return ch, nil
}

// GetActiveByPhone returns the most recently created unused, unexpired,
// handle-bearing challenge for the phone. The ORDER BY tie-breaks the case of
// multiple active challenges, which correct invalidation should prevent but
// which must still be tolerated.
func (r *otpRepo) GetActiveByPhone(ctx context.Context, phone string) (model.OtpChallenge, error) {
	query := `
		SELECT id, phone, code, req_id, used, expires_at, created_at
		FROM otp_codes
		WHERE phone = $1
		  AND used = FALSE
		  AND expires_at > now()
		  AND req_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	var ch model.OtpChallenge
	var idStr string
	err := r.db.QueryRowContext(ctx, query, phone).Scan(
		&idStr,
		&ch.Phone,
		&ch.Code,
		&ch.ReqID,
		&ch.Used,
		&ch.ExpiresAt,
		&ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OtpChallenge{}, fmt.Errorf("no pending challenge: %w", apperr.ErrNotFound)
		}
		return model.OtpChallenge{}, fmt.Errorf("query challenge: %w", errors.Join(err, apperr.ErrStorage))
	}
	ch.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.OtpChallenge{}, fmt.Errorf("parse challenge ID: %w", err)
	}
	return ch, nil
}

// MarkUsed sets used = TRUE for the challenge.
func (r *otpRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE otp_codes SET used = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark challenge used: %w", errors.Join(err, apperr.ErrStorage))
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("challenge %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
