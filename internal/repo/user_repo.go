package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/model"
)

const userColumns = `id, phone, name, gender, weight_kg, daily_goal_ml, wake_time, sleep_time, weight_unit, created_at, updated_at`

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetOrCreateByPhone(ctx context.Context, phone string) (user model.User, created bool, err error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfileUpdate) (model.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPhone retrieves a user by phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// GetOrCreateByPhone retrieves a user by phone number or creates a bare one.
// The conditional insert makes first-time verification from two devices safe:
// whichever insert loses the conflict simply selects the winner's row.
func (r *userRepo) GetOrCreateByPhone(ctx context.Context, phone string) (model.User, bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (phone)
		VALUES ($1)
		ON CONFLICT (phone) DO NOTHING
	`, phone)
	if err != nil {
		return model.User{}, false, fmt.Errorf("insert user: %w", errors.Join(err, apperr.ErrStorage))
	}
	inserted, _ := result.RowsAffected()

	user, err := r.GetByPhone(ctx, phone)
	if err != nil {
		return model.User{}, false, err
	}
	return user, inserted > 0, nil
}

// UpdateProfile applies a partial profile update, leaving nil fields untouched
// and stamping updated_at.
func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfileUpdate) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			gender = COALESCE($2, gender),
			weight_kg = COALESCE($3, weight_kg),
			daily_goal_ml = COALESCE($4, daily_goal_ml),
			wake_time = COALESCE($5, wake_time),
			sleep_time = COALESCE($6, sleep_time),
			weight_unit = COALESCE($7, weight_unit),
			updated_at = now()
		WHERE id = $8
		RETURNING `+userColumns,
		patch.Name, patch.Gender, patch.WeightKg, patch.DailyGoalMl,
		patch.WakeTime, patch.SleepTime, patch.WeightUnit, id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(
		&idStr,
		&user.Phone,
		&user.Name,
		&user.Gender,
		&user.WeightKg,
		&user.DailyGoalMl,
		&user.WakeTime,
		&user.SleepTime,
		&user.WeightUnit,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("query user: %w", errors.Join(err, apperr.ErrStorage))
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("parse user ID: %w", err)
	}
	return user, nil
}
