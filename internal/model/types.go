package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account identified by phone number. Profile fields are
// optional and stay null until the client fills them in.
type User struct {
	ID          uuid.UUID `json:"id"`
	Phone       string    `json:"phone"`
	Name        *string   `json:"name"`
	Gender      *string   `json:"gender"`
	WeightKg    *float64  `json:"weight_kg"`
	DailyGoalMl *int      `json:"daily_goal_ml"`
	WakeTime    *string   `json:"wake_time"`
	SleepTime   *string   `json:"sleep_time"`
	WeightUnit  string    `json:"weight_unit"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name        *string  `json:"name"`
	Gender      *string  `json:"gender"`
	WeightKg    *float64 `json:"weight_kg"`
	DailyGoalMl *int     `json:"daily_goal_ml"`
	WakeTime    *string  `json:"wake_time"`
	SleepTime   *string  `json:"sleep_time"`
	WeightUnit  *string  `json:"weight_unit"`
}

// OtpChallenge is one OTP issuance attempt, tracked pending verification.
// Rows are append-only: challenges are invalidated by setting Used, never
// deleted. Code is a non-functional audit placeholder; verification authority
// lives entirely with the provider, correlated by ReqID.
type OtpChallenge struct {
	ID        uuid.UUID
	Phone     string
	Code      string
	ReqID     string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// WaterLog is a syncable intake record keyed by a client-generated id.
// Soft-deleted rows stay visible to incremental pulls so offline clients can
// learn of deletions.
type WaterLog struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"-"`
	AmountMl  int       `json:"amount_ml"`
	CupType   string    `json:"cup_type"`
	Timestamp time.Time `json:"timestamp"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reminder is a syncable hydration reminder keyed by a client-generated id.
// Reminders are never deleted, only disabled.
type Reminder struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Time      string    `json:"time"`
	Label     string    `json:"label"`
	IsEnabled bool      `json:"is_enabled"`
	Icon      string    `json:"icon"`
	UpdatedAt time.Time `json:"updated_at"`
}
