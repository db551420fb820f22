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

const reminderColumns = `id, "time", label, is_enabled, icon, updated_at`

// ReminderRepo defines the interface for reminder repository operations.
// Reminders have no delete path; clients disable them instead.
type ReminderRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.Reminder, error)
	Upsert(ctx context.Context, reminder model.Reminder) (model.Reminder, error)
}

type reminderRepo struct {
	db *sql.DB
}

// NewReminderRepo creates a new ReminderRepo instance
func NewReminderRepo(db *sql.DB) ReminderRepo {
	return &reminderRepo{db: db}
}

// ListByUser returns the user's reminders in schedule-time order. A non-nil
// since restricts to rows updated strictly after it.
func (r *reminderRepo) ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1 ORDER BY "time" ASC`
	args := []any{userID}
	if since != nil {
		query = `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1 AND updated_at > $2 ORDER BY "time" ASC`
		args = append(args, *since)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", errors.Join(err, apperr.ErrStorage))
	}
	defer rows.Close()

	reminders := []model.Reminder{}
	for rows.Next() {
		var rem model.Reminder
		if err := rows.Scan(&rem.ID, &rem.Time, &rem.Label, &rem.IsEnabled, &rem.Icon, &rem.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", errors.Join(err, apperr.ErrStorage))
		}
		rem.UserID = userID
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", errors.Join(err, apperr.ErrStorage))
	}
	return reminders, nil
}

// Upsert inserts or overwrites the row keyed by the client id, stamping
// updated_at server-side.
func (r *reminderRepo) Upsert(ctx context.Context, reminder model.Reminder) (model.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO reminders (id, user_id, "time", label, is_enabled, icon, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			"time" = EXCLUDED."time",
			label = EXCLUDED.label,
			is_enabled = EXCLUDED.is_enabled,
			icon = EXCLUDED.icon,
			updated_at = now()
		RETURNING `+reminderColumns,
		reminder.ID, reminder.UserID, reminder.Time, reminder.Label, reminder.IsEnabled, reminder.Icon,
	)

	var rem model.Reminder
	if err := row.Scan(&rem.ID, &rem.Time, &rem.Label, &rem.IsEnabled, &rem.Icon, &rem.UpdatedAt); err != nil {
		return model.Reminder{}, fmt.Errorf("upsert reminder %s: %w", reminder.ID, errors.Join(err, apperr.ErrStorage))
	}
	rem.UserID = reminder.UserID
	return rem, nil
}
