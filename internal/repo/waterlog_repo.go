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

const waterLogColumns = `id, amount_ml, cup_type, "timestamp", deleted, updated_at`

// WaterLogRepo defines the interface for water log repository operations.
// Rows are keyed by a client-generated id; deletion is a soft flag so
// tombstones propagate through incremental pulls.
type WaterLogRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.WaterLog, error)
	Upsert(ctx context.Context, logEntry model.WaterLog) (model.WaterLog, error)
	SoftDelete(ctx context.Context, userID uuid.UUID, id string) error
}

type waterLogRepo struct {
	db *sql.DB
}

// NewWaterLogRepo creates a new WaterLogRepo instance
func NewWaterLogRepo(db *sql.DB) WaterLogRepo {
	return &waterLogRepo{db: db}
}

// ListByUser returns the user's logs newest-first. A non-nil since restricts
// the result to rows updated strictly after it, soft-deleted rows included.
func (r *waterLogRepo) ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.WaterLog, error) {
	query := `SELECT ` + waterLogColumns + ` FROM water_logs WHERE user_id = $1 ORDER BY "timestamp" DESC`
	args := []any{userID}
	if since != nil {
		query = `SELECT ` + waterLogColumns + ` FROM water_logs WHERE user_id = $1 AND updated_at > $2 ORDER BY "timestamp" DESC`
		args = append(args, *since)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query water logs: %w", errors.Join(err, apperr.ErrStorage))
	}
	defer rows.Close()

	logs := []model.WaterLog{}
	for rows.Next() {
		var l model.WaterLog
		if err := rows.Scan(&l.ID, &l.AmountMl, &l.CupType, &l.Timestamp, &l.Deleted, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan water log: %w", errors.Join(err, apperr.ErrStorage))
		}
		l.UserID = userID
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate water logs: %w", errors.Join(err, apperr.ErrStorage))
	}
	return logs, nil
}

// Upsert inserts or overwrites the row keyed by the client id, stamping
// updated_at server-side. The stored user_id is never changed by an update.
func (r *waterLogRepo) Upsert(ctx context.Context, logEntry model.WaterLog) (model.WaterLog, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO water_logs (id, user_id, amount_ml, cup_type, "timestamp", updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			amount_ml = EXCLUDED.amount_ml,
			cup_type = EXCLUDED.cup_type,
			"timestamp" = EXCLUDED."timestamp",
			updated_at = now()
		RETURNING `+waterLogColumns,
		logEntry.ID, logEntry.UserID, logEntry.AmountMl, logEntry.CupType, logEntry.Timestamp,
	)

	var l model.WaterLog
	if err := row.Scan(&l.ID, &l.AmountMl, &l.CupType, &l.Timestamp, &l.Deleted, &l.UpdatedAt); err != nil {
		return model.WaterLog{}, fmt.Errorf("upsert water log %s: %w", logEntry.ID, errors.Join(err, apperr.ErrStorage))
	}
	l.UserID = logEntry.UserID
	return l, nil
}

// SoftDelete marks the row deleted, scoped to ownership.
func (r *waterLogRepo) SoftDelete(ctx context.Context, userID uuid.UUID, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE water_logs SET deleted = TRUE, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete water log: %w", errors.Join(err, apperr.ErrStorage))
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("water log %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
