// Package sync implements the last-write-wins batch reconciliation protocol
// shared by the two offline-capable collections (water logs, reminders).
// Every upsert stamps updated_at with the server's write time; the client's
// event timestamp never drives pull-since visibility.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/metrics"
	"github.com/hydroman/server/internal/model"
	"github.com/hydroman/server/internal/repo"
)

const (
	defaultCupType = "glass"
	defaultIcon    = "water_drop"
)

// WaterLogInput is one client-submitted water log record. Ownership hints are
// ignored; the reconciler forces the authenticated user.
type WaterLogInput struct {
	ID        string
	AmountMl  int
	CupType   string
	Timestamp time.Time
}

// ReminderInput is one client-submitted reminder record. A nil IsEnabled
// defaults to true.
type ReminderInput struct {
	ID        string
	Time      string
	Label     string
	IsEnabled *bool
	Icon      string
}

// Service reconciles client-submitted batches against stored records.
//
// Batches are processed best-effort, record by record, without a cross-record
// transaction: a failure stops the batch at that record and already-written
// records stay written. Each record is individually atomic via the store's
// upsert.
type Service struct {
	waterLogs repo.WaterLogRepo
	reminders repo.ReminderRepo
}

// NewService creates a new sync service
func NewService(waterLogs repo.WaterLogRepo, reminders repo.ReminderRepo) *Service {
	return &Service{
		waterLogs: waterLogs,
		reminders: reminders,
	}
}

// PullWaterLogs returns the user's water logs newest-first. A non-nil since
// restricts to records updated strictly after it, tombstones included.
func (s *Service) PullWaterLogs(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.WaterLog, error) {
	return s.waterLogs.ListByUser(ctx, userID, since)
}

// PushWaterLogs merges a batch of water logs, keyed by client id.
func (s *Service) PushWaterLogs(ctx context.Context, userID uuid.UUID, batch []WaterLogInput) ([]model.WaterLog, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("no logs provided: %w", apperr.ErrValidation)
	}

	upserted := make([]model.WaterLog, 0, len(batch))
	for _, in := range batch {
		if in.ID == "" {
			return nil, fmt.Errorf("log id is required: %w", apperr.ErrValidation)
		}
		cupType := in.CupType
		if cupType == "" {
			cupType = defaultCupType
		}
		stored, err := s.waterLogs.Upsert(ctx, model.WaterLog{
			ID:        in.ID,
			UserID:    userID,
			AmountMl:  in.AmountMl,
			CupType:   cupType,
			Timestamp: in.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		upserted = append(upserted, stored)
	}

	metrics.SyncedRecordsTotal.WithLabelValues("water_log").Add(float64(len(upserted)))
	log.Info().Str("user_id", userID.String()).Int("synced", len(upserted)).Msg("water logs synced")
	return upserted, nil
}

// DeleteWaterLog soft-deletes a record, scoped to ownership. The tombstone
// stays pullable so other devices learn of the deletion.
func (s *Service) DeleteWaterLog(ctx context.Context, userID uuid.UUID, id string) error {
	return s.waterLogs.SoftDelete(ctx, userID, id)
}

// PullReminders returns the user's reminders in schedule-time order.
func (s *Service) PullReminders(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID, since)
}

// PushReminders merges a batch of reminders, keyed by client id.
func (s *Service) PushReminders(ctx context.Context, userID uuid.UUID, batch []ReminderInput) ([]model.Reminder, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("no reminders provided: %w", apperr.ErrValidation)
	}

	upserted := make([]model.Reminder, 0, len(batch))
	for _, in := range batch {
		if in.ID == "" {
			return nil, fmt.Errorf("reminder id is required: %w", apperr.ErrValidation)
		}
		icon := in.Icon
		if icon == "" {
			icon = defaultIcon
		}
		enabled := true
		if in.IsEnabled != nil {
			enabled = *in.IsEnabled
		}
		stored, err := s.reminders.Upsert(ctx, model.Reminder{
			ID:        in.ID,
			UserID:    userID,
			Time:      in.Time,
			Label:     in.Label,
			IsEnabled: enabled,
			Icon:      icon,
		})
		if err != nil {
			return nil, err
		}
		upserted = append(upserted, stored)
	}

	metrics.SyncedRecordsTotal.WithLabelValues("reminder").Add(float64(len(upserted)))
	log.Info().Str("user_id", userID.String()).Int("synced", len(upserted)).Msg("reminders synced")
	return upserted, nil
}
