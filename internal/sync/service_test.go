package sync

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroman/server/internal/apperr"
	"github.com/hydroman/server/internal/model"
)

// fakeWaterLogRepo mimics the store's upsert and pull-since semantics,
// including server-side updated_at stamping.
type fakeWaterLogRepo struct {
	rows map[string]model.WaterLog
	now  time.Time
}

func newFakeWaterLogRepo() *fakeWaterLogRepo {
	return &fakeWaterLogRepo{rows: map[string]model.WaterLog{}, now: time.Now()}
}

// tick advances the fake clock so successive writes get distinct timestamps.
func (f *fakeWaterLogRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeWaterLogRepo) ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.WaterLog, error) {
	var out []model.WaterLog
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if since != nil && !r.UpdatedAt.After(*since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (f *fakeWaterLogRepo) Upsert(ctx context.Context, l model.WaterLog) (model.WaterLog, error) {
	if existing, ok := f.rows[l.ID]; ok {
		// Ownership is immutable after creation.
		l.UserID = existing.UserID
		l.Deleted = existing.Deleted
	}
	l.UpdatedAt = f.tick()
	f.rows[l.ID] = l
	return l, nil
}

func (f *fakeWaterLogRepo) SoftDelete(ctx context.Context, userID uuid.UUID, id string) error {
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return fmt.Errorf("water log %s: %w", id, apperr.ErrNotFound)
	}
	r.Deleted = true
	r.UpdatedAt = f.tick()
	f.rows[id] = r
	return nil
}

type fakeReminderRepo struct {
	rows map[string]model.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{rows: map[string]model.Reminder{}}
}

func (f *fakeReminderRepo) ListByUser(ctx context.Context, userID uuid.UUID, since *time.Time) ([]model.Reminder, error) {
	var out []model.Reminder
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (f *fakeReminderRepo) Upsert(ctx context.Context, r model.Reminder) (model.Reminder, error) {
	if existing, ok := f.rows[r.ID]; ok {
		r.UserID = existing.UserID
	}
	r.UpdatedAt = time.Now()
	f.rows[r.ID] = r
	return r, nil
}

func newTestService() (*Service, *fakeWaterLogRepo, *fakeReminderRepo) {
	wl := newFakeWaterLogRepo()
	rem := newFakeReminderRepo()
	return NewService(wl, rem), wl, rem
}

func TestPushWaterLogs_EmptyBatch(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.PushWaterLogs(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPushWaterLogs_AppliesDefaultsAndOwnership(t *testing.T) {
	svc, repo, _ := newTestService()
	userID := uuid.New()

	upserted, err := svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a1", AmountMl: 250, Timestamp: time.Now()},
	})
	require.NoError(t, err)
	require.Len(t, upserted, 1)
	assert.Equal(t, "glass", upserted[0].CupType)
	assert.Equal(t, userID, repo.rows["a1"].UserID)
}

func TestPushWaterLogs_LastWriteWins(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()
	t1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	_, err := svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a1", AmountMl: 250, Timestamp: t1},
	})
	require.NoError(t, err)

	_, err = svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a1", AmountMl: 500, Timestamp: t2},
	})
	require.NoError(t, err)

	pulled, err := svc.PullWaterLogs(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, pulled, 1, "same identifier merges into one record")
	assert.Equal(t, 500, pulled[0].AmountMl)
}

func TestPushWaterLogs_Idempotent(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()
	in := []WaterLogInput{{ID: "a1", AmountMl: 250, CupType: "bottle", Timestamp: time.Now()}}

	first, err := svc.PushWaterLogs(context.Background(), userID, in)
	require.NoError(t, err)
	second, err := svc.PushWaterLogs(context.Background(), userID, in)
	require.NoError(t, err)

	// Same canonical state, differing only in update timestamp.
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].AmountMl, second[0].AmountMl)
	assert.Equal(t, first[0].CupType, second[0].CupType)
	assert.True(t, second[0].UpdatedAt.After(first[0].UpdatedAt))
}

func TestPullWaterLogs_SinceIsMonotone(t *testing.T) {
	svc, repo, _ := newTestService()
	userID := uuid.New()

	_, err := svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a1", AmountMl: 100, Timestamp: time.Now()},
	})
	require.NoError(t, err)
	cutoff := repo.now

	_, err = svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a2", AmountMl: 200, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	all, err := svc.PullWaterLogs(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	recent, err := svc.PullWaterLogs(context.Background(), userID, &cutoff)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a2", recent[0].ID)
}

func TestDeleteWaterLog_TombstoneStaysPullable(t *testing.T) {
	svc, repo, _ := newTestService()
	userID := uuid.New()

	_, err := svc.PushWaterLogs(context.Background(), userID, []WaterLogInput{
		{ID: "a1", AmountMl: 100, Timestamp: time.Now()},
	})
	require.NoError(t, err)
	cutoff := repo.now

	require.NoError(t, svc.DeleteWaterLog(context.Background(), userID, "a1"))

	pulled, err := svc.PullWaterLogs(context.Background(), userID, &cutoff)
	require.NoError(t, err)
	require.Len(t, pulled, 1, "deletion must be visible to incremental pulls")
	assert.True(t, pulled[0].Deleted)
}

func TestDeleteWaterLog_OwnershipScoped(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()
	other := uuid.New()

	_, err := svc.PushWaterLogs(context.Background(), owner, []WaterLogInput{
		{ID: "a1", AmountMl: 100, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteWaterLog(context.Background(), other, "a1"), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteWaterLog(context.Background(), owner, "missing"), apperr.ErrNotFound)
}

func TestPushReminders_Defaults(t *testing.T) {
	svc, _, repo := newTestService()
	userID := uuid.New()

	disabled := false
	upserted, err := svc.PushReminders(context.Background(), userID, []ReminderInput{
		{ID: "r1", Time: "08:00"},
		{ID: "r2", Time: "12:30", Label: "Lunch", IsEnabled: &disabled, Icon: "bottle"},
	})
	require.NoError(t, err)
	require.Len(t, upserted, 2)

	r1 := repo.rows["r1"]
	assert.True(t, r1.IsEnabled, "is_enabled defaults to true")
	assert.Equal(t, "water_drop", r1.Icon)
	assert.Equal(t, "", r1.Label)

	r2 := repo.rows["r2"]
	assert.False(t, r2.IsEnabled)
	assert.Equal(t, "bottle", r2.Icon)
}

func TestPushReminders_EmptyBatch(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.PushReminders(context.Background(), uuid.New(), []ReminderInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPullReminders_ScheduleOrder(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()

	_, err := svc.PushReminders(context.Background(), userID, []ReminderInput{
		{ID: "r2", Time: "12:30"},
		{ID: "r1", Time: "08:00"},
	})
	require.NoError(t, err)

	pulled, err := svc.PullReminders(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, pulled, 2)
	assert.Equal(t, "r1", pulled[0].ID)
	assert.Equal(t, "r2", pulled[1].ID)
}
