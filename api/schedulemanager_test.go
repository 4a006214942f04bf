package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/einkframe/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleManager(t *testing.T, sched store.Schedule, start time.Time) (*ScheduleManager, *fakePower, *clockwork.FakeClock) {
	t.Helper()
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "frame.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.UpsertSchedule(&sched))

	power := &fakePower{enabled: true}
	clock := clockwork.NewFakeClockAt(start)
	s, err := NewScheduleManager(db, power, clock)
	require.NoError(t, err)
	return s, power, clock
}

func TestNewScheduleManager_RequiresDeps(t *testing.T) {
	_, err := NewScheduleManager(nil, &fakePower{}, nil)
	assert.Error(t, err)
}

func TestCheckSchedule_CrossesWindow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 5, 0, 0, 0, time.Local)
	s, power, clock := newScheduleManager(t, store.Schedule{Enabled: true, Start: "06:00", End: "23:00"}, start)

	s.checkSchedule(ctx)
	assert.Empty(t, power.calls)

	clock.Advance(time.Hour + time.Minute)
	s.checkSchedule(ctx)
	assert.Equal(t, []bool{true}, power.calls)

	clock.Advance(time.Hour)
	s.checkSchedule(ctx)
	assert.Equal(t, []bool{true}, power.calls, "inside the window nothing changes")

	clock.Advance(16 * time.Hour)
	s.checkSchedule(ctx)
	assert.Equal(t, []bool{true, false}, power.calls)
}

func TestCheckSchedule_OvernightWindow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 21, 0, 0, 0, time.Local)
	s, power, clock := newScheduleManager(t, store.Schedule{Enabled: true, Start: "22:00", End: "02:00"}, start)

	s.checkSchedule(ctx)
	clock.Advance(time.Hour + time.Minute)
	s.checkSchedule(ctx)
	assert.Equal(t, []bool{true}, power.calls)
}

func TestCheckSchedule_Disabled(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 5, 0, 0, 0, time.Local)
	s, power, clock := newScheduleManager(t, store.Schedule{Enabled: false, Start: "06:00", End: "23:00"}, start)

	s.checkSchedule(ctx)
	clock.Advance(2 * time.Hour)
	s.checkSchedule(ctx)
	assert.Empty(t, power.calls)
}
