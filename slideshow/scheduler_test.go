package slideshow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickCounter struct {
	n   atomic.Int32
	err error
}

func (c *tickCounter) tick(context.Context) error {
	c.n.Add(1)
	return c.err
}

func (c *tickCounter) count() int {
	return int(c.n.Load())
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), 30))

	assert.Equal(t, 1, ticks.count())
	assert.True(t, s.IsRunning())

	status := s.Status()
	assert.True(t, status.Running)
	assert.Equal(t, 30, status.IntervalMinutes)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, clock.Now().Add(30*time.Minute), *status.NextRun)
}

func TestScheduler_TicksEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), 5))
	clock.BlockUntil(1)

	for want := 2; want <= 4; want++ {
		clock.Advance(5 * time.Minute)
		require.Eventually(t, func() bool { return ticks.count() == want }, time.Second, time.Millisecond)
	}
}

func TestScheduler_RestartReplacesJob(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), 30))
	require.NoError(t, s.Start(context.Background(), 60))
	assert.Equal(t, 2, ticks.count())

	clock.BlockUntil(1)
	assert.Equal(t, 60, s.Status().IntervalMinutes)

	clock.Advance(30 * time.Minute)
	assert.Never(t, func() bool { return ticks.count() > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(30 * time.Minute)
	require.Eventually(t, func() bool { return ticks.count() == 3 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return ticks.count() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestScheduler_InvalidInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	err := s.Start(context.Background(), 10)

	var invalid *InvalidIntervalError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 10, invalid.Minutes)
	assert.Equal(t, 0, ticks.count())
	assert.False(t, s.IsRunning())
}

func TestScheduler_InvalidIntervalKeepsRunningJob(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), 15))
	require.Error(t, s.Start(context.Background(), 7))

	assert.True(t, s.IsRunning())
	assert.Equal(t, 15, s.Status().IntervalMinutes)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{}
	s := NewScheduler(clock, ticks.tick)

	s.Stop()
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(context.Background(), 5))
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, JobStatus{}, s.Status())

	clock.Advance(time.Hour)
	assert.Never(t, func() bool { return ticks.count() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	s.Close()
}

func TestScheduler_FailedTickKeepsSchedule(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := &tickCounter{err: errors.New("render failed")}
	s := NewScheduler(clock, ticks.tick)
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), 5))
	clock.BlockUntil(1)

	clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return ticks.count() == 2 }, time.Second, time.Millisecond)
	clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return ticks.count() == 3 }, time.Second, time.Millisecond)
	assert.True(t, s.IsRunning())
}
