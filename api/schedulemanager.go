package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aouyang1/einkframe/store"
	"github.com/jonboulle/clockwork"
)

const scheduleInterval = time.Minute

// ScheduleManager will periodically check the time to decide if we need to turn off or on the display
type ScheduleManager struct {
	db    *store.Database
	power PowerSwitch
	clock clockwork.Clock

	lastCheck time.Time
}

func NewScheduleManager(db *store.Database, power PowerSwitch, clock clockwork.Clock) (*ScheduleManager, error) {
	if db == nil {
		return nil, errors.New("no database provided for scheduler")
	}
	if power == nil {
		return nil, errors.New("no display power switch provided for scheduler")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &ScheduleManager{
		db:    db,
		power: power,
		clock: clock,
	}, nil
}

// scheduleWindow returns today's start and end for the schedule. An end
// before the start rolls over to the next day.
func scheduleWindow(schedule *store.Schedule, now time.Time) (time.Time, time.Time, error) {
	startTime, err := time.Parse("15:04", schedule.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endTime, err := time.Parse("15:04", schedule.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	startDate := time.Date(now.Year(), now.Month(), now.Day(), startTime.Hour(), startTime.Minute(), 0, 0, now.Location())
	endDate := time.Date(now.Year(), now.Month(), now.Day(), endTime.Hour(), endTime.Minute(), 0, 0, now.Location())
	if startTime.After(endTime) {
		endDate = endDate.Add(24 * time.Hour)
	}
	return startDate, endDate, nil
}

func (s *ScheduleManager) checkSchedule(ctx context.Context) {
	schedule, err := s.db.GetSchedule()
	if err != nil {
		slog.Error("unable to get schedule", "error", err)
		return
	}

	if !schedule.Enabled {
		return
	}

	now := s.clock.Now()
	defer func() { s.lastCheck = now }()

	startDate, endDate, err := scheduleWindow(schedule, now)
	if err != nil {
		slog.Warn("schedule with invalid format", "start", schedule.Start, "end", schedule.End, "error", err)
		return
	}

	// crossed into end of schedule - turn off display
	if s.lastCheck.Before(endDate) && !now.Before(endDate) {
		if err := s.power.SetEnabled(ctx, false); err != nil {
			slog.Warn("issue while turning off display for schedule", "error", err)
		} else {
			slog.Info("turning display off for schedule", "time", now)
		}
		return
	}

	// crossed into start of schedule - turn on display
	if !now.Before(startDate) && s.lastCheck.Before(startDate) {
		if err := s.power.SetEnabled(ctx, true); err != nil {
			slog.Warn("issue while turning on display for schedule", "error", err)
		} else {
			slog.Info("turning display on for schedule", "time", now)
		}
		return
	}
}

func (s *ScheduleManager) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(scheduleInterval)
	defer ticker.Stop()

	s.checkSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.checkSchedule(ctx)
		}
	}
}
