package slideshow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/einkframe/metrics"
	"github.com/jonboulle/clockwork"
)

// JobKey names the single cycle job.
const JobKey = "photo_cycle"

// TickFunc performs one automatic cycle.
type TickFunc func(ctx context.Context) error

// JobStatus describes the cycle job.
type JobStatus struct {
	Running         bool       `json:"running"`
	IntervalMinutes int        `json:"interval_minutes"`
	NextRun         *time.Time `json:"next_run"`
}

type cycleJob struct {
	minutes  int
	interval time.Duration
	next     time.Time
	ticker   clockwork.Ticker
	stop     chan struct{}
}

// Scheduler owns the one periodic cycle job. Replacing the job cancels the old
// ticker and arms the new one under the same lock, and a tick that raced with
// the replacement is discarded because its job is no longer current.
type Scheduler struct {
	clock clockwork.Clock
	tick  TickFunc

	mu  sync.Mutex
	job *cycleJob

	wg sync.WaitGroup
}

func NewScheduler(clock clockwork.Clock, tick TickFunc) *Scheduler {
	return &Scheduler{
		clock: clock,
		tick:  tick,
	}
}

// Start arms the job at the given interval, replacing any running one, and
// then runs one cycle right away on the calling goroutine so the display
// reflects the new state without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context, minutes int) error {
	if !ValidInterval(minutes) {
		return &InvalidIntervalError{Minutes: minutes}
	}

	interval := time.Duration(minutes) * time.Minute

	s.mu.Lock()
	s.cancelLocked()
	j := &cycleJob{
		minutes:  minutes,
		interval: interval,
		next:     s.clock.Now().Add(interval),
		ticker:   s.clock.NewTicker(interval),
		stop:     make(chan struct{}),
	}
	s.job = j
	s.wg.Add(1)
	s.mu.Unlock()

	metrics.SlideshowRunning.Set(1)
	slog.Info("slideshow job armed", "job", JobKey, "interval_minutes", minutes, "next_run", j.next)

	go s.loop(j)

	s.runTick(ctx)
	return nil
}

// Stop cancels the job. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.job != nil
	s.cancelLocked()
	s.mu.Unlock()

	metrics.SlideshowRunning.Set(0)
	if wasRunning {
		slog.Info("slideshow job stopped", "job", JobKey)
	}
}

// Close stops the job and waits for a tick in progress to finish.
func (s *Scheduler) Close() {
	s.Stop()
	s.wg.Wait()
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

func (s *Scheduler) Status() JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return JobStatus{}
	}
	next := s.job.next
	return JobStatus{
		Running:         true,
		IntervalMinutes: s.job.minutes,
		NextRun:         &next,
	}
}

func (s *Scheduler) cancelLocked() {
	if s.job == nil {
		return
	}
	s.job.ticker.Stop()
	close(s.job.stop)
	s.job = nil
}

func (s *Scheduler) loop(j *cycleJob) {
	defer s.wg.Done()

	for {
		select {
		case <-j.stop:
			return
		case <-j.ticker.Chan():
			if !s.due(j) {
				return
			}
			s.runTick(context.Background())
		}
	}
}

// due reports whether j is still the current job and moves its next run.
func (s *Scheduler) due(j *cycleJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != j {
		return false
	}
	j.next = s.clock.Now().Add(j.interval)
	return true
}

// runTick never lets a failed cycle stop the schedule; the next interval
// simply tries again.
func (s *Scheduler) runTick(ctx context.Context) {
	err := s.tick(ctx)
	metrics.TicksTotal.WithLabelValues(metrics.StatusLabel(err)).Inc()
	if err != nil {
		slog.WarnContext(ctx, "slideshow cycle failed", "job", JobKey, "error", err)
	}
}
