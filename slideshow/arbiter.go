package slideshow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/einkframe/metrics"
	"github.com/google/uuid"
)

// Lease is the exclusive hold on the display for the duration of one render.
type Lease struct {
	ID       uuid.UUID
	Acquired time.Time
}

// Arbiter serializes every write to the display. Waiters are served in
// arrival order and an in-flight render is never interrupted.
type Arbiter struct {
	sink Sink

	mu      sync.Mutex
	held    bool
	waiters []chan struct{}
}

func NewArbiter(sink Sink) *Arbiter {
	return &Arbiter{sink: sink}
}

// Render blocks until the display lease is free, then hands the photo to the
// sink. Sink failures come back as *RenderError and are not retried.
func (a *Arbiter) Render(ctx context.Context, path string, opts DisplayConfig) error {
	queued := time.Now()
	lease := a.acquire()
	defer a.release()

	wait := lease.Acquired.Sub(queued)
	metrics.LeaseWait.Observe(wait.Seconds())

	// Once the lease is held the panel write runs to completion; a caller
	// that goes away mid render does not cut it short. The sink's own
	// timeout is the only limit.
	err := a.sink.Render(context.WithoutCancel(ctx), path, opts)
	took := time.Since(lease.Acquired)
	metrics.RenderDuration.Observe(took.Seconds())
	if err != nil {
		slog.WarnContext(ctx, "display render failed", "lease", lease.ID, "path", path, "wait", wait, "took", took, "error", err)
		return &RenderError{Path: path, Err: err}
	}

	slog.DebugContext(ctx, "display render done", "lease", lease.ID, "path", path, "wait", wait, "took", took)
	return nil
}

// Waiting reports how many renders are queued behind the current lease.
func (a *Arbiter) Waiting() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiters)
}

func (a *Arbiter) acquire() Lease {
	a.mu.Lock()
	if !a.held {
		a.held = true
		a.mu.Unlock()
		return Lease{ID: uuid.New(), Acquired: time.Now()}
	}

	ready := make(chan struct{})
	a.waiters = append(a.waiters, ready)
	metrics.LeaseQueueDepth.Set(float64(len(a.waiters)))
	a.mu.Unlock()

	<-ready
	return Lease{ID: uuid.New(), Acquired: time.Now()}
}

// release hands the lease straight to the oldest waiter, so held never drops
// to false while someone is queued.
func (a *Arbiter) release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.waiters) == 0 {
		a.held = false
		return
	}

	next := a.waiters[0]
	a.waiters = a.waiters[1:]
	metrics.LeaseQueueDepth.Set(float64(len(a.waiters)))
	close(next)
}
