package slideshow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aouyang1/einkframe/metrics"
)

type task struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget triggers, such as button presses, on a
// fixed number of workers fed by a bounded queue. Every task still ends at the
// Arbiter, so the pool only bounds how many goroutines pile up behind it.
type Dispatcher struct {
	tasks chan task

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

func NewDispatcher(workers, queue int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		tasks:  make(chan task, queue),
		ctx:    ctx,
		cancel: cancel,
	}

	for range workers {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Submit queues fn without blocking. It returns false when the queue is full
// or the dispatcher is closed.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.tasks <- task{name: name, run: fn}:
		return true
	default:
		metrics.DispatchDropped.WithLabelValues(name).Inc()
		slog.Warn("dispatch queue full, dropping task", "task", name)
		return false
	}
}

// Close stops accepting tasks, lets the queued ones finish and waits for the
// workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for t := range d.tasks {
		if err := t.run(d.ctx); err != nil {
			slog.Warn("dispatched task failed", "task", t.name, "error", err)
		}
	}
}
