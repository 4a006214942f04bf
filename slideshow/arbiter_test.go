package slideshow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateSink blocks every render until the test lets it through.
type gateSink struct {
	started chan string
	proceed chan struct{}

	mu    sync.Mutex
	order []string
}

func newGateSink() *gateSink {
	return &gateSink{started: make(chan string, 16), proceed: make(chan struct{})}
}

func (g *gateSink) Render(_ context.Context, path string, _ DisplayConfig) error {
	g.started <- path
	<-g.proceed
	g.mu.Lock()
	g.order = append(g.order, path)
	g.mu.Unlock()
	return nil
}

func TestArbiter_RendersNeverOverlap(t *testing.T) {
	sink := &recordingSink{delay: 5 * time.Millisecond}
	arb := NewArbiter(sink)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, arb.Render(context.Background(), fmt.Sprintf("/p%d", i), DisplayConfig{}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, sink.count())
	assert.Equal(t, int32(1), sink.maxInFlight.Load())
	assert.Equal(t, 0, arb.Waiting())
}

func TestArbiter_ServesWaitersInArrivalOrder(t *testing.T) {
	sink := newGateSink()
	arb := NewArbiter(sink)

	done := make(chan struct{})
	go func() {
		_ = arb.Render(context.Background(), "first", DisplayConfig{})
		done <- struct{}{}
	}()
	require.Equal(t, "first", <-sink.started)

	for i, name := range []string{"second", "third", "fourth"} {
		go func() {
			_ = arb.Render(context.Background(), name, DisplayConfig{})
			done <- struct{}{}
		}()
		require.Eventually(t, func() bool { return arb.Waiting() == i+1 }, time.Second, time.Millisecond)
	}

	for range 4 {
		sink.proceed <- struct{}{}
		<-done
		select {
		case <-sink.started:
		case <-time.After(10 * time.Millisecond):
		}
	}

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, sink.order)
}

func TestArbiter_SinkErrorReleasesLease(t *testing.T) {
	sink := &recordingSink{}
	sink.failOnce(errors.New("panel busy"))
	arb := NewArbiter(sink)

	err := arb.Render(context.Background(), "/a", DisplayConfig{})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "/a", renderErr.Path)
	assert.ErrorContains(t, err, "panel busy")

	require.NoError(t, arb.Render(context.Background(), "/b", DisplayConfig{}))
	assert.Equal(t, []string{"/b"}, sink.paths())
}

type panicSink struct{}

func (panicSink) Render(context.Context, string, DisplayConfig) error {
	panic("driver crashed")
}

func TestArbiter_PanicReleasesLease(t *testing.T) {
	arb := NewArbiter(panicSink{})

	assert.Panics(t, func() {
		_ = arb.Render(context.Background(), "/a", DisplayConfig{})
	})

	arb.sink = &recordingSink{}
	assert.NoError(t, arb.Render(context.Background(), "/b", DisplayConfig{}))
}

// ctxSink blocks until released and reports whether its context was still
// live when the render finished.
type ctxSink struct {
	started chan struct{}
	proceed chan struct{}
	liveErr error
}

func (s *ctxSink) Render(ctx context.Context, _ string, _ DisplayConfig) error {
	close(s.started)
	<-s.proceed
	s.liveErr = ctx.Err()
	return ctx.Err()
}

func TestArbiter_CallerCancelDoesNotInterruptRender(t *testing.T) {
	sink := &ctxSink{started: make(chan struct{}), proceed: make(chan struct{})}
	arb := NewArbiter(sink)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- arb.Render(ctx, "/a", DisplayConfig{})
	}()

	<-sink.started
	cancel()
	close(sink.proceed)

	require.NoError(t, <-errc)
	assert.NoError(t, sink.liveErr)
}
