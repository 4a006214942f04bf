package slideshow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsTasks(t *testing.T) {
	d := NewDispatcher(2, 8)

	var ran atomic.Int32
	for range 5 {
		require.True(t, d.Submit("next", func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	require.True(t, d.Submit("failing", func(context.Context) error {
		ran.Add(1)
		return errors.New("boom")
	}))

	d.Close()
	assert.Equal(t, int32(6), ran.Load())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1)
	defer d.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, d.Submit("busy", func(context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started

	assert.True(t, d.Submit("queued", func(context.Context) error { return nil }))
	assert.False(t, d.Submit("dropped", func(context.Context) error { return nil }))

	close(block)
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := NewDispatcher(1, 1)
	d.Close()
	d.Close()

	assert.False(t, d.Submit("late", func(context.Context) error { return nil }))
}

func TestDispatcher_WorkersRunConcurrently(t *testing.T) {
	d := NewDispatcher(2, 4)
	defer d.Close()

	var inside atomic.Int32
	release := make(chan struct{})
	for range 2 {
		d.Submit("wait", func(context.Context) error {
			inside.Add(1)
			<-release
			return nil
		})
	}

	assert.Eventually(t, func() bool { return inside.Load() == 2 }, time.Second, time.Millisecond)
	close(release)
}
