// Package buttons turns presses on the frame's GPIO buttons into actions.
package buttons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/einkframe/metrics"
	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pins of the four buttons on the Inky Impression board.
const (
	PinA = "GPIO5"
	PinB = "GPIO6"
	PinC = "GPIO16"
	PinD = "GPIO24"
)

const (
	DefaultDebounce = 500 * time.Millisecond

	// edgePoll bounds how long a pin goroutine waits before checking ctx.
	edgePoll = 200 * time.Millisecond
)

// Action is what a button does once pressed.
type Action func(ctx context.Context) error

// Submitter runs actions off the edge-waiting goroutine.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error) bool
}

type button struct {
	label   string
	pin     gpio.PinIn
	action  Action
	limiter *rate.Limiter
}

// Watcher waits for falling edges on a set of pull-up inputs.
type Watcher struct {
	submit   Submitter
	debounce time.Duration

	buttons []*button
}

func NewWatcher(submit Submitter, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{submit: submit, debounce: debounce}
}

// Add configures pin as a pull-up input reporting falling edges and binds it
// to action.
func (w *Watcher) Add(label string, pin gpio.PinIn, action Action) error {
	if pin == nil {
		return fmt.Errorf("no pin for button %s", label)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("unable to configure pin %s for button %s: %w", pin.Name(), label, err)
	}

	w.buttons = append(w.buttons, &button{
		label:   label,
		pin:     pin,
		action:  action,
		limiter: rate.NewLimiter(rate.Every(w.debounce), 1),
	})
	return nil
}

// Bind looks up a pin by name on the host and adds it.
func (w *Watcher) Bind(label, pinName string, action Action) error {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return fmt.Errorf("gpio pin %s not found", pinName)
	}
	return w.Add(label, pin, action)
}

// Init loads the host drivers needed for gpioreg lookups.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.buttons) == 0 {
		return errors.New("no buttons configured")
	}

	var wg sync.WaitGroup
	for _, b := range w.buttons {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.watch(ctx, b)
		}()
	}
	slog.Info("watching buttons", "count", len(w.buttons))

	wg.Wait()
	return ctx.Err()
}

func (w *Watcher) watch(ctx context.Context, b *button) {
	for ctx.Err() == nil {
		if !b.pin.WaitForEdge(edgePoll) {
			continue
		}
		w.press(b)
	}
}

func (w *Watcher) press(b *button) bool {
	if !b.limiter.Allow() {
		metrics.ButtonPresses.WithLabelValues(b.label, "debounced").Inc()
		return false
	}

	slog.Debug("button pressed", "button", b.label, "pin", b.pin.Name())
	if !w.submit.Submit("button_"+b.label, b.action) {
		metrics.ButtonPresses.WithLabelValues(b.label, "dropped").Inc()
		return false
	}
	metrics.ButtonPresses.WithLabelValues(b.label, "accepted").Inc()
	return true
}
