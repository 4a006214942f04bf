package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/einkframe/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// InfoScreen is the content of the status screen drawn on the display.
type InfoScreen struct {
	Status         Status
	Address        string
	SyncConfigured bool
	Message        string
	GeneratedAt    time.Time
}

// InfoPainter draws an info screen into an image file at path.
type InfoPainter interface {
	Paint(info InfoScreen, path string) error
}

// Status is the slideshow state reported to the web, cli and info screen.
type Status struct {
	Running         bool       `json:"running"`
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"interval_minutes"`
	OrderMode       OrderMode  `json:"order"`
	PhotoCount      int        `json:"photo_count"`
	NextRun         *time.Time `json:"next_run"`
	Current         *PhotoRef  `json:"current,omitempty"`
}

// ControllerConfig wires the controller to its collaborators.
type ControllerConfig struct {
	Settings SettingsSource
	Photos   PhotoSource
	Sink     Sink
	Clock    clockwork.Clock

	// Info and InfoPath are optional; without them ShowInfo fails.
	Info     InfoPainter
	InfoPath string
}

// Controller is the only entry point surrounding code uses. Every navigation
// reads the settings, selects under the selector lock, releases it, and only
// then waits for the display lease.
type Controller struct {
	settings  SettingsSource
	selector  *Selector
	arbiter   *Arbiter
	scheduler *Scheduler
	clock     clockwork.Clock

	info     InfoPainter
	infoPath string
	infoOnce singleflight.Group
}

func NewController(cfg ControllerConfig) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	c := &Controller{
		settings: cfg.Settings,
		selector: NewSelector(cfg.Photos),
		arbiter:  NewArbiter(cfg.Sink),
		clock:    clock,
		info:     cfg.Info,
		infoPath: cfg.InfoPath,
	}
	c.scheduler = NewScheduler(clock, c.Tick)
	return c
}

// Selector exposes the navigation state, mostly for tests and diagnostics.
func (c *Controller) Selector() *Selector {
	return c.selector
}

// Next shows the photo after the current one.
func (c *Controller) Next(ctx context.Context) (PhotoRef, error) {
	return c.navigate(ctx, "next", func(mode OrderMode) (Selection, error) {
		return c.selector.Next(Forward, mode)
	})
}

// Previous shows the photo before the current one. Under random order it is
// just another photo that differs from the current one.
func (c *Controller) Previous(ctx context.Context) (PhotoRef, error) {
	return c.navigate(ctx, "previous", func(mode OrderMode) (Selection, error) {
		return c.selector.Next(Backward, mode)
	})
}

// GotoSpecific shows the photo with the given identifier.
func (c *Controller) GotoSpecific(ctx context.Context, id string) (PhotoRef, error) {
	return c.navigate(ctx, "goto", func(mode OrderMode) (Selection, error) {
		return c.selector.Select(id, mode)
	})
}

// Tick is one automatic advance. It does not touch the job.
func (c *Controller) Tick(ctx context.Context) error {
	_, err := c.navigate(ctx, "tick", func(mode OrderMode) (Selection, error) {
		return c.selector.Next(Forward, mode)
	})
	return err
}

// ShowCurrent redraws the current photo, for instance after the display
// settings changed. With nothing shown yet it advances instead.
func (c *Controller) ShowCurrent(ctx context.Context) (PhotoRef, error) {
	current, ok := c.selector.Current()
	if !ok {
		return c.Next(ctx)
	}

	ref, err := c.GotoSpecific(ctx, current.ID)
	if errors.Is(err, ErrPhotoNotFound) {
		return c.Next(ctx)
	}
	return ref, err
}

// Start arms the cycle job and shows a photo immediately.
func (c *Controller) Start(ctx context.Context, minutes int) error {
	return c.scheduler.Start(ctx, minutes)
}

// Stop cancels the cycle job. It is safe to call when already stopped.
func (c *Controller) Stop() {
	c.scheduler.Stop()
}

func (c *Controller) IsRunning() bool {
	return c.scheduler.IsRunning()
}

// Close stops the job and waits for an in-flight tick.
func (c *Controller) Close() {
	c.scheduler.Close()
}

func (c *Controller) Status() (Status, error) {
	settings, err := c.settings.GetSettings()
	if err != nil {
		return Status{}, fmt.Errorf("unable to read settings, %w", err)
	}

	count, err := c.selector.Count()
	if err != nil {
		return Status{}, err
	}

	job := c.scheduler.Status()
	status := Status{
		Running:         job.Running,
		Enabled:         settings.Slideshow.Enabled,
		IntervalMinutes: settings.Slideshow.IntervalMinutes,
		OrderMode:       settings.Slideshow.OrderMode,
		PhotoCount:      count,
		NextRun:         job.NextRun,
	}
	if job.Running {
		status.IntervalMinutes = job.IntervalMinutes
	}
	if current, ok := c.selector.Current(); ok {
		status.Current = &current
	}
	return status, nil
}

// ShowInfo draws the info screen through the display lease. Requests that
// arrive while one is being drawn share its result.
func (c *Controller) ShowInfo(ctx context.Context, info InfoScreen) error {
	if c.info == nil || c.infoPath == "" {
		return errors.New("info screen is not configured")
	}

	_, err, shared := c.infoOnce.Do("info", func() (any, error) {
		status, err := c.Status()
		if err != nil {
			return nil, err
		}
		info.Status = status
		info.GeneratedAt = c.clock.Now()

		if err := c.info.Paint(info, c.infoPath); err != nil {
			return nil, fmt.Errorf("unable to paint info screen, %w", err)
		}

		settings, err := c.settings.GetSettings()
		if err != nil {
			return nil, fmt.Errorf("unable to read settings, %w", err)
		}

		err = c.arbiter.Render(ctx, c.infoPath, settings.Display)
		metrics.RendersTotal.WithLabelValues("info", metrics.StatusLabel(err)).Inc()
		return nil, err
	})
	if shared {
		slog.DebugContext(ctx, "info screen request coalesced")
	}
	return err
}

func (c *Controller) navigate(ctx context.Context, trigger string, pick func(OrderMode) (Selection, error)) (PhotoRef, error) {
	settings, err := c.settings.GetSettings()
	if err != nil {
		return PhotoRef{}, fmt.Errorf("unable to read settings, %w", err)
	}

	sel, err := pick(settings.Slideshow.OrderMode)
	if err != nil {
		metrics.RendersTotal.WithLabelValues(trigger, "skipped").Inc()
		return PhotoRef{}, err
	}

	if err := c.arbiter.Render(ctx, sel.Ref.Path, settings.Display); err != nil {
		c.selector.restore(sel)
		metrics.RendersTotal.WithLabelValues(trigger, "error").Inc()
		return PhotoRef{}, err
	}
	c.selector.confirm(sel.Ref)

	metrics.RendersTotal.WithLabelValues(trigger, "success").Inc()
	slog.InfoContext(ctx, "showing photo", "trigger", trigger, "id", sel.Ref.ID, "order", settings.Slideshow.OrderMode)
	return sel.Ref, nil
}
