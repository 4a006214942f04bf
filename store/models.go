package store

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/aouyang1/einkframe/slideshow"
)

var (
	Orientations = []string{"landscape", "portrait"}
	FitModes     = []string{"contain", "cover"}
)

// DefaultSettings are written on first read.
var DefaultSettings = slideshow.Settings{
	Slideshow: slideshow.SlideshowConfig{
		OrderMode:       slideshow.OrderRandom,
		IntervalMinutes: slideshow.DefaultIntervalMinutes,
		Enabled:         true,
	},
	Display: slideshow.DisplayConfig{
		Orientation: "landscape",
		FitMode:     "contain",
		Saturation:  0.5,
	},
}

// SettingsUpdate is a partial update; nil fields keep their stored value.
type SettingsUpdate struct {
	OrderMode       *string  `json:"order,omitempty"`
	IntervalMinutes *int     `json:"interval_minutes,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
	Orientation     *string  `json:"orientation,omitempty"`
	FitMode         *string  `json:"fit_mode,omitempty"`
	Saturation      *float64 `json:"saturation,omitempty"`
}

// TouchesInterval reports whether the update changes the cycle interval.
func (u SettingsUpdate) TouchesInterval() bool {
	return u.IntervalMinutes != nil
}

// TouchesDisplay reports whether the update changes how photos are drawn.
func (u SettingsUpdate) TouchesDisplay() bool {
	return u.Orientation != nil || u.FitMode != nil || u.Saturation != nil
}

func (u SettingsUpdate) Validate() error {
	if u.OrderMode != nil {
		if _, err := slideshow.ParseOrderMode(*u.OrderMode); err != nil {
			return err
		}
	}
	if u.IntervalMinutes != nil && !slideshow.ValidInterval(*u.IntervalMinutes) {
		return &slideshow.InvalidIntervalError{Minutes: *u.IntervalMinutes}
	}
	if u.Orientation != nil && !slices.Contains(Orientations, *u.Orientation) {
		return fmt.Errorf("orientation must be one of %v, got %q", Orientations, *u.Orientation)
	}
	if u.FitMode != nil && !slices.Contains(FitModes, *u.FitMode) {
		return fmt.Errorf("fit_mode must be one of %v, got %q", FitModes, *u.FitMode)
	}
	if u.Saturation != nil && (*u.Saturation < 0 || *u.Saturation > 1) {
		return fmt.Errorf("saturation must be within [0, 1], got %v", *u.Saturation)
	}
	return nil
}

func (u SettingsUpdate) apply(s *slideshow.Settings) {
	if u.OrderMode != nil {
		mode, _ := slideshow.ParseOrderMode(*u.OrderMode)
		s.Slideshow.OrderMode = mode
	}
	if u.IntervalMinutes != nil {
		s.Slideshow.IntervalMinutes = *u.IntervalMinutes
	}
	if u.Enabled != nil {
		s.Slideshow.Enabled = *u.Enabled
	}
	if u.Orientation != nil {
		s.Display.Orientation = *u.Orientation
	}
	if u.FitMode != nil {
		s.Display.FitMode = *u.FitMode
	}
	if u.Saturation != nil {
		s.Display.Saturation = *u.Saturation
	}
}

// Schedule is the daily window during which the display is powered.
type Schedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

var validScheduleTime = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

func (s Schedule) Validate() error {
	if !validScheduleTime.MatchString(s.Start) {
		return fmt.Errorf("invalid start time format: need 23:15, got %s", s.Start)
	}
	if !validScheduleTime.MatchString(s.End) {
		return fmt.Errorf("invalid end time format: need 23:15, got %s", s.End)
	}
	return nil
}
