// Package slideshow schedules photos onto the single frame display and
// serializes every request that wants to draw on it.
package slideshow

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// OrderMode decides how the catalog is traversed.
type OrderMode string

const (
	OrderRandom     OrderMode = "random"
	OrderSequential OrderMode = "sequential"
)

// ParseOrderMode accepts the persisted or user supplied order name.
func ParseOrderMode(s string) (OrderMode, error) {
	switch OrderMode(strings.ToLower(strings.TrimSpace(s))) {
	case OrderRandom:
		return OrderRandom, nil
	case OrderSequential:
		return OrderSequential, nil
	}
	return "", fmt.Errorf("unknown order mode %q", s)
}

// Direction of manual navigation. Ignored under OrderRandom.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// IntervalOptions are the only cycle intervals, in minutes, a job can run at.
var IntervalOptions = []int{5, 15, 30, 60, 180, 360, 720, 1440}

// DefaultIntervalMinutes is what callers substitute for a rejected interval.
const DefaultIntervalMinutes = 60

func ValidInterval(minutes int) bool {
	return slices.Contains(IntervalOptions, minutes)
}

// CachedPhoto is one file as reported by the photo cache.
type CachedPhoto struct {
	ID      string
	Path    string
	ModTime time.Time
}

// PhotoRef identifies a cached photo. Refs are compared by ID only; ModTime is
// used for ordering the catalog.
type PhotoRef struct {
	ID      string    `json:"id"`
	Path    string    `json:"-"`
	ModTime time.Time `json:"modified"`
}

// DisplayConfig are the rendering options handed to the sink.
type DisplayConfig struct {
	Orientation string  `json:"orientation"`
	FitMode     string  `json:"fit_mode"`
	Saturation  float64 `json:"saturation"`
}

// SlideshowConfig is the cycling part of the persisted settings.
type SlideshowConfig struct {
	OrderMode       OrderMode `json:"order"`
	IntervalMinutes int       `json:"interval_minutes"`
	Enabled         bool      `json:"enabled"`
}

// Settings is everything the controller reads at the top of each call.
type Settings struct {
	Slideshow SlideshowConfig `json:"slideshow"`
	Display   DisplayConfig   `json:"display"`
}

// PhotoSource lists the photos currently in the local cache.
type PhotoSource interface {
	ListCachedPhotos() ([]CachedPhoto, error)
}

// Sink performs the slow hardware write. Calls must never overlap; the Arbiter
// guarantees that.
type Sink interface {
	Render(ctx context.Context, path string, opts DisplayConfig) error
}

// SettingsSource provides the current settings. Reads are expected to be cheap.
type SettingsSource interface {
	GetSettings() (*Settings, error)
}
