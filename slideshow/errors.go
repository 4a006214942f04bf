package slideshow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPhotos is returned when the cache holds nothing to show. The display
	// is left untouched.
	ErrNoPhotos = errors.New("no photos available")

	// ErrPhotoNotFound is returned by GotoSpecific for an unknown identifier.
	ErrPhotoNotFound = errors.New("photo not found")
)

// RenderError wraps a sink failure. The previous photo stays on screen.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// InvalidIntervalError rejects an interval outside IntervalOptions. It is never
// coerced here; the caller picks a default and calls again.
type InvalidIntervalError struct {
	Minutes int
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval %d minutes, must be one of %v", e.Minutes, IntervalOptions)
}
