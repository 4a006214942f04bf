package infoscreen

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/einkframe/slideshow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPainter_InvalidSize(t *testing.T) {
	_, err := NewPainter(0, 480)
	assert.Error(t, err)
}

func TestLines(t *testing.T) {
	next := time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local)
	lines := Lines(slideshow.InfoScreen{
		Status: slideshow.Status{
			Running:         true,
			IntervalMinutes: 15,
			OrderMode:       slideshow.OrderSequential,
			PhotoCount:      42,
			NextRun:         &next,
			Current:         &slideshow.PhotoRef{ID: "beach.jpg"},
		},
		Address: "http://frame.local:8080",
	})

	assert.Contains(t, lines, "Photos: 42")
	assert.Contains(t, lines, "Slideshow: running every 15 min")
	assert.Contains(t, lines, "Order: sequential")
	assert.Contains(t, lines, "Next change: 09:30")
	assert.Contains(t, lines, "Showing: beach.jpg")
	assert.Contains(t, lines, "Web: http://frame.local:8080")
	assert.Contains(t, lines, "Sync: not configured")
}

func TestLines_Stopped(t *testing.T) {
	lines := Lines(slideshow.InfoScreen{SyncConfigured: true})
	assert.Contains(t, lines, "Slideshow: stopped")
	assert.Contains(t, lines, "Sync: configured")
}

func TestPaint(t *testing.T) {
	p, err := NewPainter(DefaultWidth, DefaultHeight)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "info", "info.png")
	require.NoError(t, p.Paint(slideshow.InfoScreen{Message: "Hello"}, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())
}
