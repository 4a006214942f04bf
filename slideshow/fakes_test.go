package slideshow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type memPhotos struct {
	mu     sync.Mutex
	photos []CachedPhoto
	err    error
}

func newMemPhotos(n int) *memPhotos {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &memPhotos{}
	for i := range n {
		m.photos = append(m.photos, CachedPhoto{
			ID:      fmt.Sprintf("p%d.jpg", i),
			Path:    fmt.Sprintf("/cache/p%d.jpg", i),
			ModTime: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return m
}

func (m *memPhotos) ListCachedPhotos() ([]CachedPhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]CachedPhoto, len(m.photos))
	copy(out, m.photos)
	return out, nil
}

func (m *memPhotos) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.photos {
		if p.ID == id {
			m.photos = append(m.photos[:i], m.photos[i+1:]...)
			return
		}
	}
}

type recordingSink struct {
	delay time.Duration

	mu       sync.Mutex
	rendered []string
	opts     []DisplayConfig
	failNext error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *recordingSink) Render(_ context.Context, path string, opts DisplayConfig) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.rendered = append(s.rendered, path)
	s.opts = append(s.opts, opts)
	return nil
}

func (s *recordingSink) failOnce(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *recordingSink) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rendered))
	copy(out, s.rendered)
	return out
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rendered)
}

type staticSettings struct {
	mu       sync.Mutex
	settings Settings
}

func newStaticSettings(mode OrderMode) *staticSettings {
	return &staticSettings{settings: Settings{
		Slideshow: SlideshowConfig{OrderMode: mode, IntervalMinutes: 60, Enabled: true},
		Display:   DisplayConfig{Orientation: "landscape", FitMode: "contain", Saturation: 0.5},
	}}
}

func (s *staticSettings) GetSettings() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	return &out, nil
}

func (s *staticSettings) setOrder(mode OrderMode) {
	s.mu.Lock()
	s.settings.Slideshow.OrderMode = mode
	s.mu.Unlock()
}
