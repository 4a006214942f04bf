package slideshow

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Selection is the result of one navigation step. It remembers what was shown
// before so a failed render can be undone.
type Selection struct {
	Ref      PhotoRef
	previous *PhotoRef
}

// Selector holds the navigation state. The durable state is the identity of the
// last shown photo rather than an index, because the catalog is rebuilt on
// every call and may have grown, shrunk or reordered in between.
type Selector struct {
	source PhotoSource

	mu        sync.Mutex
	lastShown *PhotoRef
	rng       *rand.Rand
}

func NewSelector(source PhotoSource) *Selector {
	now := uint64(time.Now().UnixNano())
	return &Selector{
		source: source,
		rng:    rand.New(rand.NewPCG(now, now>>1|1)),
	}
}

// WithRand replaces the random source, for reproducible draws.
func (s *Selector) WithRand(rng *rand.Rand) *Selector {
	s.mu.Lock()
	s.rng = rng
	s.mu.Unlock()
	return s
}

func (s *Selector) catalog(mode OrderMode) ([]PhotoRef, error) {
	photos, err := s.source.ListCachedPhotos()
	if err != nil {
		return nil, fmt.Errorf("unable to list cached photos, %w", err)
	}
	return BuildCatalog(photos, mode), nil
}

// Next picks the photo that follows the last shown one and records it as shown.
func (s *Selector) Next(dir Direction, mode OrderMode) (Selection, error) {
	catalog, err := s.catalog(mode)
	if err != nil {
		return Selection{}, err
	}
	if len(catalog) == 0 {
		return Selection{}, ErrNoPhotos
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ref PhotoRef
	if mode == OrderSequential {
		ref = catalog[s.sequentialIndex(catalog, dir)]
	} else {
		ref = s.randomPick(catalog)
	}

	return s.record(ref), nil
}

// sequentialIndex steps one position from the last shown photo with wraparound.
// A last shown photo that disappeared from the cache restarts at index 0.
func (s *Selector) sequentialIndex(catalog []PhotoRef, dir Direction) int {
	n := len(catalog)

	var pos int
	switch {
	case s.lastShown == nil && dir == Forward:
		pos = -1
	case s.lastShown == nil:
		pos = 0
	default:
		pos = indexOf(catalog, s.lastShown.ID)
		if pos < 0 {
			return 0
		}
	}

	step := 1
	if dir == Backward {
		step = -1
	}
	return ((pos+step)%n + n) % n
}

// randomPick draws uniformly from the catalog minus the last shown photo. A
// single photo catalog repeats the sole photo.
func (s *Selector) randomPick(catalog []PhotoRef) PhotoRef {
	if len(catalog) == 1 {
		return catalog[0]
	}

	exclude := -1
	if s.lastShown != nil {
		exclude = indexOf(catalog, s.lastShown.ID)
	}
	if exclude < 0 {
		return catalog[s.rng.IntN(len(catalog))]
	}

	i := s.rng.IntN(len(catalog) - 1)
	if i >= exclude {
		i++
	}
	return catalog[i]
}

// Select looks up a specific photo and records it as shown, so later random
// draws exclude it.
func (s *Selector) Select(id string, mode OrderMode) (Selection, error) {
	catalog, err := s.catalog(mode)
	if err != nil {
		return Selection{}, err
	}
	if len(catalog) == 0 {
		return Selection{}, ErrNoPhotos
	}

	i := indexOf(catalog, id)
	if i < 0 {
		return Selection{}, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(catalog[i]), nil
}

func (s *Selector) record(ref PhotoRef) Selection {
	sel := Selection{Ref: ref, previous: s.lastShown}
	shown := ref
	s.lastShown = &shown
	return sel
}

// restore undoes sel if nothing else has been selected since.
func (s *Selector) restore(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastShown != nil && s.lastShown.ID == sel.Ref.ID {
		s.lastShown = sel.previous
	}
}

// confirm records ref as shown after its render completed. Renders queue in
// order but selections from concurrent callers may interleave with them, so the
// last finished render is the truth.
func (s *Selector) confirm(ref PhotoRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shown := ref
	s.lastShown = &shown
}

// Current returns the last shown photo, if any.
func (s *Selector) Current() (PhotoRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastShown == nil {
		return PhotoRef{}, false
	}
	return *s.lastShown, true
}

// Count reports how many photos are currently available.
func (s *Selector) Count() (int, error) {
	photos, err := s.source.ListCachedPhotos()
	if err != nil {
		return 0, fmt.Errorf("unable to list cached photos, %w", err)
	}
	return len(photos), nil
}
