package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/aouyang1/einkframe/photocache"
	"github.com/jonboulle/clockwork"
)

const localCheckInterval = 24 * time.Hour

// LocalManager keeps the cache under its photo limit by dropping the oldest
// files.
type LocalManager struct {
	cache *photocache.Cache
	limit int
	clock clockwork.Clock
}

func NewLocalManager(cache *photocache.Cache, limit int, clock clockwork.Clock) *LocalManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalManager{cache: cache, limit: limit, clock: clock}
}

func (l *LocalManager) enforce() {
	removed, err := l.cache.EnforceLimit(l.limit)
	if err != nil {
		slog.Warn("error enforcing cache limit", "path", l.cache.Dir, "error", err)
		return
	}
	if len(removed) > 0 {
		slog.Info("trimmed photo cache", "removed", len(removed), "limit", l.limit)
	}
}

func (l *LocalManager) Run(ctx context.Context) {
	ticker := l.clock.NewTicker(localCheckInterval)
	defer ticker.Stop()

	// Initial scan
	l.enforce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.enforce()
		}
	}
}
