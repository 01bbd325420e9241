package server

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

// WindowCache provides a TTL-based cache for the top-level window list, so
// bursts of list_windows calls do not each walk every client window.
type WindowCache struct {
	mu        sync.Mutex
	windows   []model.Window
	timestamp time.Time
	valid     bool
	ttl       time.Duration
	clock     clockwork.Clock
}

// NewWindowCache creates a new cache. A ttl of 0 disables caching.
func NewWindowCache(ttl time.Duration, clock clockwork.Clock) *WindowCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WindowCache{ttl: ttl, clock: clock}
}

// ListWindows returns the cached list if within TTL, otherwise reads fresh.
func (c *WindowCache) ListWindows(wm platform.WindowManager) ([]model.Window, error) {
	if c.ttl == 0 {
		metrics.WindowCacheRequests.WithLabelValues("miss").Inc()
		return wm.ListWindows()
	}

	c.mu.Lock()
	if c.valid && c.clock.Since(c.timestamp) < c.ttl {
		windows := c.windows
		c.mu.Unlock()
		metrics.WindowCacheRequests.WithLabelValues("hit").Inc()
		return windows, nil
	}
	c.mu.Unlock()

	metrics.WindowCacheRequests.WithLabelValues("miss").Inc()
	windows, err := wm.ListWindows()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.windows, c.timestamp, c.valid = windows, c.clock.Now(), true
	c.mu.Unlock()
	return windows, nil
}

// Invalidate drops the cached list. Anything that moves, launches or kills
// windows calls it.
func (c *WindowCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.windows = nil
	c.mu.Unlock()
}
