package manager

import (
	"sync"
	"time"

	"parkd/pkg/types"
)

// latestResult is the most recent occupancy reading plus its provenance.
type latestResult struct {
	Stats     types.Stats
	Source    string // "capture" or "upload"
	UpdatedAt time.Time
}

// latestCache remembers the last computed statistics for the dashboard.
// Single key, no expiry, written only on successful analyses.
type latestCache struct {
	mu  sync.RWMutex
	val latestResult
	set bool
}

func (c *latestCache) put(r latestResult) {
	c.mu.Lock()
	c.val = r
	c.set = true
	c.mu.Unlock()
}

func (c *latestCache) get() (latestResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val, c.set
}
