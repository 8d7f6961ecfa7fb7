package stream

import (
	"context"
	"sync"
	"time"
)

// DedupeCache suppresses repeat marks for the same identity within a
// minute bucket, so one person standing in front of the camera does not
// hammer the ledger every sampled frame. Entries expire after the TTL
// and a janitor sweeps them out periodically.
type DedupeCache struct {
	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
	cancel  context.CancelFunc
}

// NewDedupeCache builds a cache with the given entry TTL and sweep cadence.
func NewDedupeCache(ttl, sweep time.Duration) *DedupeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if sweep <= 0 {
		sweep = 5 * time.Second
	}
	return &DedupeCache{
		ttl:     ttl,
		sweep:   sweep,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// Seen records the identity for the current minute bucket and reports
// whether it was already present.
func (c *DedupeCache) Seen(identity string) bool {
	now := c.now()
	key := identity + "@" + now.Format("2006-01-02T15:04")

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return true
	}
	c.entries[key] = now
	return false
}

// Start launches the janitor. Stop by cancelling the context or calling Stop.
func (c *DedupeCache) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.purge()
			}
		}
	}()
}

// Stop halts the janitor.
func (c *DedupeCache) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Len reports live entry count, for tests and debug endpoints.
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DedupeCache) purge() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, seen := range c.entries {
		if seen.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}
