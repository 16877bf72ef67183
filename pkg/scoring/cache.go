package scoring

import (
	"sync"
	"time"
)

// ScoreCache is a short-lived display cache keyed by address. It only
// exists to bound recomputation cost on hot read paths; allocation runs
// must never read from it. Entries older than the configured ttl are
// treated as absent.
type ScoreCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	breakdown *Breakdown
	storedAt  time.Time
}

func NewScoreCache(ttl time.Duration, now func() time.Time) *ScoreCache {
	if now == nil {
		now = time.Now
	}
	return &ScoreCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*cacheEntry),
	}
}

func (c *ScoreCache) Get(address string) (*Breakdown, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[address]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.breakdown, true
}

func (c *ScoreCache) Set(address string, breakdown *Breakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[address] = &cacheEntry{
		breakdown: breakdown,
		storedAt:  c.now(),
	}
}

func (c *ScoreCache) Invalidate(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, address)
}

// Purge drops every entry. Called after each snapshot refresh since the
// underlying facts have changed wholesale.
func (c *ScoreCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
}
