package boundary

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

const (
	// DefaultDecisionTTL bounds how long an AI verdict is reused.
	DefaultDecisionTTL = 24 * time.Hour

	// DefaultMaxDecisions bounds the number of cached AI verdicts.
	DefaultMaxDecisions = 10000
)

// DecisionCache stores AI boundary decisions by derived key. It is safe for
// concurrent use; a key always maps to an equivalent decision, so concurrent
// writers for the same key are harmless.
type DecisionCache struct {
	items      *cache.Cache
	maxEntries int
}

// NewDecisionCache creates a cache whose entries expire after ttl, holding at
// most DefaultMaxDecisions entries.
func NewDecisionCache(ttl time.Duration) *DecisionCache {
	return NewBoundedDecisionCache(ttl, DefaultMaxDecisions)
}

// NewBoundedDecisionCache creates a cache whose entries expire after ttl and
// which holds at most maxEntries entries.
func NewBoundedDecisionCache(ttl time.Duration, maxEntries int) *DecisionCache {
	if ttl <= 0 {
		ttl = DefaultDecisionTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxDecisions
	}
	return &DecisionCache{items: cache.New(ttl, time.Hour), maxEntries: maxEntries}
}

// Get returns the cached decision for key.
func (c *DecisionCache) Get(key string) (activity.BoundaryDecision, bool) {
	v, found := c.items.Get(key)
	if !found {
		return activity.BoundaryDecision{}, false
	}
	d, ok := v.(activity.BoundaryDecision)
	return d, ok
}

// Set stores d under key with the default TTL. When the cache is full,
// expired entries are purged first; if it is still full the decision is not
// stored and the next lookup for key classifies again.
func (c *DecisionCache) Set(key string, d activity.BoundaryDecision) {
	if _, found := c.items.Get(key); !found && c.items.ItemCount() >= c.maxEntries {
		c.items.DeleteExpired()
		if c.items.ItemCount() >= c.maxEntries {
			return
		}
	}
	c.items.Set(key, d, cache.DefaultExpiration)
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *DecisionCache) Len() int {
	return c.items.ItemCount()
}
