package cache

import (
	"sync"
	"time"

	"docanalyze/internal/models"
)

// DefaultTTL is how long a cached analysis stays valid.
const DefaultTTL = 30 * time.Minute

type entry struct {
	result   *models.AnalysisResult
	storedAt time.Time
}

// AnalysisCache is a single-process TTL cache of analysis detail lookups.
// It only shortcuts repeated fetches of already-persisted results; the
// durable store stays the source of truth. Expired entries are evicted
// lazily on the next Get, there is no background sweep.
type AnalysisCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New builds a cache with the given TTL (DefaultTTL when non-positive).
func New(ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached result for id, treating anything past TTL as
// absent and removing it as a side effect of the failed lookup.
func (c *AnalysisCache) Get(id string) (*models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, id)
		return nil, false
	}
	return e.result, true
}

// Put stores the result under id. Entries are immutable once created; a
// repeated Put simply restarts the clock (last writer wins).
func (c *AnalysisCache) Put(id string, result *models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = entry{result: result, storedAt: c.now()}
}
