package quota

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// AdvisoryCounter is the in-memory daily counter layered behind the
// persistent quota. It is deliberately non-authoritative: state is scoped to
// one process, resets on restart, and its limit is configured independently
// of the persistent one. Its job is to keep absorbing abuse during the
// window where the persistent store is down and the engine has failed open.
//
// Entries carry a TTL to the day's reset time, so stale counters are evicted
// lazily without a sweeper goroutine of our own.
type AdvisoryCounter struct {
	// mu serializes the read-check-increment sequence; the cache's own
	// locking only covers single operations.
	mu    sync.Mutex
	cache *gocache.Cache
	now   func() time.Time
}

// NewAdvisoryCounter creates an advisory daily counter. Pass nil for now to
// use time.Now.
func NewAdvisoryCounter(now func() time.Time) *AdvisoryCounter {
	if now == nil {
		now = time.Now
	}
	return &AdvisoryCounter{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
		now:   now,
	}
}

// Allow increments the counter for key if it is below limit, returning
// whether the request was admitted. resetAt bounds the entry's lifetime;
// once it passes, the counter starts over at zero.
func (c *AdvisoryCounter) Allow(key string, limit int, resetAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	if v, found := c.cache.Get(key); found {
		count = v.(int)
	}

	if count >= limit {
		return false
	}

	c.cache.Set(key, count+1, resetAt.Sub(c.now()))
	return true
}

// Count returns the current counter value for key.
func (c *AdvisoryCounter) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, found := c.cache.Get(key); found {
		return v.(int)
	}
	return 0
}
