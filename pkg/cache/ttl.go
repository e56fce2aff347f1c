package cache

import (
	"sync"
	"time"
)

// ttlEntry pairs a stored value with its absolute expiry.
type ttlEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a thread-safe cache where every entry expires a fixed
// duration after it was last written. The TTL is a property of the cache,
// not of any individual entry: writing the same key again extends its
// expiry by a fresh ttl from that moment.
//
// Expiry is enforced lazily on Get; there is no background sweeper. An
// entry that has outlived its TTL is invisible to Get even though it may
// still be physically present until the next lookup removes it.
type TTLCache struct {
	mu    sync.Mutex
	store map[string]*ttlEntry
	ttl   time.Duration
}

// NewTTLCache creates a TTL-expiring cache with the given time-to-live.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		store: make(map[string]*ttlEntry),
		ttl:   ttl,
	}
}

// Get returns (value, true) if key is present and unexpired. An expired
// entry is removed as part of the lookup and reported as absent.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.store, key)
		return nil, false
	}

	return entry.value, true
}

// Set stores value under key, resetting its expiry to now+ttl.
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &ttlEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes key unconditionally. Returns true if it was present.
func (c *TTLCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.store[key]
	delete(c.store, key)
	return ok
}

// Size returns the number of entries currently stored, including any not
// yet lazily swept past their expiry.
func (c *TTLCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

var _ Engine = (*TTLCache)(nil)
