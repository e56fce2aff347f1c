// Package cache provides the two interchangeable cache engines used by a
// proxy node: TTL expiry and LRU eviction. Both share a narrow capability
// interface so a proxy can be built against whichever engine its
// configuration selects without caring which one it got.
//
// Design Choices:
//   - Each engine guards its own structures with a sync.Mutex/RWMutex rather
//     than sync.Map; both need ordered eviction (LRU) or atomic
//     check-and-delete semantics (TTL) that sync.Map can't express cleanly.
//   - A global lock per engine is acceptable at the throughput this fleet
//     targets; sharding is a v2 concern, not exercised here.
//   - Expiry and eviction are both enforced lazily/inline, never by a
//     background sweeper, so an idle cache costs nothing between requests.
package cache

// Engine is the narrow contract both cache variants satisfy. None of its
// methods block on I/O.
type Engine interface {
	// Get returns the value stored under key and whether it was present and
	// still valid.
	Get(key string) (interface{}, bool)
	// Set unconditionally stores value under key.
	Set(key string, value interface{})
	// Size reports the approximate number of live entries.
	Size() int
}
