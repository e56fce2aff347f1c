package loadbalancer

import (
	"sync"
	"sync/atomic"

	"cachefleet/pkg/protocol"
)

// statsStore holds the most recently polled MetricsSnapshot for every
// configured proxy, or nil when the last poll of that proxy failed. It is
// read by least_loaded selection and by the load balancer's own METRICS
// response.
type statsStore struct {
	mu    sync.RWMutex
	stats map[string]*protocol.MetricsSnapshot
}

func newStatsStore(proxies []string) *statsStore {
	s := &statsStore{stats: make(map[string]*protocol.MetricsSnapshot, len(proxies))}
	for _, addr := range proxies {
		s.stats[addr] = nil
	}
	return s
}

func (s *statsStore) set(addr string, snap *protocol.MetricsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[addr] = snap
}

func (s *statsStore) get(addr string) *protocol.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[addr]
}

func (s *statsStore) snapshot() map[string]*protocol.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*protocol.MetricsSnapshot, len(s.stats))
	for addr, snap := range s.stats {
		out[addr] = snap
	}
	return out
}

// selector picks the next proxy to forward a request to. It is grounded in
// the original load balancer's pick_proxy: round_robin walks a shared
// cursor over whichever proxy set is currently healthy (or, fail-open, all
// configured proxies); least_loaded picks the healthy proxy with the
// lowest last-known total_requests, treating an unpolled proxy as load 0
// so a freshly started or just-recovered proxy is preferred.
type selector struct {
	health   *healthRegistry
	stats    *statsStore
	strategy string

	cursor atomic.Int64
}

func newSelector(health *healthRegistry, stats *statsStore, strategy string) *selector {
	return &selector{health: health, stats: stats, strategy: strategy}
}

// pick returns the chosen proxy address. It never returns an error: with
// at least one configured proxy there is always a candidate, fail-open
// guarantees that.
func (s *selector) pick() string {
	candidates := s.health.healthyNodes()

	switch s.strategy {
	case "least_loaded":
		return s.pickLeastLoaded(candidates)
	default:
		return s.pickRoundRobin(candidates)
	}
}

func (s *selector) pickRoundRobin(candidates []string) string {
	idx := s.cursor.Add(1) - 1
	return candidates[int(idx)%len(candidates)]
}

func (s *selector) pickLeastLoaded(candidates []string) string {
	best := candidates[0]
	bestLoad := s.loadOf(best)
	for _, addr := range candidates[1:] {
		if load := s.loadOf(addr); load < bestLoad {
			best = addr
			bestLoad = load
		}
	}
	return best
}

func (s *selector) loadOf(addr string) int64 {
	snap := s.stats.get(addr)
	if snap == nil {
		return 0
	}
	return snap.TotalRequests
}

// currentIndex exposes the round-robin cursor for the LB's own METRICS
// report.
func (s *selector) currentIndex() int64 {
	return s.cursor.Load()
}
