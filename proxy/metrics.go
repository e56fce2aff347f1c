package proxy

import (
	"sync/atomic"
	"time"

	"cachefleet/pkg/protocol"
)

// Metrics tallies per-proxy request counters. All fields are touched by
// every connection handler goroutine concurrently, so each is an
// sync/atomic counter rather than a mutex-guarded struct — mirroring the
// teacher's cache-manager Metrics type, which uses the same pattern for
// the same reason: a global lock here would serialize every request.
//
// Counters only ever increase; nothing resets them at runtime (spec.md §3).
type Metrics struct {
	totalRequests atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	originFetches atomic.Int64
	startTime     time.Time
}

// NewMetrics creates a metrics counter stamped with the current time as
// its start time.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordRequest increments total_requests. Called before the cache lookup
// for every well-formed request.
func (m *Metrics) RecordRequest() { m.totalRequests.Add(1) }

// RecordHit increments cache_hits.
func (m *Metrics) RecordHit() { m.cacheHits.Add(1) }

// RecordMiss increments cache_misses.
func (m *Metrics) RecordMiss() { m.cacheMisses.Add(1) }

// RecordOriginFetch increments origin_fetches. Called on every miss
// regardless of the fetch's outcome.
func (m *Metrics) RecordOriginFetch() { m.originFetches.Add(1) }

// Report produces a point-in-time snapshot, computing hit_rate as
// hits/(hits+misses) with hit_rate=0 when the denominator is zero.
func (m *Metrics) Report() protocol.MetricsSnapshot {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return protocol.MetricsSnapshot{
		TotalRequests: m.totalRequests.Load(),
		CacheHits:     hits,
		CacheMisses:   misses,
		OriginFetches: m.originFetches.Load(),
		HitRate:       hitRate,
		StartTime:     m.startTime,
	}
}
