package loadbalancer

import (
	"encoding/json"
	"time"

	"cachefleet/pkg/logging"
	"cachefleet/pkg/protocol"
	"cachefleet/pkg/wireclient"
)

// pollInterval falls back to spec.md §4.3's 2-second cadence when
// configuration doesn't override it.
const pollInterval = 2 * time.Second

// poller is the background task every Balancer starts on ListenAndServe:
// it walks the configured proxy list sequentially, request by request,
// exactly as the original metrics_loop does, updating both the stats
// store and the health registry from the result. Grounded in the
// teacher's monitoring.Aggregator.Run: a ticker loop with a stop channel
// that survives a per-cycle error without exiting, generalized here from
// a fixed 1-second window aggregation to a sequential per-proxy poll.
type poller struct {
	balancer *Balancer
	interval time.Duration
	log      *logging.Logger
}

func newPoller(b *Balancer, interval time.Duration) *poller {
	if interval <= 0 {
		interval = pollInterval
	}
	return &poller{balancer: b, interval: interval, log: logging.New("loadbalancer-poller")}
}

func (p *poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for range ticker.C {
		p.safeCycle()
	}
}

func (p *poller) safeCycle() {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("poll_cycle_panic", logging.F("recover", r))
		}
	}()
	p.cycle()
}

// cycle polls every configured proxy in order, one at a time. The
// original implementation is deliberately sequential rather than
// concurrent, so a slow or hanging proxy delays the rest of the sweep
// rather than racing it; this implementation preserves that ordering.
func (p *poller) cycle() {
	for _, addr := range p.balancer.proxies {
		snap, err := p.pollOne(addr)
		if err != nil {
			p.balancer.stats.set(addr, nil)
			p.balancer.health.markUnhealthy(addr)
			continue
		}
		p.balancer.stats.set(addr, snap)
		p.balancer.health.markHealthy(addr)
	}
}

func (p *poller) pollOne(addr string) (*protocol.MetricsSnapshot, error) {
	reply, err := wireclient.RoundTrip(addr, protocol.MetricsLine)
	if err != nil {
		return nil, err
	}

	var resp protocol.ProxyMetricsResponse
	if err := json.Unmarshal([]byte(reply), &resp); err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return nil, errNotOK
	}
	snap := resp.Data
	return &snap, nil
}
