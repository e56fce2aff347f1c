package loadbalancer

import (
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"cachefleet/pkg/protocol"
)

// throttle guards the load balancer's own METRICS endpoint (spec.md §4.3)
// against poll storms, the same way the teacher's warming.Service guards
// its origin-refresh rate with a golang.org/x/time/rate.Limiter rather
// than a hand-rolled bucket. This is a supplemental, wire-compatible
// addition: it never changes a METRICS reply's status or shape, it only
// sets the reply's throttled flag when the token bucket is exhausted.
//
// It also coalesces concurrent reads with a singleflight.Group: when many
// clients ask for METRICS in the same instant, only one of them actually
// walks the health registry and stats store, and the rest share that
// result. This is deliberately confined to the load balancer's own
// administrative read path — spec.md §9 requires that a proxy's
// origin-fetch-on-miss is never coalesced this way, so singleflight is
// never used there.
type throttle struct {
	limiter *rate.Limiter
	group   singleflight.Group
}

func newThrottle(perSecond float64, burst int) *throttle {
	if perSecond <= 0 {
		perSecond = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// allow runs build (via singleflight, so concurrent callers share one
// execution) and reports whether the token-bucket limit was exceeded at
// the moment of the call. A throttled call still builds (or shares with a
// concurrent in-flight caller) the same view as an unthrottled one — it is
// never refused outright, since spec.md defines no error status for an
// over-limit METRICS request.
func (t *throttle) allow(build func() protocol.LBMetricsData) (protocol.LBMetricsData, bool) {
	throttled := !t.limiter.Allow()

	v, _, _ := t.group.Do("metrics", func() (interface{}, error) {
		return build(), nil
	})
	return v.(protocol.LBMetricsData), throttled
}
