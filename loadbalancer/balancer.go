package loadbalancer

import (
	"encoding/json"
	"net"
	"strconv"

	"cachefleet/pkg/config"
	"cachefleet/pkg/logging"
	"cachefleet/pkg/protocol"
	"cachefleet/pkg/wireclient"
)

// Balancer is the load balancer: one TCP listener, one health registry,
// one stats store, one selector, and a background poller, all sharing the
// same immutable proxy list for the process lifetime.
type Balancer struct {
	host     string
	port     int
	proxies  []string
	strategy string

	health   *healthRegistry
	stats    *statsStore
	selector *selector
	poller   *poller
	throttle *throttle
	log      *logging.Logger
}

// New builds a Balancer from validated configuration.
func New(cfg config.LBConfig) *Balancer {
	health := newHealthRegistry(cfg.Proxies)
	stats := newStatsStore(cfg.Proxies)
	sel := newSelector(health, stats, cfg.Strategy)

	b := &Balancer{
		host:     cfg.Host,
		port:     cfg.Port,
		proxies:  cfg.Proxies,
		strategy: cfg.Strategy,
		health:   health,
		stats:    stats,
		selector: sel,
		throttle: newThrottle(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		log:      logging.New("loadbalancer"),
	}
	b.poller = newPoller(b, cfg.PollInterval)
	return b
}

// ListenAndServe binds the configured address, starts the background
// poller, and serves connections until the listener is closed or a fatal
// bind error occurs.
func (b *Balancer) ListenAndServe() error {
	addr := net.JoinHostPort(b.host, strconv.Itoa(b.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	b.log.Info("listening", logging.F("addr", addr), logging.F("strategy", b.strategy), logging.F("proxies", len(b.proxies)))

	go b.poller.run()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go b.handleConnection(conn)
	}
}

// handleConnection implements spec.md §4.3's per-connection handling: a
// bare METRICS request is answered locally; everything else is forwarded
// verbatim to a selected proxy and the proxy's reply relayed unmodified.
func (b *Balancer) handleConnection(conn net.Conn) {
	defer conn.Close()

	line, ok, err := wireclient.ReadRequestLine(conn)
	if err != nil || !ok {
		return
	}

	parsed := protocol.Parse(line)
	if parsed.Kind == protocol.KindMetrics {
		b.respondMetrics(conn)
		return
	}

	if len(b.proxies) == 0 {
		b.respondPlain(conn, protocol.StatusProxyError, nil)
		return
	}

	addr := b.selector.pick()
	reply, err := b.forward(addr, line+"\n")
	if err != nil {
		b.respondPlain(conn, protocol.StatusProxyUnreachable, err.Error())
		return
	}
	_ = wireclient.WriteLine(conn, reply)
}

// forward opens a connection to addr, sends the client's request line
// verbatim, and validates the single JSON line it reads back. Any
// connection or parse failure marks addr unhealthy; success marks it
// healthy and returns the proxy's raw response line unmodified, so the
// load balancer never reinterprets or reshapes a proxy's reply.
func (b *Balancer) forward(addr, requestLine string) (string, error) {
	reply, err := wireclient.RoundTrip(addr, requestLine)
	if err != nil {
		b.health.markUnhealthy(addr)
		return "", err
	}

	var env protocol.Envelope
	if err := json.Unmarshal([]byte(reply), &env); err != nil {
		b.health.markUnhealthy(addr)
		return "", err
	}

	b.health.markHealthy(addr)
	return reply, nil
}

func (b *Balancer) respondPlain(conn net.Conn, status string, data interface{}) {
	line, err := protocol.MarshalLine(protocol.PlainResponse{Status: status, Data: data})
	if err != nil {
		return
	}
	_ = wireclient.WriteLine(conn, line)
}

// respondMetrics answers the load balancer's own METRICS command,
// throttled by the supplemental rate limiter and with concurrent reads
// coalesced by the supplemental singleflight group (see throttle.go and
// buildMetricsView below).
func (b *Balancer) respondMetrics(conn net.Conn) {
	view, throttled := b.throttle.allow(b.buildMetricsView)

	data := view
	data.Throttled = throttled

	line, err := protocol.MarshalLine(protocol.LBMetricsResponse{Status: protocol.StatusOK, Data: data})
	if err != nil {
		return
	}
	_ = wireclient.WriteLine(conn, line)
}

func (b *Balancer) buildMetricsView() protocol.LBMetricsData {
	healthSnap := b.health.snapshot()
	statsSnap := b.stats.snapshot()

	proxies := make(map[string]protocol.LBProxyView, len(b.proxies))
	for _, addr := range b.proxies {
		proxies[addr] = protocol.LBProxyView{
			Healthy: healthSnap[addr],
			Metrics: statsSnap[addr],
		}
	}

	return protocol.LBMetricsData{
		Strategy:     b.strategy,
		CurrentIndex: b.selector.currentIndex(),
		Proxies:      proxies,
	}
}
