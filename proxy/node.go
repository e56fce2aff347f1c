// Package proxy implements one proxy node: a concurrent request-dispatch
// loop sitting in front of an origin server, with a pluggable cache engine
// (TTL or LRU) and a monotonic metrics counter.
//
// The accept loop follows the same shape the teacher's warming.WorkerPool
// uses for its worker goroutines — one goroutine per unit of concurrent
// work, coordinated only through channels/atomics, never a shared lock
// held across I/O — generalized here to one goroutine per accepted
// connection rather than one per queued task, since every connection
// carries exactly one request (spec.md §4.2, §5).
package proxy

import (
	"net"
	"strconv"
	"time"

	"cachefleet/pkg/cache"
	"cachefleet/pkg/config"
	"cachefleet/pkg/logging"
	"cachefleet/pkg/protocol"
	"cachefleet/pkg/wireclient"
)

// Node is a single proxy: one cache engine, one metrics counter, one
// origin client.
type Node struct {
	host string
	port int

	cache   cache.Engine
	origin  *OriginClient
	metrics *Metrics
	log     *logging.Logger
	warmer  *warmer
}

// New builds a Node from validated configuration, constructing whichever
// cache engine cfg.CacheType selects.
func New(cfg config.ProxyConfig) *Node {
	n := &Node{
		host:    cfg.Host,
		port:    cfg.Port,
		cache:   buildEngine(cfg),
		origin:  NewOriginClient(cfg.OriginHost, cfg.OriginPort),
		metrics: NewMetrics(),
		log:     logging.New("proxy"),
	}

	if cfg.WarmerEnabled && cfg.CacheType == "lru" {
		n.warmer = newWarmer(n, cfg.WarmerThreshold)
	}

	return n
}

func buildEngine(cfg config.ProxyConfig) cache.Engine {
	switch cfg.CacheType {
	case "lru":
		return cache.NewLRUCache(cfg.LRUCapacity)
	default:
		return cache.NewTTLCache(time.Duration(cfg.TTLSeconds) * time.Second)
	}
}

// ListenAndServe binds the configured address and serves connections until
// the listener is closed or an unrecoverable bind error occurs, in which
// case it returns that error for the caller (cmd/proxynode) to treat as
// fatal per spec.md §7.
func (n *Node) ListenAndServe() error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	n.log.Info("listening", logging.F("addr", addr))

	if n.warmer != nil {
		go n.warmer.run()
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go n.handleConnection(conn)
	}
}

// handleConnection implements the full per-connection protocol: one
// bounded read, one parse, one response, then close. Every branch writes
// exactly one response line before returning.
func (n *Node) handleConnection(conn net.Conn) {
	defer conn.Close()

	connID := logging.NewConnectionID()
	line, ok, err := wireclient.ReadRequestLine(conn)
	if err != nil || !ok {
		return
	}

	req := protocol.Parse(line)

	switch req.Kind {
	case protocol.KindMetrics:
		n.respondMetrics(conn)

	case protocol.KindWrongMethod:
		n.log.Warn("wrong_method", logging.F("conn", connID), logging.F("verb", req.Verb))
		n.respondProxy(conn, protocol.WrongMethodStatus(req.Verb), "", false)

	case protocol.KindBadRequest:
		n.log.Warn("bad_request", logging.F("conn", connID), logging.F("reason", req.Reason))
		n.respondProxy(conn, protocol.StatusBadRequest, req.Reason, false)

	case protocol.KindGet:
		n.handleGet(conn, connID, req.Resource, req.Key)
	}
}

func (n *Node) handleGet(conn net.Conn, connID, resource, key string) {
	cacheKey := protocol.CacheKey(resource, key)

	n.metrics.RecordRequest()

	if n.warmer != nil {
		n.warmer.recordAccess(cacheKey)
	}

	if value, found := n.cache.Get(cacheKey); found {
		n.metrics.RecordHit()
		n.respondProxy(conn, protocol.StatusOK, value, true)
		return
	}

	n.metrics.RecordMiss()
	n.metrics.RecordOriginFetch()

	value, outcome := n.origin.Fetch(resource, key)
	if outcome == OriginOK {
		n.cache.Set(cacheKey, value)
	} else {
		n.log.Warn("origin_miss", logging.F("conn", connID), logging.F("key", cacheKey), logging.F("outcome", string(outcome)))
	}

	n.respondProxy(conn, string(outcome), value, false)
}

func (n *Node) respondProxy(conn net.Conn, status string, data interface{}, cacheHit bool) {
	line, err := protocol.MarshalLine(protocol.ProxyResponse{
		Status:   status,
		Data:     data,
		CacheHit: cacheHit,
		Node:     n.port,
	})
	if err != nil {
		return
	}
	_ = wireclient.WriteLine(conn, line)
}

func (n *Node) respondMetrics(conn net.Conn) {
	line, err := protocol.MarshalLine(protocol.ProxyMetricsResponse{
		Status: protocol.StatusOK,
		Data:   n.metrics.Report(),
	})
	if err != nil {
		return
	}
	_ = wireclient.WriteLine(conn, line)
}
