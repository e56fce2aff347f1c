// Package testorigin is a minimal origin-protocol fixture used only by
// tests. spec.md marks the origin server itself out of scope for this
// repo, but proxy and load-balancer tests still need something real to
// dial, in the same spirit as the teacher's integration tests spinning up
// a real listener on 127.0.0.1:0 rather than mocking the network.
package testorigin

import (
	"net"
	"sync"

	"cachefleet/pkg/protocol"
	"cachefleet/pkg/wireclient"
)

// Server is a tiny in-memory origin: a fixed table of resource/key to
// value, plus an optional failure switch for exercising ORIGIN_FAILURE
// paths.
type Server struct {
	ln net.Listener

	mu      sync.Mutex
	data    map[string]interface{}
	fail    bool
	fetches int
}

// Start launches a listener on 127.0.0.1:0 (an OS-assigned free port) and
// begins serving immediately in a background goroutine.
func Start() *Server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	s := &Server{ln: ln, data: make(map[string]interface{})}
	go s.serve()
	return s
}

// Addr returns the "host:port" string tests can hand to config.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Put seeds a resource/key with a value the origin will serve.
func (s *Server) Put(resource, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[protocol.CacheKey(resource, key)] = value
}

// SetFailing makes every subsequent fetch return ORIGIN_FAILURE, for
// exercising the proxy's failure-handling path.
func (s *Server) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// FetchCount returns how many GET requests this origin has served, so
// tests can assert the no-coalescing invariant: N concurrent misses on
// the same key must produce N origin fetches, not one.
func (s *Server) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	line, ok, err := wireclient.ReadRequestLine(conn)
	if err != nil || !ok {
		return
	}
	req := protocol.Parse(line)

	if req.Kind != protocol.KindGet {
		_ = wireclient.WriteLine(conn, mustLine(protocol.OriginResponse{Status: protocol.StatusBadRequest}))
		return
	}

	s.mu.Lock()
	s.fetches++
	failing := s.fail
	value, found := s.data[protocol.CacheKey(req.Resource, req.Key)]
	s.mu.Unlock()

	switch {
	case failing:
		_ = wireclient.WriteLine(conn, mustLine(protocol.OriginResponse{Status: protocol.StatusOriginFailure}))
	case !found:
		_ = wireclient.WriteLine(conn, mustLine(protocol.OriginResponse{Status: protocol.StatusNotFound}))
	default:
		_ = wireclient.WriteLine(conn, mustLine(protocol.OriginResponse{Status: protocol.StatusOK, Data: value}))
	}
}

func mustLine(v interface{}) string {
	line, err := protocol.MarshalLine(v)
	if err != nil {
		panic(err)
	}
	return line
}
