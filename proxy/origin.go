package proxy

import (
	"encoding/json"
	"fmt"

	"cachefleet/pkg/protocol"
	"cachefleet/pkg/wireclient"
)

// OriginClient mediates between a cache miss and the upstream origin
// server. It is intentionally the only place a proxy opens a connection
// to the origin; there is no per-key deduplication here — spec.md §9
// requires that concurrent misses on the same key may each independently
// reach the origin, so this type is called directly by every miss rather
// than behind a coalescing layer.
type OriginClient struct {
	addr string
}

// NewOriginClient returns a client that dials host:port for every fetch.
func NewOriginClient(host string, port int) *OriginClient {
	return &OriginClient{addr: fmt.Sprintf("%s:%d", host, port)}
}

// OriginOutcome is the three-way result of an origin fetch.
type OriginOutcome string

const (
	OriginOK       OriginOutcome = protocol.StatusOK
	OriginNotFound OriginOutcome = protocol.StatusNotFound
	OriginFailure  OriginOutcome = protocol.StatusOriginFailure
)

// Fetch opens a fresh connection to the origin, issues
// "GET <resource>/<key>\n", and maps the reply to (data, outcome):
// origin OK -> (data, OriginOK); origin NOT_FOUND -> (nil, OriginNotFound);
// any connection failure, parse failure, or other status ->
// (nil, OriginFailure). The connection is always closed before Fetch
// returns.
func (c *OriginClient) Fetch(resource, key string) (interface{}, OriginOutcome) {
	line, err := wireclient.RoundTrip(c.addr, protocol.BuildGetLine(resource, key))
	if err != nil {
		return nil, OriginFailure
	}

	var resp protocol.OriginResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, OriginFailure
	}

	switch resp.Status {
	case protocol.StatusOK:
		return resp.Data, OriginOK
	case protocol.StatusNotFound:
		return nil, OriginNotFound
	default:
		return nil, OriginFailure
	}
}
