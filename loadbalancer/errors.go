package loadbalancer

import "errors"

// errNotOK marks a METRICS poll that reached the proxy but reported a
// non-OK status; treated identically to a connection failure (the proxy
// is marked unhealthy for the cycle).
var errNotOK = errors.New("proxy metrics poll: non-OK status")
