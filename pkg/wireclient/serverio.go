package wireclient

import (
	"net"
	"strings"

	"cachefleet/pkg/protocol"
)

// ReadRequestLine performs the single bounded read every accepted
// connection on the proxy and load balancer starts with: up to
// protocol.MaxRequestBytes bytes, trimmed of surrounding whitespace. It
// mirrors a single recv(1024) call rather than looping until a newline,
// matching the protocol's one-shot, one-line-per-connection contract.
//
// ok is false when the peer closed the connection without sending
// anything, which callers treat as "nothing to do" rather than an error.
func ReadRequestLine(conn net.Conn) (line string, ok bool, err error) {
	buf := make([]byte, protocol.MaxRequestBytes)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil {
			return "", false, nil
		}
		return "", false, nil
	}
	return strings.TrimSpace(string(buf[:n])), true, nil
}

// WriteLine writes s followed by a trailing newline if s doesn't already
// end with one.
func WriteLine(conn net.Conn, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := conn.Write([]byte(s))
	return err
}
