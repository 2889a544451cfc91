// Package agent implements the loopback WebSocket transport to the local
// signing agent: endpoint selection, the reachability probe and the
// request/response client.
package agent

import "fmt"

// The agent provisions two fixed loopback listeners: a TLS one for callers
// on a secure origin and a plain one for everyone else. These ports and the
// service path are an external contract and move only together with the
// agent.
const (
	SecurePort = 64443
	PlainPort  = 64646

	ServicePath = "/service/cryptapi"

	loopbackHost = "127.0.0.1"
)

// Endpoint describes one loopback listener of the agent.
type Endpoint struct {
	Scheme string
	Port   int
}

// SelectEndpoint picks the listener matching the caller's transport
// security. A secure caller must use the TLS listener; mixing transports is
// refused by the agent. No fallback between the two is attempted.
func SelectEndpoint(secure bool) Endpoint {
	if secure {
		return Endpoint{Scheme: "wss", Port: SecurePort}
	}
	return Endpoint{Scheme: "ws", Port: PlainPort}
}

// URL returns the dialable URL of the endpoint.
func (e Endpoint) URL() string {
	return fmt.Sprintf("%s://%s:%d%s", e.Scheme, loopbackHost, e.Port, ServicePath)
}
