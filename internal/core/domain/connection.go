// Package domain holds the shared types of the bridge: connection status
// snapshots, the connection lifecycle state and its transition records.
package domain

import "time"

// ConnectionStatus is a point-in-time snapshot of agent reachability.
// A fresh value is produced on every probe and never mutated in place.
type ConnectionStatus struct {
	IsRunning          bool `json:"is_running"`
	Port               int  `json:"port"` // 0 when the agent is unreachable
	TransportSupported bool `json:"transport_supported"`
}

// ConnectionState is the consumer-facing lifecycle state of the agent
// connection. It is driven only by resilience telemetry.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateRetrying
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRetrying:
		return "retrying"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// RetryInfo describes the retry in flight while the state is StateRetrying.
type RetryInfo struct {
	Operation   string `json:"operation"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	LastError   string `json:"last_error"`
}

// Transition records one connection state change for auditing.
type Transition struct {
	From      ConnectionState `json:"from"`
	To        ConnectionState `json:"to"`
	Reason    string          `json:"reason"`
	Retry     *RetryInfo      `json:"retry,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
