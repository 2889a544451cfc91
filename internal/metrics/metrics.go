// Package metrics exposes Prometheus instrumentation for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal counts reachability probes by result.
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signbridge_probes_total",
			Help: "Total number of agent reachability probes",
		},
		[]string{"result"},
	)

	// OperationsTotal counts agent operations by name and outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signbridge_operations_total",
			Help: "Total number of agent operations",
		},
		[]string{"operation", "outcome"},
	)

	// RetriesTotal counts scheduled retries per operation.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signbridge_retries_total",
			Help: "Total number of scheduled retries",
		},
		[]string{"operation"},
	)

	// FailuresTotal counts terminal failures by classification.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signbridge_failures_total",
			Help: "Total number of terminal failures by classification",
		},
		[]string{"classification"},
	)

	// OperationDuration tracks agent round-trip latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signbridge_operation_duration_seconds",
			Help:    "Agent operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ConnectionState mirrors the tracker state (0=disconnected,
	// 1=connecting, 2=connected, 3=retrying, 4=error).
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signbridge_connection_state",
			Help: "Current connection lifecycle state",
		},
	)

	// AgentPort reports the port the agent was last seen on, 0 when
	// unreachable.
	AgentPort = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signbridge_agent_port",
			Help: "Loopback port the agent was last detected on",
		},
	)
)
