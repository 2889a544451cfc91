// Package health provides bridge health reporting over HTTP.
package health

import (
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
	"github.com/vietddude/signbridge/internal/core/tracker"
)

// SystemStatus represents the overall health state of the bridge.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full bridge health report.
type Report struct {
	Status              SystemStatus            `json:"status"`
	State               string                  `json:"state"`
	Agent               domain.ConnectionStatus `json:"agent"`
	Retry               *domain.RetryInfo       `json:"retry,omitempty"`
	LastError           string                  `json:"last_error,omitempty"`
	ConsecutiveFailures int                     `json:"consecutive_failures"`
	LastSuccessAt       *time.Time              `json:"last_success_at,omitempty"`
}

// Evaluate builds a health report from the tracker snapshot and the latest
// probe status.
func Evaluate(snap tracker.Snapshot, status domain.ConnectionStatus) Report {
	r := Report{
		Status:              statusFor(snap.State),
		State:               snap.State.String(),
		Agent:               status,
		Retry:               snap.Retry,
		LastError:           snap.LastError,
		ConsecutiveFailures: snap.ConsecutiveFailures,
	}
	if !snap.LastSuccessAt.IsZero() {
		t := snap.LastSuccessAt
		r.LastSuccessAt = &t
	}
	return r
}

func statusFor(state domain.ConnectionState) SystemStatus {
	switch state {
	case domain.StateConnected:
		return StatusHealthy
	case domain.StateConnecting, domain.StateRetrying:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
