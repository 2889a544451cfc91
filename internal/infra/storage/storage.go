// Package storage defines the persistence interfaces for the connection
// audit trail.
package storage

import (
	"context"
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
)

// TransitionRepository records connection state transitions for later
// inspection.
type TransitionRepository interface {
	// Record persists one transition.
	Record(ctx context.Context, t domain.Transition) error

	// Recent returns up to limit transitions, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Transition, error)

	// DeleteOlderThan removes transitions recorded before the cutoff and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
