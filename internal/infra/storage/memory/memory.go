// Package memory provides an in-memory transition store used when no
// database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
)

const defaultCapacity = 256

// TransitionStore keeps the most recent transitions in a bounded buffer.
type TransitionStore struct {
	mu       sync.RWMutex
	capacity int
	events   []domain.Transition
}

// NewTransitionStore creates a store bounded at capacity entries; zero or
// negative means the default.
func NewTransitionStore(capacity int) *TransitionStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &TransitionStore{capacity: capacity}
}

// Record persists one transition, evicting the oldest when full.
func (s *TransitionStore) Record(ctx context.Context, t domain.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, t)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// Recent returns up to limit transitions, newest first.
func (s *TransitionStore) Recent(ctx context.Context, limit int) ([]domain.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}

	out := make([]domain.Transition, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// DeleteOlderThan removes transitions stamped before the cutoff.
func (s *TransitionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, t := range s.events {
		if t.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.events = kept
	return removed, nil
}
