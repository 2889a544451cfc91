package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
)

func TestTransitionStoreRecent(t *testing.T) {
	s := NewTransitionStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := s.Record(ctx, domain.Transition{
			From:   domain.StateDisconnected,
			To:     domain.StateConnecting,
			Reason: fmt.Sprintf("event %d", i),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d transitions, want 3", len(got))
	}
	// Newest first.
	if got[0].Reason != "event 4" || got[2].Reason != "event 2" {
		t.Errorf("unexpected order: %v, %v", got[0].Reason, got[2].Reason)
	}
}

func TestTransitionStoreEviction(t *testing.T) {
	s := NewTransitionStore(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = s.Record(ctx, domain.Transition{Reason: fmt.Sprintf("event %d", i)})
	}

	got, _ := s.Recent(ctx, 0)
	if len(got) != 3 {
		t.Fatalf("got %d transitions, want capacity 3", len(got))
	}
	if got[0].Reason != "event 9" {
		t.Errorf("newest = %v, want event 9", got[0].Reason)
	}
	if got[2].Reason != "event 7" {
		t.Errorf("oldest kept = %v, want event 7", got[2].Reason)
	}
}

func TestTransitionStoreDeleteOlderThan(t *testing.T) {
	s := NewTransitionStore(10)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		_ = s.Record(ctx, domain.Transition{
			Reason:    fmt.Sprintf("event %d", i),
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
	}

	removed, err := s.DeleteOlderThan(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	got, _ := s.Recent(ctx, 0)
	if len(got) != 3 {
		t.Fatalf("got %d transitions after prune, want 3", len(got))
	}
	if got[len(got)-1].Reason != "event 2" {
		t.Errorf("oldest kept = %v, want event 2", got[len(got)-1].Reason)
	}
}

func TestTransitionStoreEmptyRecent(t *testing.T) {
	s := NewTransitionStore(0)
	got, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d transitions from empty store", len(got))
	}
}
