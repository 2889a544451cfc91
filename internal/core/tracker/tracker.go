// Package tracker turns resilience telemetry into a connection lifecycle
// state. Only telemetry calls mutate the state; nothing else may set it
// directly.
package tracker

import (
	"sync"
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
)

// ValidTransitions defines allowed state transitions. Reset to
// StateDisconnected is additionally allowed from any state.
var ValidTransitions = map[domain.ConnectionState][]domain.ConnectionState{
	domain.StateDisconnected: {domain.StateConnecting},
	domain.StateConnecting: {
		domain.StateConnected,
		domain.StateRetrying,
		domain.StateError,
	},
	domain.StateConnected: {domain.StateRetrying},
	domain.StateRetrying: {
		domain.StateConnected,
		domain.StateError,
	},
	domain.StateError: {domain.StateConnecting},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to domain.ConnectionState) bool {
	if to == domain.StateDisconnected {
		return true
	}
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Snapshot is a consistent read of the tracker's state.
type Snapshot struct {
	State               domain.ConnectionState
	Retry               *domain.RetryInfo
	LastError           string
	ConsecutiveFailures int
	LastSuccessAt       time.Time
}

// Tracker is the connection state machine. All methods are safe for
// concurrent use.
type Tracker struct {
	mu                  sync.Mutex
	state               domain.ConnectionState
	retry               *domain.RetryInfo
	lastError           string
	consecutiveFailures int
	lastSuccessAt       time.Time
	callback            func(domain.Transition)
}

// New creates a tracker in StateDisconnected.
func New() *Tracker {
	return &Tracker{state: domain.StateDisconnected}
}

// SetTransitionCallback registers a callback fired after every state change.
// The callback runs outside the tracker's lock.
func (t *Tracker) SetTransitionCallback(fn func(domain.Transition)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = fn
}

// OperationStarted marks the beginning of an agent operation. It only moves
// the machine out of StateDisconnected or StateError; an already-connected
// session stays where it is.
func (t *Tracker) OperationStarted() {
	t.fire(t.transition(domain.StateConnecting, "operation started", nil))
}

// Succeeded records a successful operation outcome.
func (t *Tracker) Succeeded() {
	t.mu.Lock()
	tr, ok := t.applyLocked(domain.StateConnected, "operation succeeded", nil)
	t.retry = nil
	t.lastError = ""
	t.consecutiveFailures = 0
	t.lastSuccessAt = time.Now()
	t.mu.Unlock()
	if ok {
		t.fireTransition(tr)
	}
}

// RetryScheduled records that the retry engine is about to wait and try
// again. It is wired to the resilience OnRetry hook.
func (t *Tracker) RetryScheduled(operation string, attempt, maxAttempts int, err error) {
	info := &domain.RetryInfo{
		Operation:   operation,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
	}
	if err != nil {
		info.LastError = err.Error()
	}

	t.mu.Lock()
	tr, ok := t.applyLocked(domain.StateRetrying, "retry scheduled", info)
	if ok || t.state == domain.StateRetrying {
		t.retry = info
	}
	t.mu.Unlock()
	if ok {
		t.fireTransition(tr)
	}
}

// Failed records a terminal operation failure: retry exhaustion or a
// non-retryable rejection.
func (t *Tracker) Failed(err error) {
	reason := "operation failed"
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	t.mu.Lock()
	tr, ok := t.applyLocked(domain.StateError, reason, nil)
	if ok {
		t.retry = nil
		t.lastError = msg
		t.consecutiveFailures++
	}
	t.mu.Unlock()
	if ok {
		t.fireTransition(tr)
	}
}

// Reset returns the tracker to StateDisconnected. It is the caller's
// explicit action; the tracker never resets spontaneously.
func (t *Tracker) Reset() {
	t.mu.Lock()
	tr, ok := t.applyLocked(domain.StateDisconnected, "reset", nil)
	t.retry = nil
	t.lastError = ""
	t.consecutiveFailures = 0
	t.mu.Unlock()
	if ok {
		t.fireTransition(tr)
	}
}

// State returns the current connection state.
func (t *Tracker) State() domain.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Snapshot returns a consistent copy of the tracker's state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		State:               t.state,
		LastError:           t.lastError,
		ConsecutiveFailures: t.consecutiveFailures,
		LastSuccessAt:       t.lastSuccessAt,
	}
	if t.retry != nil {
		info := *t.retry
		s.Retry = &info
	}
	return s
}

// transition attempts a state change under the lock and returns the
// transition to fire, if any.
func (t *Tracker) transition(to domain.ConnectionState, reason string, retry *domain.RetryInfo) (domain.Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applyLocked(to, reason, retry)
}

func (t *Tracker) applyLocked(to domain.ConnectionState, reason string, retry *domain.RetryInfo) (domain.Transition, bool) {
	if t.state == to || !CanTransition(t.state, to) {
		return domain.Transition{}, false
	}
	tr := domain.Transition{
		From:      t.state,
		To:        to,
		Reason:    reason,
		Retry:     retry,
		Timestamp: time.Now(),
	}
	t.state = to
	return tr, true
}

func (t *Tracker) fire(tr domain.Transition, ok bool) {
	if ok {
		t.fireTransition(tr)
	}
}

func (t *Tracker) fireTransition(tr domain.Transition) {
	t.mu.Lock()
	cb := t.callback
	t.mu.Unlock()
	if cb != nil {
		cb(tr)
	}
}
