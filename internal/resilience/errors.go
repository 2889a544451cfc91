package resilience

import (
	"fmt"
	"time"
)

// TimeoutError reports that an operation did not settle within its budget.
type TimeoutError struct {
	Message string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s (after %v)", e.Message, e.Timeout)
}

// ExhaustedError reports that every retry attempt failed. It wraps the last
// underlying failure for diagnostics.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// CloseCodeError carries a raw WebSocket close code received from the agent.
// The classifier inspects the code instead of the message text.
type CloseCodeError struct {
	Code int
	Text string
}

func (e *CloseCodeError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("connection closed with code %d", e.Code)
	}
	return fmt.Sprintf("connection closed with code %d: %s", e.Code, e.Text)
}
