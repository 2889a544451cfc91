package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect Classification
	}{
		{"going away close code", &CloseCodeError{Code: 1001}, ClassTransient},
		{"abnormal closure", &CloseCodeError{Code: 1006}, ClassTransient},
		{"internal error close code", &CloseCodeError{Code: 1011}, ClassTransient},
		{"service restart", &CloseCodeError{Code: 1012}, ClassTransient},
		{"try again later", &CloseCodeError{Code: 1013}, ClassTransient},
		{"bad gateway", &CloseCodeError{Code: 1014}, ClassTransient},
		{"normal closure", &CloseCodeError{Code: 1000}, ClassApplication},
		{"policy violation", &CloseCodeError{Code: 1008}, ClassApplication},
		{"gorilla close error", &websocket.CloseError{Code: 1006}, ClassTransient},
		{"gorilla normal close", &websocket.CloseError{Code: 1000}, ClassApplication},
		{"wrong password", errors.New("wrong password"), ClassApplication},
		{"expired certificate", errors.New("Certificate Expired"), ClassApplication},
		{"not yet valid", errors.New("certificate not yet valid"), ClassApplication},
		{"revoked", errors.New("certificate revoked"), ClassApplication},
		{"key missing", errors.New("key not found"), ClassApplication},
		{"invalid key", errors.New("invalid key"), ClassApplication},
		{"connection refused", errors.New("dial tcp 127.0.0.1:64646: connection refused"), ClassTransient},
		{"reset by peer", errors.New("read: connection reset by peer"), ClassTransient},
		{"network down", errors.New("network is unreachable"), ClassTransient},
		{"socket closed", errors.New("use of closed socket"), ClassTransient},
		{"timeout message", errors.New("i/o timeout"), ClassTransient},
		{"timeout kind", &TimeoutError{Message: "liveness probe", Timeout: time.Second}, ClassTransient},
		{"anything else", errors.New("something odd happened"), ClassUnknown},
		{"nil", nil, ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expect {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	err := errors.New("certificate expired")
	first := Classify(err)
	for i := 0; i < 100; i++ {
		if got := Classify(err); got != first {
			t.Fatalf("Classify changed from %v to %v on call %d", first, got, i)
		}
	}
}

func TestClassifyTimeoutBeatsVocabulary(t *testing.T) {
	// A timeout failure is transient even if its message mentions an
	// application-error phrase.
	err := &TimeoutError{Message: "wrong password prompt timed out", Timeout: time.Second}
	if got := Classify(err); got != ClassTransient {
		t.Errorf("Classify(timeout) = %v, want transient", got)
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	inner := &CloseCodeError{Code: 1012}
	wrapped := fmt.Errorf("exchange failed: %w", inner)
	if got := Classify(wrapped); got != ClassTransient {
		t.Errorf("Classify(wrapped close code) = %v, want transient", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("wrong password")) {
		t.Error("application failure must not be retryable")
	}
	if !IsRetryable(errors.New("connection refused")) {
		t.Error("transient failure must be retryable")
	}
	if !IsRetryable(errors.New("no idea what this is")) {
		t.Error("unknown failure must be retryable")
	}
}
