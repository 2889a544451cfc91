package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/signbridge/internal/core/domain"
	"github.com/vietddude/signbridge/internal/core/tracker"
)

func TestEvaluateStatusMapping(t *testing.T) {
	tests := []struct {
		state  domain.ConnectionState
		expect SystemStatus
	}{
		{domain.StateConnected, StatusHealthy},
		{domain.StateConnecting, StatusDegraded},
		{domain.StateRetrying, StatusDegraded},
		{domain.StateError, StatusCritical},
		{domain.StateDisconnected, StatusCritical},
	}

	for _, tt := range tests {
		r := Evaluate(tracker.Snapshot{State: tt.state}, domain.ConnectionStatus{})
		if r.Status != tt.expect {
			t.Errorf("Evaluate(%v).Status = %v, want %v", tt.state, r.Status, tt.expect)
		}
		if r.State != tt.state.String() {
			t.Errorf("Evaluate(%v).State = %q", tt.state, r.State)
		}
	}
}

func TestEvaluateCarriesDetails(t *testing.T) {
	at := time.Now().Add(-time.Minute)
	snap := tracker.Snapshot{
		State:               domain.StateRetrying,
		Retry:               &domain.RetryInfo{Operation: "version", Attempt: 2, MaxAttempts: 4},
		LastError:           "connection refused",
		ConsecutiveFailures: 3,
		LastSuccessAt:       at,
	}
	status := domain.ConnectionStatus{IsRunning: true, Port: 64646, TransportSupported: true}

	r := Evaluate(snap, status)
	if r.Retry == nil || r.Retry.Attempt != 2 {
		t.Errorf("retry info not carried: %+v", r.Retry)
	}
	if r.ConsecutiveFailures != 3 || r.LastError != "connection refused" {
		t.Errorf("failure details not carried: %+v", r)
	}
	if r.LastSuccessAt == nil || !r.LastSuccessAt.Equal(at) {
		t.Errorf("last success not carried: %v", r.LastSuccessAt)
	}
	if r.Agent != status {
		t.Errorf("agent status not carried: %+v", r.Agent)
	}
}

func TestServerHandleHealth(t *testing.T) {
	report := Report{Status: StatusHealthy, State: "connected"}
	s := NewServer(func() Report { return report }, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Errorf("healthy status code = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}

	report = Report{Status: StatusCritical, State: "error"}
	rec = httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("critical status code = %d, want 503", rec.Code)
	}
}
