package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietddude/signbridge/internal/core/domain"
	"github.com/vietddude/signbridge/internal/core/tracker"
	"github.com/vietddude/signbridge/internal/resilience"
)

func fastClientConfig() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

// replyTo reads one request and answers it with the built response.
func replyTo(build func(req Request) Response) func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return
		}
		data, _ := json.Marshal(build(req))
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

func TestClientVersion(t *testing.T) {
	srv, wsURL := newAgentServer(t, replyTo(func(req Request) Response {
		if req.Name != "version" {
			t.Errorf("request name = %q, want version", req.Name)
		}
		ok := true
		return Response{
			ID:      req.ID,
			Success: &ok,
			Result:  json.RawMessage(`{"version":"1.0.8"}`),
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: wsURL, Resilience: fastClientConfig()})
	version, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "1.0.8" {
		t.Errorf("version = %q, want 1.0.8", version)
	}
}

func TestClientAgentRejectionNotRetried(t *testing.T) {
	var conns atomic.Int32
	srv, wsURL := newAgentServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		replyTo(func(req Request) Response {
			ok := false
			return Response{ID: req.ID, Success: &ok, Error: "wrong password"}
		})(conn)
	})
	defer srv.Close()

	track := tracker.New()
	c := NewClient(ClientConfig{URL: wsURL, Resilience: fastClientConfig(), Tracker: track})

	_, err := c.Sign(context.Background(), "default", DigestSHA256([]byte("doc")), "")
	var ae *AgentError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want *AgentError", err)
	}
	if conns.Load() != 1 {
		t.Errorf("agent contacted %d times, want 1 (no retries for rejections)", conns.Load())
	}
	if got := track.State(); got != domain.StateError {
		t.Errorf("tracker state = %v, want error", got)
	}
}

func TestClientRecoversFromTransientFailures(t *testing.T) {
	var conns atomic.Int32
	srv, wsURL := newAgentServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n <= 2 {
			// Drop the connection without answering.
			return
		}
		replyTo(func(req Request) Response {
			ok := true
			return Response{ID: req.ID, Success: &ok, Result: json.RawMessage(`{"version":"1.0.8"}`)}
		})(conn)
	})
	defer srv.Close()

	track := tracker.New()
	c := NewClient(ClientConfig{URL: wsURL, Resilience: fastClientConfig(), Tracker: track})

	version, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version after transient failures: %v", err)
	}
	if version != "1.0.8" {
		t.Errorf("version = %q", version)
	}
	if conns.Load() != 3 {
		t.Errorf("agent contacted %d times, want 3", conns.Load())
	}
	if got := track.State(); got != domain.StateConnected {
		t.Errorf("tracker state = %v, want connected", got)
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	var conns atomic.Int32
	srv, wsURL := newAgentServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		// Never answer; just drop.
	})
	defer srv.Close()

	cfg := fastClientConfig()
	cfg.MaxRetries = 2

	track := tracker.New()
	c := NewClient(ClientConfig{URL: wsURL, Resilience: cfg, Tracker: track})

	_, err := c.Version(context.Background())
	var ee *resilience.ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("got %v, want *ExhaustedError", err)
	}
	if ee.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", ee.Attempts)
	}
	if conns.Load() != 3 {
		t.Errorf("agent contacted %d times, want 3", conns.Load())
	}
	if got := track.State(); got != domain.StateError {
		t.Errorf("tracker state = %v, want error", got)
	}
}

func TestClientSkipsInterleavedReplies(t *testing.T) {
	srv, wsURL := newAgentServer(t, func(conn *websocket.Conn) {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		_ = json.Unmarshal(payload, &req)

		// An unrelated reply first, then the real one.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"other","success":true}`))
		ok := true
		data, _ := json.Marshal(Response{ID: req.ID, Success: &ok, Result: json.RawMessage(`{"version":"2.0.0"}`)})
		_ = conn.WriteMessage(websocket.TextMessage, data)
	})
	defer srv.Close()

	c := NewClient(ClientConfig{URL: wsURL, Resilience: fastClientConfig()})
	version, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", version)
	}
}

func TestSignRequestShape(t *testing.T) {
	digest := DigestSHA256([]byte("payload"))
	req := NewSignRequest("key-1", digest, "")

	if req.Name != "sign" {
		t.Errorf("name = %q", req.Name)
	}
	if req.ID == "" {
		t.Error("sign requests must carry an id")
	}
	if req.Arguments["hashType"] != "SHA-256" {
		t.Errorf("hashType = %v, want SHA-256 default", req.Arguments["hashType"])
	}
	if req.Arguments["keyId"] != "key-1" {
		t.Errorf("keyId = %v", req.Arguments["keyId"])
	}
	if req.Arguments["hash"] == "" {
		t.Error("digest missing")
	}
}
