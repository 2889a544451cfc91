package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietddude/signbridge/internal/core/tracker"
	"github.com/vietddude/signbridge/internal/metrics"
	"github.com/vietddude/signbridge/internal/resilience"
)

// ClientConfig configures an agent client.
type ClientConfig struct {
	Secure     bool
	Resilience resilience.Config

	// Tracker, when set, receives the telemetry of every exchange.
	Tracker *tracker.Tracker

	// URL and Dialer override the transport, mainly for tests.
	URL    string
	Dialer *websocket.Dialer

	Logger *slog.Logger
}

// Client performs request/response exchanges with the signing agent. Each
// exchange opens its own socket; the agent protocol has no session state, so
// a retried attempt starting from a fresh connection is always safe.
type Client struct {
	endpoint Endpoint
	url      string
	dialer   *websocket.Dialer
	res      resilience.Config
	track    *tracker.Tracker
	log      *slog.Logger
}

// NewClient creates a client for the endpoint selected by cfg.Secure.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		endpoint: SelectEndpoint(cfg.Secure),
		url:      cfg.URL,
		dialer:   cfg.Dialer,
		res:      cfg.Resilience,
		track:    cfg.Tracker,
		log:      cfg.Logger,
	}
	if c.url == "" {
		c.url = c.endpoint.URL()
	}
	if c.dialer == nil {
		c.dialer = websocket.DefaultDialer
	}
	if c.res.Timeout == 0 && c.res.BaseDelay == 0 && c.res.MaxRetries == 0 {
		c.res = resilience.DefaultConfig()
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Do executes one request through the resilience facade and reports
// telemetry to the tracker and metrics.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if c.track != nil {
		c.track.OperationStarted()
	}

	cfg := c.res
	callerOnRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.RetriesTotal.WithLabelValues(req.Name).Inc()
		if c.track != nil {
			c.track.RetryScheduled(req.Name, attempt, cfg.MaxRetries+1, err)
		}
		c.log.Warn("retrying agent request",
			"name", req.Name, "attempt", attempt, "delay", delay, "error", err)
		if callerOnRetry != nil {
			callerOnRetry(attempt, err, delay)
		}
	}

	start := time.Now()
	value, err := resilience.WithResilience(ctx, func(ctx context.Context) (any, error) {
		return c.exchange(ctx, req)
	}, cfg)
	metrics.OperationDuration.WithLabelValues(req.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OperationsTotal.WithLabelValues(req.Name, "failure").Inc()
		metrics.FailuresTotal.WithLabelValues(resilience.Classify(err).String()).Inc()
		if c.track != nil {
			c.track.Failed(err)
		}
		return Response{}, err
	}

	metrics.OperationsTotal.WithLabelValues(req.Name, "success").Inc()
	if c.track != nil {
		c.track.Succeeded()
	}
	return value.(Response), nil
}

// Version performs the liveness round-trip and returns the agent's version
// string, empty when the reply carries none.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, NewVersionRequest())
	if err != nil {
		return "", err
	}

	var result struct {
		Version string `json:"version"`
	}
	if len(resp.Result) > 0 {
		_ = json.Unmarshal(resp.Result, &result)
	}
	return result.Version, nil
}

// Certificate asks the agent for the user-selected signing certificate.
func (c *Client) Certificate(ctx context.Context, lang string) (Response, error) {
	return c.Do(ctx, NewCertificateRequest(lang))
}

// Sign asks the agent to sign a digest with the given key.
func (c *Client) Sign(ctx context.Context, keyID string, digest []byte, hashType string) (Response, error) {
	return c.Do(ctx, NewSignRequest(keyID, digest, hashType))
}

// exchange runs one request/response round-trip on a fresh socket.
func (c *Client) exchange(ctx context.Context, req Request) (Response, error) {
	data, err := req.encode()
	if err != nil {
		return Response{}, err
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("dial agent: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return Response{}, fmt.Errorf("send %q request: %w", req.Name, err)
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return Response{}, fmt.Errorf("read %q reply: %w", req.Name, err)
		}

		var resp Response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return Response{}, fmt.Errorf("decode %q reply: %w", req.Name, err)
		}
		// The agent may interleave replies; skip ones for other requests.
		if resp.ID != "" && req.ID != "" && resp.ID != req.ID {
			continue
		}

		if resp.Rejected() {
			return Response{}, &AgentError{Message: resp.Error}
		}
		return resp, nil
	}
}
