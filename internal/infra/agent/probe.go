package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietddude/signbridge/internal/core/domain"
)

// DefaultProbeWindow bounds one whole probe attempt: dial, liveness request
// and first reply.
const DefaultProbeWindow = 2 * time.Second

// livenessRequest is the minimal round-trip payload. Any reply inside the
// window proves something is listening on the agent's port.
var livenessRequest = []byte(`{"name":"version"}`)

// ProbeConfig configures a Prober.
type ProbeConfig struct {
	// Secure selects the TLS listener on 64443 instead of the plain one
	// on 64646.
	Secure bool
	// Window bounds the whole attempt. Zero means DefaultProbeWindow.
	Window time.Duration
	// Dialer overrides the WebSocket dialer, mainly for tests. Nil means
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// DisableTransport marks the runtime as lacking WebSocket support;
	// Detect then reports that without any network attempt.
	DisableTransport bool
	// URL overrides the dial target, mainly for tests against a local
	// stand-in server. Empty means the selected loopback endpoint.
	URL string

	Logger *slog.Logger
}

// Prober checks whether the signing agent is reachable on its loopback
// endpoint.
type Prober struct {
	endpoint  Endpoint
	url       string
	window    time.Duration
	dialer    *websocket.Dialer
	supported bool
	log       *slog.Logger
}

// NewProber creates a prober for the endpoint selected by cfg.Secure.
func NewProber(cfg ProbeConfig) *Prober {
	p := &Prober{
		endpoint:  SelectEndpoint(cfg.Secure),
		url:       cfg.URL,
		window:    cfg.Window,
		dialer:    cfg.Dialer,
		supported: !cfg.DisableTransport,
		log:       cfg.Logger,
	}
	if p.url == "" {
		p.url = p.endpoint.URL()
	}
	if p.window <= 0 {
		p.window = DefaultProbeWindow
	}
	if p.dialer == nil {
		p.dialer = websocket.DefaultDialer
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Endpoint returns the loopback endpoint this prober targets.
func (p *Prober) Endpoint() Endpoint {
	return p.endpoint
}

// Detect reports whether the agent is reachable. Exactly one status is
// produced per call and the socket is released on every exit path. There is
// no fallback to the other listener; callers pick the transport
// deterministically via ProbeConfig.Secure.
func (p *Prober) Detect(ctx context.Context) domain.ConnectionStatus {
	if !p.supported {
		return domain.ConnectionStatus{IsRunning: false, Port: 0, TransportSupported: false}
	}

	notRunning := domain.ConnectionStatus{IsRunning: false, Port: 0, TransportSupported: true}

	deadline := time.Now().Add(p.window)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, _, err := p.dialer.DialContext(dialCtx, p.url, nil)
	if err != nil {
		p.log.Debug("agent dial failed", "url", p.url, "error", err)
		return notRunning
	}
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, livenessRequest); err != nil {
		p.log.Debug("liveness request failed", "error", err)
		return notRunning
	}

	_ = conn.SetReadDeadline(deadline)
	_, payload, err := conn.ReadMessage()
	if err != nil {
		// Timer expiry, socket error or close before a message all count
		// as "not running" for this endpoint.
		p.log.Debug("no liveness reply", "error", err)
		return notRunning
	}

	// A reply that doesn't parse still proves a live service on the port;
	// only an explicit rejection counts against the agent.
	var reply struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(payload, &reply); err == nil && reply.Success != nil && !*reply.Success {
		p.log.Debug("agent rejected liveness request")
		return notRunning
	}

	return domain.ConnectionStatus{
		IsRunning:          true,
		Port:               p.endpoint.Port,
		TransportSupported: true,
	}
}
