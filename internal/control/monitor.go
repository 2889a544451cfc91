// Package control wires the probe, tracker, storage and telemetry into the
// long-running bridge daemon.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/signbridge/internal/core/config"
	"github.com/vietddude/signbridge/internal/core/domain"
	"github.com/vietddude/signbridge/internal/core/tracker"
	"github.com/vietddude/signbridge/internal/core/worker"
	"github.com/vietddude/signbridge/internal/health"
	"github.com/vietddude/signbridge/internal/infra/agent"
	redisclient "github.com/vietddude/signbridge/internal/infra/redis"
	"github.com/vietddude/signbridge/internal/infra/storage"
	"github.com/vietddude/signbridge/internal/infra/storage/memory"
	"github.com/vietddude/signbridge/internal/infra/storage/postgres"
	"github.com/vietddude/signbridge/internal/metrics"
)

// Config holds the daemon configuration.
type Config struct {
	Port      int
	Retention time.Duration
	Agent     config.AgentConfig
	Redis     redisclient.Config
	Database  postgres.Config
}

// Monitor is the daemon that keeps track of the local signing agent.
type Monitor struct {
	cfg          Config
	prober       *agent.Prober
	client       *agent.Client
	track        *tracker.Tracker
	repo         storage.TransitionRepository
	publisher    *redisclient.Publisher
	healthServer *health.Server
	db           *postgres.DB
	log          *slog.Logger

	mu         sync.RWMutex
	lastStatus domain.ConnectionStatus

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor with all dependencies initialized.
func NewMonitor(cfg Config) (*Monitor, error) {
	m := &Monitor{
		cfg:  cfg,
		log:  slog.Default().With("component", "monitor"),
		done: make(chan struct{}),
	}

	// Storage: Postgres when configured, bounded in-memory buffer otherwise.
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		m.db = db
		m.repo = postgres.NewTransitionRepo(db)
	} else {
		m.repo = memory.NewTransitionStore(0)
	}

	if cfg.Redis.URL != "" {
		pub, err := redisclient.NewPublisher(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis publisher: %w", err)
		}
		m.publisher = pub
	}

	m.track = tracker.New()
	m.track.SetTransitionCallback(m.onTransition)

	m.prober = agent.NewProber(agent.ProbeConfig{
		Secure: cfg.Agent.Secure,
		Window: cfg.Agent.ProbeWindow,
		Logger: m.log,
	})
	m.client = agent.NewClient(agent.ClientConfig{
		Secure:     cfg.Agent.Secure,
		Resilience: cfg.Agent.Resilience(),
		Tracker:    m.track,
		Logger:     m.log,
	})
	m.healthServer = health.NewServer(m.healthReport, cfg.Port)

	return m, nil
}

// Tracker returns the connection state tracker.
func (m *Monitor) Tracker() *tracker.Tracker {
	return m.track
}

// Client returns the agent client, for callers relaying their own requests.
func (m *Monitor) Client() *agent.Client {
	return m.client
}

// Transitions returns the audit trail repository.
func (m *Monitor) Transitions() storage.TransitionRepository {
	return m.repo
}

// Status returns the latest probe snapshot.
func (m *Monitor) Status() domain.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStatus
}

// Start launches the probe loop and the health server.
func (m *Monitor) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		if err := m.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error("health server failed", "error", err)
		}
	}()

	go m.run(loopCtx)
	go worker.NewPruner(m.cfg.Retention, m.repo).Start(loopCtx)

	m.log.Info("monitor started",
		"endpoint", m.prober.Endpoint().URL(),
		"interval", m.cfg.Agent.ProbeInterval)
	return nil
}

// Stop shuts the monitor down gracefully.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := m.healthServer.Stop(ctx); err != nil {
		return err
	}
	if m.publisher != nil {
		_ = m.publisher.Close()
	}
	if m.db != nil {
		_ = m.db.Close()
	}

	m.log.Info("monitor stopped")
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	interval := m.cfg.Agent.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	// First check immediately, then on the ticker.
	m.checkOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

// checkOnce probes the agent endpoint, then runs a liveness round-trip
// through the resilience facade so the tracker sees real telemetry.
func (m *Monitor) checkOnce(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, m.tickBudget())
	defer cancel()

	status := m.prober.Detect(tickCtx)
	m.recordStatus(tickCtx, status)

	version, err := m.client.Version(tickCtx)
	if err != nil {
		m.log.Warn("agent liveness check failed", "error", err)
		return
	}
	m.log.Debug("agent alive", "version", version, "port", status.Port)
}

func (m *Monitor) tickBudget() time.Duration {
	if m.cfg.Agent.ProbeInterval > 0 {
		return m.cfg.Agent.ProbeInterval
	}
	return 10 * time.Second
}

func (m *Monitor) recordStatus(ctx context.Context, status domain.ConnectionStatus) {
	m.mu.Lock()
	m.lastStatus = status
	m.mu.Unlock()

	result := "not_running"
	switch {
	case !status.TransportSupported:
		result = "unsupported"
	case status.IsRunning:
		result = "running"
	}
	metrics.ProbesTotal.WithLabelValues(result).Inc()
	metrics.AgentPort.Set(float64(status.Port))

	if m.publisher != nil {
		if err := m.publisher.PublishStatus(ctx, status); err != nil {
			m.log.Warn("failed to publish status", "error", err)
		}
	}
}

func (m *Monitor) onTransition(t domain.Transition) {
	metrics.ConnectionState.Set(float64(t.To))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.repo.Record(ctx, t); err != nil {
		m.log.Warn("failed to record transition", "error", err)
	}
	if m.publisher != nil {
		if err := m.publisher.PublishTransition(ctx, t); err != nil {
			m.log.Warn("failed to publish transition", "error", err)
		}
	}

	m.log.Info("connection state changed",
		"from", t.From.String(), "to", t.To.String(), "reason", t.Reason)
}

func (m *Monitor) healthReport() health.Report {
	return health.Evaluate(m.track.Snapshot(), m.Status())
}
