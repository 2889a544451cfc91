package config

import (
	"time"

	redisclient "github.com/vietddude/signbridge/internal/infra/redis"
	"github.com/vietddude/signbridge/internal/infra/storage/postgres"
	"github.com/vietddude/signbridge/internal/resilience"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Agent    AgentConfig        `yaml:"agent"`
	Logging  LoggingConfig      `yaml:"logging"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds the health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`

	// Retention bounds how long transition history is kept. Zero disables
	// pruning.
	Retention time.Duration `yaml:"retention"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AgentConfig holds settings for reaching the local signing agent.
type AgentConfig struct {
	// Secure selects the agent's TLS listener (port 64443) instead of the
	// plain one (port 64646).
	Secure bool `yaml:"secure"`

	ProbeInterval time.Duration `yaml:"probe_interval"`
	ProbeWindow   time.Duration `yaml:"probe_window"`

	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Resilience translates the agent section into a resilience config.
func (a AgentConfig) Resilience() resilience.Config {
	cfg := resilience.DefaultConfig()
	if a.Timeout > 0 {
		cfg.Timeout = a.Timeout
	}
	if a.MaxRetries > 0 {
		cfg.MaxRetries = a.MaxRetries
	}
	if a.BaseDelay > 0 {
		cfg.BaseDelay = a.BaseDelay
	}
	if a.MaxDelay > 0 {
		cfg.MaxDelay = a.MaxDelay
	}
	if a.BackoffMultiplier > 1 {
		cfg.Multiplier = a.BackoffMultiplier
	}
	return cfg
}
