// Package redis mirrors the latest agent status into Redis so co-resident
// services can read agent availability without probing it themselves.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/signbridge/internal/core/domain"
)

const (
	statusKey         = "signbridge:agent:status"
	transitionChannel = "signbridge:agent:transitions"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Publisher publishes agent status snapshots and state transitions.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a publisher and verifies connectivity.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Publisher{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// PublishStatus overwrites the shared status snapshot.
func (p *Publisher) PublishStatus(ctx context.Context, status domain.ConnectionStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := p.rdb.Set(ctx, statusKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// PublishTransition broadcasts a state transition to subscribers.
func (p *Publisher) PublishTransition(ctx context.Context, t domain.Transition) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err := p.rdb.Publish(ctx, transitionChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}
	return nil
}
