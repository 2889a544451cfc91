// Package worker holds background maintenance workers for the daemon.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/signbridge/internal/infra/storage"
)

// Pruner deletes old transition history based on retention policy.
type Pruner struct {
	retention time.Duration
	repo      storage.TransitionRepository
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, repo storage.TransitionRepository) *Pruner {
	return &Pruner{
		retention: retention,
		repo:      repo,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check at roughly 10% of the retention period, bounded to [1m, 1h].
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	removed, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("failed to prune transitions", "error", err)
		return
	}
	if removed > 0 {
		p.log.Debug("pruned transition history", "removed", removed, "cutoff", cutoff)
	}
}
