package scanner

import (
	"context"
	"log/slog"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Strategy captures a single extraction approach (feed, webpage scraping, etc.).
type Strategy interface {
	Name() string
	Extract(ctx context.Context, sourceURL string, maxPosts int) ([]domain.PostCandidate, error)
}

// Chain tries strategies in registration order. The first strategy that yields
// at least one candidate wins and later strategies are never invoked.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

var _ ports.Extractor = (*Chain)(nil)

// NewChain builds an ordered chain.
func NewChain(log *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: log}
}

// Extract never fails: a strategy error degrades to "no result" and the next
// strategy is tried.
func (c *Chain) Extract(ctx context.Context, sourceURL string, maxPosts int) []domain.PostCandidate {
	for _, s := range c.strategies {
		candidates, err := s.Extract(ctx, sourceURL, maxPosts)
		if err != nil {
			c.warn("strategy failed", "strategy", s.Name(), "url", sourceURL, "error", err)
			continue
		}
		if len(candidates) > 0 {
			c.debug("strategy produced candidates", "strategy", s.Name(), "url", sourceURL, "count", len(candidates))
			return candidates
		}
	}
	return nil
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
