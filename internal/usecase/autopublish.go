package usecase

import (
	"context"
	"log/slog"
	"time"

	"BlogMigrator/internal/ports"
)

// AutoPublisher wires a ticker with PublishDue so scheduled posts go out
// once their slot has passed.
type AutoPublisher struct {
	driver     ports.Ticker
	publishing *Publishing
	logger     *slog.Logger
}

// NewAutoPublisher returns a helper to start/stop the publish poll.
func NewAutoPublisher(driver ports.Ticker, publishing *Publishing, log *slog.Logger) *AutoPublisher {
	return &AutoPublisher{driver: driver, publishing: publishing, logger: log}
}

// Start registers PublishDue with the ticker.
func (a *AutoPublisher) Start(ctx context.Context) error {
	if a.driver == nil || a.publishing == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := a.publishing.PublishDue(ctx, trigger)
		if a.logger == nil {
			return
		}
		if err != nil {
			a.logger.Warn("auto-publish run failed", "error", err)
			return
		}
		if report.Attempted > 0 {
			a.logger.Info("auto-publish run", "published", report.Succeeded, "failed", report.Failed)
		}
	}

	return a.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying ticker.
func (a *AutoPublisher) Stop(ctx context.Context) error {
	if a.driver == nil {
		return nil
	}

	return a.driver.Stop(ctx)
}
