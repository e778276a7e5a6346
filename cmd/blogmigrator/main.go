package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"BlogMigrator/internal/app"
	"BlogMigrator/internal/config"
	"BlogMigrator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application failed to start", "error", err)
		os.Exit(1)
	}

	err = application.Execute(ctx, os.Args[1:])
	if closeErr := application.Close(); closeErr != nil {
		logger.Warn("close store", "error", closeErr)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		if errors.Is(err, app.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
