// Command track performs one tracking pass over every active patron
// request and exits. It is intended for deployments that drive tracking
// from an external scheduler instead of the in-process loop.
//
// Exit codes: 0 = success, 1 = error (including a pass already running
// elsewhere).
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/app"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Tracking.LockTTL)
	defer cancel()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stats, err := c.Tracking.Run(ctx)
	c.Close()
	if err != nil {
		logger.Error("tracking run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("tracking run completed",
		slog.Int("processed", stats.Processed),
		slog.Int("advanced", stats.Advanced),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration()),
	)
}
