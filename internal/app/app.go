package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/auth"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/tracking"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/transport/middleware"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/transport/rest"
)

// Run is the server entry point. It loads configuration, wires services,
// serves the operator API and runs the tracking scheduler until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("lock_backend", cfg.Tracking.LockBackend),
	)

	shutdownTracing, err := NewTracerProvider(ctx, cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracing shutdown", slog.String("error", err.Error()))
		}
	}()

	c, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	components := []rest.Component{{Name: "database", Pinger: c.Pool}}
	if c.Redis != nil {
		rdb := c.Redis
		components = append(components, rest.Component{
			Name:   "redis",
			Pinger: rest.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		})
	}

	routerCfg := rest.RouterConfig{
		Logger:   logger,
		Health:   rest.NewHealthHandler(BuildVersion(), components...),
		Requests: rest.NewPatronRequestHandler(c.Requests, logger),
		Tracking: rest.NewTrackingHandler(c.Tracking, logger),
		Admin:    rest.NewAdminHandler(c.Requests, logger),
		Auth:     middleware.Auth(auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)),
	}
	if cfg.CORS.AllowedOrigins != "" {
		routerCfg.CORS = middleware.CORS(cfg.CORS)
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.CleanupInterval)
		defer limiter.Stop()
		routerCfg.RateLimit = limiter.Limit()
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      rest.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Tracking.Enabled {
		scheduler := tracking.NewScheduler(logger, c.Tracking, cfg.Tracking.Interval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("http server shutdown", slog.String("error", err.Error()))
	}
	wg.Wait()

	logger.Info("stopped")
	return nil
}
