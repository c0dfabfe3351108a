package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/ils/dummy"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/ils/httpils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres"
	auditrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/audit"
	clusterrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/cluster"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/lock"
	mappingrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/mapping"
	patronrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/patron"
	requestrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/patronrequest"
	referencerepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/reference"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/redislock"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/mapping"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/patronrequest"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/preflight"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/tracking"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/workflow"
)

type leaseLocker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (domain.Lease, bool, error)
	Release(ctx context.Context, lease domain.Lease) error
}

// Container holds the wired services shared by the server and the
// one-shot commands.
type Container struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Registry *ils.Registry
	Requests *patronrequest.Service
	Tracking *tracking.Service
}

// Close releases the connections held by the container.
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	c.Pool.Close()
}

// Build connects to the database, loads the configured host systems and
// wires every service on top of them.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	c := &Container{Pool: pool}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			c.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	refs := referencerepo.New(pool)
	hosts, err := refs.ListHostLms(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load host systems: %w", err)
	}

	factory := ils.NewFactory()
	factory.Register(domain.HostLmsClientHTTP, httpils.NewConstructor(httpils.Options{
		Timeout:            cfg.ILS.Timeout,
		RequestsPerSecond:  cfg.ILS.RequestsPerSecond,
		Burst:              cfg.ILS.Burst,
		BreakerFailures:    cfg.ILS.BreakerFailures,
		BreakerOpenTimeout: cfg.ILS.BreakerOpenTimeout,
		Retries:            cfg.ILS.Retries,
		RetryBackoff:       cfg.ILS.RetryBackoff,
	}, log))
	factory.Register(domain.HostLmsClientDummy, dummy.NewConstructor(log))

	registry, err := factory.Build(hosts)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build host system clients: %w", err)
	}
	c.Registry = registry
	log.Info("host systems loaded", slog.Int("count", len(hosts)))

	var locker leaseLocker
	switch cfg.Tracking.LockBackend {
	case config.LockBackendRedis:
		rdb, err := redislock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = rdb
		locker = redislock.New(rdb)
	default:
		locker = lock.New(pool)
	}

	requests := requestrepo.New(pool)
	audits := auditrepo.New(pool)
	patrons := patronrepo.New(pool)
	clusters := clusterrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	mapper := mapping.NewService(log, mappingrepo.New(pool))
	resolver := resolution.NewResolver(log, clusters, refs, mapper, registry, cfg.Features.OwnLibraryBorrowing)

	checks := preflight.NewService(log, preflight.StandardChecks(
		preflight.Settings{
			PickupLocation:         cfg.Preflight.PickupLocation,
			PickupLocationToAgency: cfg.Preflight.PickupLocationToAgency,
			DuplicateRequest:       cfg.Preflight.DuplicateRequest,
			DuplicateWindow:        cfg.Preflight.DuplicateWindow,
			Patron:                 cfg.Preflight.Patron,
			ResolutionDryRun:       cfg.Preflight.ResolutionDryRun,
		},
		preflight.Dependencies{Locations: refs, Requests: requests, Mapper: mapper, Registry: registry, Resolver: resolver},
	)...)

	builder := workflow.NewContextBuilder(log, requests, patrons, refs, clusters, registry)
	engine := workflow.NewEngine(log,
		workflow.EngineConfig{MaxMessageLength: cfg.Features.MaxMessageLength, MaxSteps: cfg.Tracking.MaxSteps},
		builder, requests, patrons, audits, tx,
		workflow.StandardTransitions(workflow.Dependencies{
			Registry:  registry,
			Mapper:    mapper,
			Patrons:   patrons,
			Locations: refs,
			Resolver:  resolver,
			Log:       log,
		}),
	)

	c.Tracking = tracking.NewService(log, tracking.Settings{
		LockName:    cfg.Tracking.LockName,
		LockTTL:     cfg.Tracking.LockTTL,
		PageSize:    cfg.Tracking.PageSize,
		Concurrency: cfg.Tracking.Concurrency,
	}, locker, requests, builder, engine, registry, mapper)

	c.Requests = patronrequest.NewService(log, requests, audits, patrons, checks, engine, c.Tracking, tx)
	return c, nil
}
