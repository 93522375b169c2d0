package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
	"github.com/kirillkom/document-catalog/internal/core/usecase"
	memorycache "github.com/kirillkom/document-catalog/internal/infrastructure/cache/memory"
	rediscache "github.com/kirillkom/document-catalog/internal/infrastructure/cache/redis"
	"github.com/kirillkom/document-catalog/internal/infrastructure/doctypes"
	"github.com/kirillkom/document-catalog/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/document-catalog/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-catalog/internal/infrastructure/repository/memory"
	"github.com/kirillkom/document-catalog/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-catalog/internal/infrastructure/resilience"
)

type Options struct {
	Logger *slog.Logger
	// CacheObserver receives every stats cache lookup outcome.
	CacheObserver func(key, outcome string)
	// BreakerObserver receives every circuit breaker transition.
	BreakerObserver resilience.StateObserver
}

type App struct {
	Config config.Config
	Logger *slog.Logger
	Types  domain.DocumentTypes

	Cascade    ports.CascadeResolver
	Search     ports.DocumentSearcher
	Stats      *usecase.StatsUseCase
	Catalog    ports.CatalogWriter
	Exporter   ports.StatsExporter
	Subscriber ports.EventSubscriber

	closers []func()
}

type storage struct {
	docs      ports.DocumentRepository
	hierarchy ports.HierarchyRepository
	query     ports.DocumentQuery
	stats     ports.StatsSource
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	store, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	types, err := doctypes.Load(cfg.DocumentTypesFile)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load document types: %w", err)
	}
	app.Types = types

	cache, err := app.openCache(ctx, opts)
	if err != nil {
		app.Close()
		return nil, err
	}

	stats := usecase.NewStatsUseCase(store.stats, cache, types,
		usecase.WithStatsTTL(cfg.StatsCacheTTL),
		usecase.WithStatsComputeTimeout(cfg.StatsComputeTimeout),
		usecase.WithStatsLogger(logger),
		usecase.WithCacheObserver(opts.CacheObserver),
	)
	catalogOpts := []usecase.CatalogOption{usecase.WithCatalogLogger(logger)}

	if cfg.EventsEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			QueueGroup: cfg.NATSQueueGroup,
			ResilienceExecutor: resilience.NewExecutor(resilience.EventPublishConfig(),
				resilience.WithLogger(logger),
				resilience.WithStateObserver(opts.BreakerObserver),
			),
			Logger: logger,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init event queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		app.Subscriber = queue
		catalogOpts = append(catalogOpts, usecase.WithEventPublisher(queue))
	}

	app.Stats = stats
	app.Cascade = usecase.NewCascadeUseCase(store.hierarchy)
	app.Search = usecase.NewSearchUseCase(store.query, types, usecase.SearchOptions{
		DefaultPageSize: cfg.SearchDefaultPageSize,
		MaxPageSize:     cfg.SearchMaxPageSize,
		MinTextLength:   cfg.SearchMinTextLength,
	})
	app.Catalog = usecase.NewCatalogUseCase(store.docs, store.hierarchy, stats, catalogOpts...)
	app.Exporter = xlsx.NewExporter()
	return app, nil
}

func (a *App) openStorage(ctx context.Context) (storage, error) {
	switch strings.ToLower(a.Config.StorageDriver) {
	case "memory":
		catalog := memory.NewCatalog()
		if a.Config.FixturesFile != "" {
			if err := catalog.LoadFixturesFile(ctx, a.Config.FixturesFile); err != nil {
				return storage{}, fmt.Errorf("load fixtures: %w", err)
			}
		}
		a.Logger.Info("storage_ready", "driver", "memory", "fixtures", a.Config.FixturesFile)
		return storage{docs: catalog, hierarchy: catalog, query: catalog, stats: catalog}, nil
	case "postgres", "":
		db, err := postgres.OpenDB(a.Config.PostgresDSN, a.Config.PostgresMaxOpenConns)
		if err != nil {
			return storage{}, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return storage{}, fmt.Errorf("ensure schema: %w", err)
		}
		docs := postgres.NewDocumentRepository(db)
		a.Logger.Info("storage_ready", "driver", "postgres")
		return storage{docs: docs, hierarchy: postgres.NewHierarchyRepository(db), query: docs, stats: docs}, nil
	default:
		return storage{}, fmt.Errorf("unknown storage driver %q", a.Config.StorageDriver)
	}
}

// openCache returns a nil interface for the "none" driver so the stats use
// case computes every aggregate directly.
func (a *App) openCache(ctx context.Context, opts Options) (ports.Cache, error) {
	switch strings.ToLower(a.Config.CacheDriver) {
	case "none", "off":
		a.Logger.Info("stats_cache_disabled")
		return nil, nil
	case "memory":
		return memorycache.New(), nil
	case "redis", "":
		executor := resilience.NewExecutor(resilience.StatsCacheConfig(),
			resilience.WithLogger(a.Logger),
			resilience.WithStateObserver(opts.BreakerObserver),
		)
		cache, err := rediscache.New(ctx, rediscache.Options{
			Addr:               a.Config.RedisAddr,
			Password:           a.Config.RedisPassword,
			DB:                 a.Config.RedisDB,
			Prefix:             a.Config.RedisKeyPrefix,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = cache.Close() })
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", a.Config.CacheDriver)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
