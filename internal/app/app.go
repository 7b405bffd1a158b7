package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"WikiTrends/internal/config"
	"WikiTrends/internal/featured"
	"WikiTrends/internal/infrastructure/scheduler"
	"WikiTrends/internal/infrastructure/storage"
	"WikiTrends/internal/infrastructure/wikimedia"
	"WikiTrends/internal/logging"
	"WikiTrends/internal/metrics"
	"WikiTrends/internal/ports"
	"WikiTrends/internal/usecase"
)

const (
	storeDialTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    ports.KVStore
	cache    *featured.Cache
	featured *usecase.FeaturedService
	search   *usecase.SearchService
	warmer   *usecase.Warmer
	registry *prometheus.Registry
}

// New builds a runnable application. Store or scheduler setup failures are
// logged and degrade to an in-memory cache or a disabled warmer.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	client := wikimedia.NewClient(nil, cfg.HTTP, cfg.Wikipedia, cfg.Search, baseLogger.With("component", "wikimedia"))
	store := openStore(cfg.Cache, baseLogger.With("component", "storage"))
	loc := cfg.Scheduler.Location()

	cache := featured.NewCache(store, featured.CacheConfig{
		KeyPrefix:     cfg.Cache.KeyPrefix,
		MaxEntryBytes: cfg.Cache.MaxEntryBytes,
		Location:      loc,
	}, baseLogger.With("component", "cache"))

	resolver := featured.NewResolver(client, featured.ResolverConfig{
		MaxRetries: cfg.Featured.MaxRetries,
		Backoff:    cfg.Featured.RetryBackoff,
	}, baseLogger.With("component", "resolver"))

	enricher := featured.NewEnricher(client,
		featured.NewDenylistSet(cfg.Denylist.Default, cfg.Denylist.Languages),
		featured.EnricherConfig{ImageWidth: cfg.Featured.ImageWidth, Concurrency: cfg.Featured.Concurrency},
		baseLogger.With("component", "enricher"))

	var featuredCache ports.FeaturedCache
	if store != nil {
		featuredCache = cache
	}
	service := usecase.NewFeaturedService(usecase.FeaturedDeps{
		Resolver: resolver,
		Enricher: enricher,
		Cache:    featuredCache,
		Metrics:  m,
		Logger:   baseLogger.With("component", "featured"),
	}, usecase.FeaturedOptions{
		MaxArticles:     cfg.Featured.MaxArticles,
		DefaultLanguage: cfg.Featured.DefaultLanguage,
		Languages:       cfg.Featured.Languages,
		Location:        loc,
		FetchTimeout:    cfg.Featured.FetchTimeout,
	})

	var driver ports.Scheduler
	cron, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, scheduler.Options{
		Location:   loc,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, baseLogger)
	if err != nil {
		baseLogger.Warn("cache warmer disabled", "error", err)
	} else {
		driver = cron
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		cache:    cache,
		featured: service,
		search:   usecase.NewSearchService(client, cfg.Featured.DefaultLanguage, baseLogger.With("component", "search")),
		warmer:   usecase.NewWarmer(driver, service, cfg.SchedulerLanguages(), baseLogger.With("component", "warmer")),
		registry: registry,
	}
}

// Featured exposes the featured articles use case.
func (a *Application) Featured() *usecase.FeaturedService { return a.featured }

// Search exposes the search use case.
func (a *Application) Search() *usecase.SearchService { return a.search }

// Warmer exposes the cache warmer.
func (a *Application) Warmer() *usecase.Warmer { return a.warmer }

// Cache exposes the featured cache for maintenance commands.
func (a *Application) Cache() *featured.Cache { return a.cache }

// Location is the calendar used to interpret request dates.
func (a *Application) Location() *time.Location { return a.cfg.Scheduler.Location() }

// MetricsHandler serves the application registry in the Prometheus text format.
func (a *Application) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// Run starts the warmer and, when configured, the metrics endpoint, then
// blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("start warmer: %w", err)
	}

	var server *http.Server
	serveErr := make(chan error, 1)
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.MetricsHandler())
		server = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("metrics server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics shutdown", "error", err)
		}
	}
	if err := a.warmer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("warmer shutdown", "error", err)
	}
	return runErr
}

// Close releases the cache store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// openStore picks the configured backend and falls back to memory when it
// cannot be opened. The "none" driver returns nil.
func openStore(cfg config.CacheConfig, logger *slog.Logger) ports.KVStore {
	var (
		store ports.KVStore
		err   error
	)

	switch cfg.Driver {
	case config.CacheDriverNone:
		return nil
	case config.CacheDriverSQLite:
		store, err = storage.OpenSQLite(cfg.SQLite.Path, cfg.TTL)
	case config.CacheDriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), storeDialTimeout)
		store, err = storage.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.TTL)
		cancel()
	case config.CacheDriverMemory:
	default:
		err = fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}

	if err != nil {
		logger.Warn("cache store unavailable, using memory", "driver", cfg.Driver, "error", err)
	}
	if store != nil && err == nil {
		logger.Info("cache store ready", "driver", cfg.Driver)
		return store
	}

	mem, mErr := storage.NewMemoryStore(cfg.Memory.Size, cfg.TTL)
	if mErr != nil {
		logger.Warn("memory store unavailable, caching disabled", "error", mErr)
		return nil
	}
	return mem
}
