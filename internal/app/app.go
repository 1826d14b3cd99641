package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nefol/discovery/internal/catalog"
	pgcatalog "github.com/nefol/discovery/internal/catalog/postgres"
	"github.com/nefol/discovery/internal/config"
	"github.com/nefol/discovery/internal/engine"
	esengine "github.com/nefol/discovery/internal/engine/elasticsearch"
	"github.com/nefol/discovery/internal/engine/memory"
	"github.com/nefol/discovery/internal/event"
	handler "github.com/nefol/discovery/internal/handler/http"
	"github.com/nefol/discovery/internal/history"
	redisstore "github.com/nefol/discovery/internal/history/redis"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/service"
	"github.com/nefol/discovery/internal/suggest"
	"github.com/nefol/discovery/internal/taxonomy"
	"github.com/nefol/discovery/pkg/database"
	"github.com/nefol/discovery/pkg/health"
	pkgkafka "github.com/nefol/discovery/pkg/kafka"
	"github.com/nefol/discovery/pkg/middleware"
	"github.com/nefol/discovery/pkg/tracing"
)

const (
	slowQueryThreshold  = 200 * time.Millisecond
	idempotencyTTL      = 24 * time.Hour
	idempotencySweepInt = 10 * time.Minute
)

// App wires together all dependencies and runs the discovery server.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	service     *service.DiscoveryService
	consumer    *pkgkafka.Consumer
	dlq         *pkgkafka.DLQ
	idempotency *pkgkafka.MemoryIdempotencyStore
	httpServer  *http.Server
	closers     []func() error
	tracerStop  func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	stopTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracerStop = stopTracer

	// Discovery rules.
	tax, err := taxonomy.LoadOrDefault(cfg.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	matcher := match.New(tax)
	generator := suggest.New(tax, suggest.Config{MinLength: cfg.SuggestMinLength})
	logger.Info("ingredient taxonomy loaded",
		slog.Int("keys", tax.Len()),
		slog.String("path", cfg.TaxonomyPath),
	)

	// Search engine.
	var eng engine.SearchEngine
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err := esengine.New(ctx, esengine.Config{
			URL:       cfg.ElasticsearchURL,
			IndexName: cfg.ElasticsearchIndex,
		}, matcher, generator, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		healthHandler.Register("elasticsearch", esEng.Ping)
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New(matcher, generator)
		logger.Info("in-memory search engine initialized")
	}

	// Catalog source.
	source, err := a.catalogSource(ctx, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	// Search history.
	var recent history.RecentStore
	var popular history.PopularStore
	switch cfg.HistoryStore {
	case config.HistoryRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store := redisstore.NewStore(client, cfg.RecentSearchLimit)
		recent, popular = store, store
		healthHandler.Register("redis", store.Ping)
	default:
		store := history.NewMemoryStore(cfg.RecentSearchLimit)
		recent, popular = store, store
	}

	// Service layer.
	a.service = service.NewDiscoveryService(eng, recent, popular, source, service.Config{
		PopularQueries: cfg.PopularQueries,
		PopularLimit:   cfg.PopularLimit,
	}, logger)
	if err := a.service.Bootstrap(ctx); err != nil {
		logger.Warn("catalog bootstrap failed, index starts empty", slog.String("error", err.Error()))
	}
	healthHandler.Register("catalog", a.service.Ready)

	// Catalog events.
	if cfg.KafkaEnabled {
		a.initConsumer()
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	// HTTP router.
	router := handler.NewRouter(a.service, healthHandler, handler.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		CacheMaxAge:    cfg.CacheMaxAge,
		RateLimit: middleware.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func (a *App) catalogSource(ctx context.Context, healthHandler *health.Handler) (catalog.Source, error) {
	switch a.cfg.CatalogSource {
	case config.CatalogFile:
		a.logger.Info("file catalog source configured", slog.String("path", a.cfg.CatalogFile))
		return catalog.NewFileSource(a.cfg.CatalogFile, a.logger), nil

	case config.CatalogPostgres:
		pool, err := database.NewPostgresPool(ctx, &a.cfg.Postgres, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if a.cfg.PostgresMigrate {
			if err := database.RunMigrations(ctx, pool, pgcatalog.Migrations(), a.logger); err != nil {
				return nil, fmt.Errorf("migrate catalog schema: %w", err)
			}
		}

		database.SetSlowQueryLogging(slowQueryThreshold, a.logger)
		if err := prometheus.Register(database.NewPoolStatsCollector(pool)); err != nil {
			a.logger.Warn("catalog pool metrics not registered", slog.String("error", err.Error()))
		}
		healthHandler.Register("postgres", pool.Ping)

		a.logger.Info("postgres catalog source configured",
			slog.String("host", a.cfg.Postgres.Host),
			slog.String("database", a.cfg.Postgres.DBName),
		)
		return pgcatalog.NewSource(pool, a.logger), nil

	default:
		return nil, nil
	}
}

func (a *App) initConsumer() {
	eventConsumer := event.NewConsumer(a.service, a.logger)
	a.idempotency = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	handle := pkgkafka.IdempotentHandler(a.idempotency, eventConsumer.Handle, a.logger)

	reader := pkgkafka.NewReader(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  a.cfg.KafkaGroupID,
		Topics:   event.ProductTopics(),
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
	})

	var opts []pkgkafka.ConsumerOption
	if a.cfg.KafkaDLQ {
		a.dlq = pkgkafka.NewDLQ(pkgkafka.NewWriter(pkgkafka.ProducerConfig{Brokers: a.cfg.KafkaBrokers}), a.cfg.KafkaGroupID, a.logger)
		opts = append(opts, pkgkafka.WithDLQ(a.dlq))
	}
	a.consumer = pkgkafka.NewConsumer(reader, handle, a.logger, opts...)

	a.logger.Info("kafka consumer initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.Any("topics", event.ProductTopics()),
		slog.Bool("dlq", a.cfg.KafkaDLQ),
	)
}

// Run starts the HTTP server and Kafka consumer, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
		go a.sweepIdempotency(ctx)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

func (a *App) sweepIdempotency(ctx context.Context) {
	ticker := time.NewTicker(idempotencySweepInt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.idempotency.Sweep(); n > 0 {
				a.logger.Debug("expired processed-event ids", slog.Int("removed", n))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.close())

	if err := a.tracerStop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush traces: %w", err))
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Handler exposes the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}
