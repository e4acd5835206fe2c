// Package app wires together all dependencies and runs the storefront
// session service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curetcore/velox-storefront/internal/cart"
	"github.com/curetcore/velox-storefront/internal/config"
	"github.com/curetcore/velox-storefront/internal/event"
	handler "github.com/curetcore/velox-storefront/internal/handler/http"
	"github.com/curetcore/velox-storefront/internal/money"
	"github.com/curetcore/velox-storefront/internal/search"
	"github.com/curetcore/velox-storefront/internal/storeapi"
	"github.com/curetcore/velox-storefront/internal/wishlist"
	wishlistredis "github.com/curetcore/velox-storefront/internal/wishlist/redis"
	"github.com/curetcore/velox-storefront/pkg/health"
	"github.com/curetcore/velox-storefront/pkg/httpclient"
	pkgkafka "github.com/curetcore/velox-storefront/pkg/kafka"
	"github.com/curetcore/velox-storefront/pkg/tracing"
)

// App holds the service's long-lived components.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server

	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront-session",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis backs wishlist persistence.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka carries analytics events off-process.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// In-process event bus with the analytics forwarder attached.
	bus := event.NewBus(logger)
	forwarder := event.NewForwarder(producer, logger)
	bus.SubscribeAll(forwarder.Handle)

	// Circuit-broken HTTP client for the authoritative storefront API.
	httpCfg := httpclient.DefaultConfig()
	cbClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("storefront-api"),
		logger,
	)
	storeClient := storeapi.NewClient(cbClient, cfg.StoreBaseURL)

	// Pipelines and stores.
	formatter := money.NewFormatter(nil)
	shipping := cart.NewShippingCalculator(cfg.FreeShippingThreshold, cfg.ShippingSuccessMsg, cfg.ShippingRemainingMsg, formatter)
	carts := cart.NewManager(storeClient, bus, shipping, cart.Options{
		UpsellLimit: cfg.UpsellLimit,
		NoticeTTL:   cfg.NoticeTTL(),
	}, logger)

	searches := search.NewManager(storeClient, bus, search.Options{
		Debounce:    cfg.SearchDebounce(),
		MinQueryLen: cfg.SearchMinQueryLen,
		MaxResults:  cfg.SearchMaxResults,
	}, logger)

	wishlistTTL := time.Duration(cfg.WishlistTTL) * time.Hour
	wishlists := wishlist.NewManager(func(owner string) wishlist.Storage {
		return wishlistredis.NewStorage(rdb, owner, wishlistTTL)
	}, bus, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(carts, searches, wishlists, healthHandler, logger, cfg.AllowedOrigins)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
