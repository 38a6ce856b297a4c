package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	webhookapp "github.com/neuropul/backend/internal/application/webhook"
	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/infrastructure/cache"
	"github.com/neuropul/backend/internal/infrastructure/config"
	"github.com/neuropul/backend/internal/infrastructure/logger"
	"github.com/neuropul/backend/internal/infrastructure/storage"
	"github.com/neuropul/backend/internal/infrastructure/telemetry"
	"github.com/neuropul/backend/internal/interfaces/http/handler"
	"github.com/neuropul/backend/internal/interfaces/http/middleware"
	"github.com/neuropul/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration. Missing storage credentials fail here, before any
	// request can be accepted and silently dropped.
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting payment webhook server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize telemetry
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		SampleRate:        cfg.Telemetry.SamplingRatio,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	webhookMetrics := telemetry.NoopWebhookMetrics()
	var httpMetrics *middleware.HTTPMetrics
	if meterProvider.IsEnabled() {
		meter := meterProvider.Meter("neuropul/webhooks")
		webhookMetrics, err = telemetry.NewWebhookMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create webhook metrics", zap.Error(err))
		}
		httpMetrics, err = middleware.NewHTTPMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create HTTP metrics", zap.Error(err))
		}
	}

	// Initialize the idempotency store (local L1, Redis L2 when reachable)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithMaxEntries(cfg.Webhook.CacheMaxEntries),
		cache.WithRequireSharedStore(cfg.Webhook.RequireSharedStore),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize the durable payment store
	paymentsStore := storage.NewPaymentsStore(cfg.Storage, log)

	// Assemble the webhook pipeline
	webhookService := webhookapp.NewService(webhookapp.ServiceConfig{
		Adapters: []payment.Adapter{
			webhookapp.NewStripeAdapter(cfg.Webhook.StripeWebhookSecret, log),
			webhookapp.NewPayPalAdapter(log),
			webhookapp.NewTelegramAdapter(cfg.Webhook.TelegramSecretToken, log),
		},
		Store:   paymentsStore,
		Metrics: webhookMetrics,
		Logger:  log,
	})

	// Build the HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestID(log))
	engine.Use(logger.GinMiddleware(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	if httpMetrics != nil {
		engine.Use(httpMetrics.Middleware())
	}
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Idempotency(idempotencyStore, payment.IdempotencyConfig{
		FreshnessWindow: cfg.Webhook.FreshnessWindow,
		MaxEntries:      cfg.Webhook.CacheMaxEntries,
	}, log))

	idempotencyMode := "local"
	if tiered, ok := idempotencyStore.(*cache.TieredIdempotencyStore); ok && tiered.SharedTierActive() {
		idempotencyMode = "shared"
	}

	router.NewRouter(engine, router.WithBasePath("/api/v1")).
		Register(handler.NewSystemHandler(cfg.App.Name, version, idempotencyMode)).
		Register(handler.NewWebhookHandler(webhookService, log)).
		Setup()

	// Start the HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
