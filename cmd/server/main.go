// Package main provides the bot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/andybot/andybot-go/internal/activity"
	"github.com/andybot/andybot-go/internal/backend"
	"github.com/andybot/andybot-go/internal/catalog"
	"github.com/andybot/andybot-go/internal/config"
	"github.com/andybot/andybot-go/internal/delivery"
	"github.com/andybot/andybot-go/internal/handlers"
	"github.com/andybot/andybot-go/internal/logger"
	"github.com/andybot/andybot-go/internal/metrics"
	"github.com/andybot/andybot-go/internal/ratelimit"
	"github.com/andybot/andybot-go/internal/reply"
	"github.com/andybot/andybot-go/internal/router"
	"github.com/andybot/andybot-go/internal/scan"
	"github.com/andybot/andybot-go/internal/sentry"
	"github.com/andybot/andybot-go/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting andybot server")
	setupGinMode(cfg.LogLevel)

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry; error reporting disabled")
	}
	defer sentry.Flush(2 * time.Second)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.WithError(err).Error("Failed to load activity catalog")
		os.Exit(1)
	}
	log.WithField("activities", len(cat.Manifest)).
		WithField("stamps", len(cat.Stamps)).
		Info("Activity catalog loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, log, m)
	deliveryClient := delivery.NewClient(cfg.RuntimeSendURL, cfg.DeliveryTimeout, log, m)
	scheduler := reply.NewScheduler(deliveryClient, log, m)

	manager := activity.NewManager(activity.ManagerConfig{
		Lister:  backendClient,
		Port:    deliveryClient,
		Drivers: delivery.Drivers(deliveryClient),
		Logger:  log,
		Metrics: m,
	})

	resolver := scan.NewResolver(backendClient, cat, deliveryClient, scheduler, log, m)

	rt := router.New(deliveryClient, log, m)
	handlers.New(handlers.Deps{
		Backend:    backendClient,
		Catalog:    cat,
		Port:       deliveryClient,
		Resolver:   resolver,
		Activities: manager,
		StaticURL:  cfg.StaticURL,
		Logger:     log,
	}).Register(rt)

	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyConfig{
		MaxTokens:  cfg.UserRateBurst,
		RefillRate: cfg.UserRateRefill,
	})
	defer userLimiter.Stop()

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		VerifyToken: cfg.WebhookVerifyToken,
		Dispatcher:  rt,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
	})

	engine := setupRoutes(webhookHandler, registry)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown failed")
		}
		if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Event processing did not drain in time")
		}
		if err := scheduler.Wait(shutdownCtx); err != nil {
			log.WithError(err).Warn("Scheduled replies did not drain in time")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
	log.Info("Server stopped")
}

// setupGinMode picks the Gin mode from the log level.
func setupGinMode(logLevel string) {
	if logLevel == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
