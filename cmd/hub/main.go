package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/hub/pkg/config"
	"github.com/platinummonkey/hub/pkg/middleware"
	"github.com/platinummonkey/hub/pkg/observability"
	"github.com/platinummonkey/hub/pkg/webhooks"
)

func main() {
	configPath := flag.String("config", os.Getenv("HUB_CONFIG"), "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Logger isn't up yet; fall back to a bare one.
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	// Optional Redis, backing the distributed rate limiter and readiness.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Error("Invalid Redis URL")
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(opts)
		logger.WithField("addr", opts.Addr).Info("Redis connected for distributed rate limiting")
	}

	clientOpts := []webhooks.Option{
		webhooks.WithDeliveryLog(webhooks.NewDeliveryLog(cfg.Delivery.LogCapacity)),
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
		clientOpts = append(clientOpts, webhooks.WithRecorder(metrics))
	}

	if cfg.Delivery.RateLimit > 0 {
		var limiter webhooks.Limiter
		if redisClient != nil {
			limiter = webhooks.NewDistributedRateLimiter(redisClient, cfg.Delivery.RateLimit, cfg.Delivery.RateWindow)
		} else {
			limiter = webhooks.NewRateLimiter(cfg.Delivery.RateLimit, cfg.Delivery.RateWindow)
		}
		clientOpts = append(clientOpts, webhooks.WithLimiter(limiter))
	}

	client, err := webhooks.New(cfg.Webhook, clientOpts...)
	if err != nil {
		logger.WithError(err).Error("Failed to build webhook client")
		os.Exit(1)
	}
	logger.WithFields(map[string]interface{}{
		"mode":        cfg.Webhook.Mode,
		"api_version": cfg.Webhook.APIVersion,
		"hooks":       len(cfg.Webhook.Hooks),
	}).Info("Webhook client ready")

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NewRateLimit(nil).Handler)
	webhooks.NewHandlers(client).RegisterRoutes(router)

	health := observability.NewHealthChecker(redisClient)
	router.HandleFunc("/healthz", health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", health.Readiness).Methods("GET")

	var handler http.Handler = router
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
		handler = metrics.InstrumentHandler("api", router)
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", addr).Info("Starting hub webhook dispatch server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}
