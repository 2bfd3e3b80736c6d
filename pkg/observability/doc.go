// Package observability provides structured logging, Prometheus metrics,
// health checks, and graceful shutdown for the webhook dispatch service.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("url", sub.URL).Info("subscriber registered")
//
// # Prometheus Metrics
//
// Initialize metrics and wire them into the webhook client:
//
//	metrics := observability.NewMetrics()
//	client, _ := webhooks.New(cfg, webhooks.WithRecorder(metrics))
//	http.Handle("/metrics", metrics.Handler())
//
// Delivery outcomes land in hub_webhook_deliveries_total and
// hub_webhook_delivery_duration_seconds, labeled by event type.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(redisClient)
//	mux.HandleFunc("/healthz", checker.Liveness)
//	mux.HandleFunc("/readyz", checker.Readiness)
//
// # Graceful Shutdown
//
//	manager := observability.NewShutdownManager(logger, server, 30*time.Second)
//	manager.RegisterShutdownFunc(redisClient.Close ...)
//	err := manager.WaitForShutdown()
//
// # Related Packages
//
//   - pkg/webhooks: the Recorder hook consumed by Metrics
//   - pkg/config: observability configuration
package observability
