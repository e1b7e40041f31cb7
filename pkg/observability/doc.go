// Package observability provides structured logging, Prometheus metrics, health
// probes and OpenTelemetry tracing for the SSO client service.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("flow", "callback").Info("SSO login completed")
//
// Request-scoped logging:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	observability.FromContext(ctx, logger).Warn("state mismatch")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordLoginAttempt("fresh", "success")
//
// All Record* helpers are no-ops on a nil *Metrics.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("redis", false, observability.RedisCheck(redisClient))
//	router.HandleFunc("/health/ready", checker.Readiness)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "ssoclient",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
