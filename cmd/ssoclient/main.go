package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/platinummonkey/ssoclient/pkg/config"
	"github.com/platinummonkey/ssoclient/pkg/httputil"
	"github.com/platinummonkey/ssoclient/pkg/middleware"
	"github.com/platinummonkey/ssoclient/pkg/observability"
	"github.com/platinummonkey/ssoclient/pkg/session"
	"github.com/platinummonkey/ssoclient/pkg/sso"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ssoclient: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	health := observability.NewHealthChecker(cfg.Observability.OTelServiceVersion)

	backend, err := newSessionStore(ctx, cfg.Session, health, logger, metrics)
	if err != nil {
		return err
	}

	sessions := session.NewManager(backend.store, session.Config{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		TTL:          cfg.Session.TTL,
	}, logger, metrics)

	oidcConfig := &sso.OIDCConfig{
		ClientID:              cfg.SSO.ClientID,
		ClientSecret:          cfg.SSO.ClientSecret,
		IssuerURL:             cfg.SSO.IssuerURL,
		AuthorizationEndpoint: cfg.SSO.AuthorizationEndpoint,
		Scopes:                cfg.SSO.Scopes,
		SkipIssuerCheck:       cfg.SSO.SkipIssuerCheck,
	}
	if err := sso.ApplyPreset(oidcConfig, sso.ProviderName(cfg.SSO.Preset)); err != nil {
		return err
	}

	client, err := sso.NewOIDCClient(ctx, oidcConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize OIDC client: %w", err)
	}

	returnURLs := sso.NewReturnURLPolicy(cfg.SSO.AllowedReturnHosts...)
	login, err := sso.NewLoginFlowHandler(client, sessions.Login, sessions.SessionID,
		sso.WithLogger(logger),
		sso.WithMetrics(metrics),
		sso.WithReturnURLPolicy(returnURLs),
	)
	if err != nil {
		return err
	}

	var loginLimit func(http.Handler) http.Handler
	if cfg.Server.LoginRateLimit > 0 {
		limiter := newLoginLimiter(ctx, cfg.Server, backend.redis)
		loginLimit = middleware.RateLimit(limiter, logger, metrics)
		logger.WithFields(map[string]interface{}{
			"backend":  limiter.Backend(),
			"requests": cfg.Server.LoginRateLimit,
			"window":   cfg.Server.LoginRateWindow.String(),
		}).Info("Login rate limiting enabled")
	}

	router := newRouter(routes{
		loginPath:  cfg.Server.LoginPath,
		loginLimit: loginLimit,
		login:      login,
		sessions:   sessions,
		returnURLs: returnURLs,
		health:     health,
		metrics:    metrics,
		registry:   registry,
		logger:     logger,
	})

	handler := httputil.Chain(
		httputil.RecoveryMiddleware(logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
	)(router)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(handler, "ssoclient"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})
	shutdown.RegisterShutdownFunc(backend.close)

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]interface{}{
			"addr":       server.Addr,
			"login_path": cfg.Server.LoginPath,
			"provider":   oidcConfig.Name,
		}).Info("Starting SSO client server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	if err := shutdown.WaitForShutdown(ctx); err != nil {
		return err
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	default:
		return nil
	}
}

// sessionBackend is the configured session store and the resources behind it
type sessionBackend struct {
	store session.Store
	redis *redis.Client // set when sessions live in Redis
	close observability.ShutdownFunc
}

// newSessionStore builds the configured session store and registers its
// health check
func newSessionStore(ctx context.Context, cfg config.SessionConfig, health *observability.HealthChecker, logger *observability.Logger, metrics *observability.Metrics) (*sessionBackend, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := session.NewRedisClient(ctx, session.RedisConfig{
			URL:        cfg.RedisURL,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			MaxRetries: cfg.RedisMaxRetries,
			PoolSize:   cfg.RedisPoolSize,
		})
		if err != nil {
			return nil, err
		}
		health.AddCheck("redis", true, observability.RedisCheck(client))

		return &sessionBackend{
			store: session.NewRedisStore(client),
			redis: client,
			close: func(context.Context) error { return client.Close() },
		}, nil

	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.DatabaseMaxConn)
		db.SetMaxIdleConns(cfg.DatabaseMaxConn)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		store, err := session.NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		health.AddCheck("postgres", true, observability.DatabaseCheck(db))

		janitor, err := session.NewJanitor(store, store.Backend(), cfg.PurgeSchedule, logger, metrics)
		if err != nil {
			db.Close()
			return nil, err
		}
		janitor.Start()

		return &sessionBackend{
			store: store,
			close: func(ctx context.Context) error {
				return errors.Join(janitor.Stop(ctx), db.Close())
			},
		}, nil

	default:
		return &sessionBackend{
			store: session.NewMemoryStore(cfg.MemoryMaxSize, cfg.TTL),
			close: func(context.Context) error { return nil },
		}, nil
	}
}

// newLoginLimiter shares the session Redis between instances when there is
// one and falls back to a per-process token bucket
func newLoginLimiter(ctx context.Context, cfg config.ServerConfig, client *redis.Client) middleware.Limiter {
	limits := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.LoginRateLimit,
		WindowDuration:    cfg.LoginRateWindow,
		BurstSize:         cfg.LoginRateBurst,
	}

	if client != nil {
		return middleware.NewRedisLimiter(client, limits, "ratelimit:login")
	}

	limiter := middleware.NewTokenBucketLimiter(limits)
	limiter.StartCleanup(ctx)
	return limiter
}
