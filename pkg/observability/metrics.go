package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// SSO metrics
	LoginAttemptsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	ProviderCallErrors   *prometheus.CounterVec

	// Session metrics
	SessionStoreOperationsTotal *prometheus.CounterVec
	SessionsCreatedTotal        prometheus.Counter

	RateLimitedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoclient_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ssoclient_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoclient_sso_login_attempts_total",
				Help: "Total number of SSO login requests by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		ProviderCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ssoclient_sso_provider_call_duration_seconds",
				Help:    "Duration of calls delegated to the identity provider client",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ProviderCallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoclient_sso_provider_call_errors_total",
				Help: "Total number of failed identity provider client calls",
			},
			[]string{"operation"},
		),

		SessionStoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoclient_session_store_operations_total",
				Help: "Total number of session store operations",
			},
			[]string{"operation", "backend", "status"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ssoclient_sessions_created_total",
				Help: "Total number of authenticated sessions created",
			},
		),

		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssoclient_rate_limited_requests_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"backend"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.LoginAttemptsTotal,
			m.ProviderCallDuration,
			m.ProviderCallErrors,
			m.SessionStoreOperationsTotal,
			m.SessionsCreatedTotal,
			m.RateLimitedTotal,
		)
	}

	return m
}

// RecordLoginAttempt counts a login request. Safe to call on a nil receiver.
func (m *Metrics) RecordLoginAttempt(flow, outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(flow, outcome).Inc()
}

// ObserveProviderCall records the duration and result of a provider client call
func (m *Metrics) ObserveProviderCall(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ProviderCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.ProviderCallErrors.WithLabelValues(operation).Inc()
	}
}

// RecordSessionStoreOperation counts a session store operation
func (m *Metrics) RecordSessionStoreOperation(operation, backend string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SessionStoreOperationsTotal.WithLabelValues(operation, backend, status).Inc()
}

// RecordSessionCreated counts a newly authenticated session
func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter
func (m *Metrics) RecordRateLimited(backend string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(backend).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			path := routePath(r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routePath returns the matched mux route template, falling back to the raw path
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
