package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/ssoclient/pkg/httputil"
	"github.com/platinummonkey/ssoclient/pkg/observability"
)

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit limits requests per client IP. Limiter errors fail open.
func RateLimit(limiter Limiter, logger *observability.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	config := limiter.Config()
	retryAfter := int(math.Ceil(config.WindowDuration.Seconds()))
	limit := strconv.Itoa(config.RequestsPerWindow + config.BurstSize)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ClientIP(r)

			allowed, remaining, err := limiter.Allow(r.Context(), key)
			if err != nil {
				observability.FromContext(r.Context(), logger).
					WithError(err).
					WithField("backend", limiter.Backend()).
					Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				metrics.RecordRateLimited(limiter.Backend())
				observability.FromContext(r.Context(), logger).
					WithField("client", key).
					Warn("Rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, rateLimitResponse{
					Error:      "rate limit exceeded",
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the originating client address, preferring proxy headers
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
