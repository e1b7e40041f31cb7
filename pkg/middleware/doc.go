// Package middleware provides rate limiting for the SSO login endpoint.
//
// Two limiters implement Limiter:
//
//	limiter := middleware.NewTokenBucketLimiter(middleware.DefaultLoginRateLimitConfig())
//	limiter.StartCleanup(ctx)
//
//	limiter := middleware.NewRedisLimiter(redisClient, config, "ratelimit:login")
//
// The token bucket is per process. The Redis limiter counts in fixed windows
// shared by every instance. Either is wrapped around a handler with RateLimit,
// which keys requests by client IP and answers 429 with a Retry-After header.
package middleware
