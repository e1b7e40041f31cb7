// Package contextkeys defines the context keys shared across packages.
//
// Keys live here so that a value set by one package's middleware can be read
// by another without an import cycle.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains the request ID string.
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, tracing
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger.
	// Set by: httputil.LoggingMiddleware
	LoggerKey Key = "logger"

	// SessionKey contains *session.Session.
	// Set by: session.Manager.RequireLogin
	SessionKey Key = "session"

	// RedirectURIKey contains the redirect_uri sent in the authorization request.
	// Set by: sso.LoginFlowHandler on callbacks
	// Used by: sso.OIDCClient.ExchangeCode
	RedirectURIKey Key = "redirect_uri"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRedirectURI adds the OAuth redirect_uri to the context
func WithRedirectURI(ctx context.Context, redirectURI string) context.Context {
	return context.WithValue(ctx, RedirectURIKey, redirectURI)
}

// GetRedirectURI retrieves the OAuth redirect_uri from context
func GetRedirectURI(ctx context.Context) string {
	if redirectURI, ok := ctx.Value(RedirectURIKey).(string); ok {
		return redirectURI
	}
	return ""
}
