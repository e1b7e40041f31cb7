package sso

import (
	"context"
	"net/http"
)

// Client performs the protocol work the login flow delegates:
// id token verification and authorization code exchange.
type Client interface {
	// Config returns the static provider configuration
	Config() ProviderConfig

	// VerifyIDToken validates a raw id token and returns the asserted identity
	VerifyIDToken(ctx context.Context, rawIDToken string) (*Authentication, error)

	// ExchangeCode trades an authorization code for an access token. On a
	// callback ctx carries the authorization request's redirect_uri, see
	// contextkeys.GetRedirectURI.
	ExchangeCode(ctx context.Context, code string) (*AccessToken, error)
}

// LocalLoginFunc establishes the embedding application's own session once the
// provider callback has been verified. It runs exactly once per callback,
// before the final redirect is written.
type LocalLoginFunc func(w http.ResponseWriter, r *http.Request, authn *Authentication, token *AccessToken) error

// SessionIDFunc returns the identifier of the caller's current session,
// creating one if needed. The value doubles as the anti-forgery state.
type SessionIDFunc func(w http.ResponseWriter, r *http.Request) (string, error)
