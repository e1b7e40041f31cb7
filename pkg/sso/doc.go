// Package sso bridges a web application to a single sign-on identity provider.
//
// # Overview
//
// LoginFlowHandler is a single http.Handler that either starts a login or
// completes one. A request that carries both an id_token and a code parameter
// is treated as the provider's callback; everything else is a fresh login.
//
// Fresh login redirects to the provider's authorization endpoint using the
// hybrid response type:
//
//	GET <authorization_endpoint>?response_type=code%20id_token&client_id=<id>&redirect_uri=<current url>&state=<session id>
//
// A callback must echo the session id as state. The id token is verified, the
// code is exchanged for an access token, the local login callback runs, and
// the client is redirected to return_url (or the server base URL).
//
// # Usage Example
//
//	client, err := sso.NewOIDCClient(ctx, &sso.OIDCConfig{
//		ClientID:     "client-id",
//		ClientSecret: "client-secret",
//		IssuerURL:    "https://idp.example.com",
//		Scopes:       []string{"openid", "profile", "email"},
//	})
//
//	handler, err := sso.NewLoginFlowHandler(client, sessions.Login, sessions.SessionID,
//		sso.WithLogger(logger),
//		sso.WithMetrics(metrics),
//		sso.WithReturnURLPolicy(sso.NewReturnURLPolicy("app.example.com")),
//	)
//	router.Handle("/login", handler).Methods("GET")
//
// # Errors
//
// Callback failures are returned as ErrStateMismatch, *AuthenticationError,
// *TokenExchangeError or *LocalLoginError. Each wraps the collaborator's
// original error; StatusCode maps them to HTTP statuses.
//
// # Related Packages
//
//   - pkg/session: Session identifiers and the default local login
//   - pkg/observability: Logging, metrics and tracing
package sso
