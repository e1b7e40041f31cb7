package sso

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/platinummonkey/ssoclient/pkg/contextkeys"
	"github.com/platinummonkey/ssoclient/pkg/httputil"
	"github.com/platinummonkey/ssoclient/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/platinummonkey/ssoclient/pkg/sso"

// Login flow labels used for logging, tracing and metrics
const (
	FlowFresh    = "fresh"
	FlowCallback = "callback"
)

// LoginFlowHandler is the single entry point of the SSO login flow. A request
// carrying both an id token and an authorization code is a callback from the
// provider; anything else starts a fresh login.
type LoginFlowHandler struct {
	client     Client
	config     ProviderConfig
	localLogin LocalLoginFunc
	sessionID  SessionIDFunc
	returnURLs *ReturnURLPolicy
	logger     *observability.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer
}

// Option configures a LoginFlowHandler
type Option func(*LoginFlowHandler)

// WithLogger sets the logger used by the handler
func WithLogger(logger *observability.Logger) Option {
	return func(h *LoginFlowHandler) {
		h.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(metrics *observability.Metrics) Option {
	return func(h *LoginFlowHandler) {
		h.metrics = metrics
	}
}

// WithReturnURLPolicy replaces the default return URL policy.
// A nil policy accepts any return_url.
func WithReturnURLPolicy(policy *ReturnURLPolicy) Option {
	return func(h *LoginFlowHandler) {
		h.returnURLs = policy
	}
}

// WithTracer overrides the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(h *LoginFlowHandler) {
		h.tracer = tracer
	}
}

// NewLoginFlowHandler composes a login flow from its collaborators
func NewLoginFlowHandler(client Client, localLogin LocalLoginFunc, sessionID SessionIDFunc, opts ...Option) (*LoginFlowHandler, error) {
	if client == nil {
		return nil, fmt.Errorf("sso client is required")
	}
	if localLogin == nil {
		return nil, fmt.Errorf("local login callback is required")
	}
	if sessionID == nil {
		return nil, fmt.Errorf("session id func is required")
	}

	config := client.Config()
	if config.AuthorizationEndpointURL == "" {
		return nil, fmt.Errorf("authorization endpoint is required")
	}
	if config.ClientID == "" {
		return nil, fmt.Errorf("client_id is required")
	}

	h := &LoginFlowHandler{
		client:     client,
		config:     config,
		localLogin: localLogin,
		sessionID:  sessionID,
		returnURLs: NewReturnURLPolicy(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	return h, nil
}

// IsCallback reports whether r is a redirect back from the identity provider
func IsCallback(r *http.Request) bool {
	return r.FormValue(ParamIDToken) != "" && r.FormValue(ParamCode) != ""
}

// ServeHTTP implements http.Handler
func (h *LoginFlowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.Handle(w, r)
	if err != nil {
		httputil.WriteErrorMessage(w, StatusCode(err), publicMessage(err))
		return
	}

	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// Handle classifies the request and returns where the client should be sent next
func (h *LoginFlowHandler) Handle(w http.ResponseWriter, r *http.Request) (*Redirect, error) {
	ctx, span := h.tracer.Start(r.Context(), "sso.login")
	defer span.End()
	r = r.WithContext(ctx)

	flow := FlowFresh
	if IsCallback(r) {
		flow = FlowCallback
	}
	span.SetAttributes(
		attribute.String("sso.flow", flow),
		attribute.String("sso.provider", h.config.Name),
	)

	logger := observability.UpdateLoggerWithTraceContext(ctx, observability.FromContext(ctx, h.logger)).
		WithField("flow", flow)
	logger.Debug("Handling SSO login request")

	var (
		redirect *Redirect
		err      error
	)
	if flow == FlowCallback {
		redirect, err = h.completeLocalLogin(w, r, logger)
	} else {
		redirect, err = h.buildAuthorizationRedirect(w, r)
	}

	h.metrics.RecordLoginAttempt(flow, outcome(err))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return redirect, nil
}

// BuildRedirectURI reconstructs the URL the provider should call back to
func BuildRedirectURI(r *http.Request) string {
	return RequestURL(r)
}

// BuildAuthorizationURL builds the provider authorization URL for a hybrid flow login
func BuildAuthorizationURL(config ProviderConfig, redirectURI, state string) string {
	authzURL := config.AuthorizationEndpointURL
	authzURL = AppendQueryString(authzURL, ParamResponseType, ResponseTypeHybrid)
	authzURL = AppendQueryString(authzURL, ParamClientID, config.ClientID)
	authzURL = AppendQueryString(authzURL, ParamRedirectURI, redirectURI)
	authzURL = AppendQueryString(authzURL, ParamState, state)
	return authzURL
}

func (h *LoginFlowHandler) buildAuthorizationRedirect(w http.ResponseWriter, r *http.Request) (*Redirect, error) {
	state, err := h.currentSessionID(w, r)
	if err != nil {
		return nil, err
	}

	redirectURI := BuildRedirectURI(r)
	return &Redirect{URL: BuildAuthorizationURL(h.config, redirectURI, state)}, nil
}

func (h *LoginFlowHandler) completeLocalLogin(w http.ResponseWriter, r *http.Request, logger *observability.Logger) (*Redirect, error) {
	sessionID, err := h.currentSessionID(w, r)
	if err != nil {
		return nil, err
	}

	state := r.FormValue(ParamState)
	if subtle.ConstantTimeCompare([]byte(state), []byte(sessionID)) != 1 {
		logger.Warn("SSO callback state does not match session")
		return nil, ErrStateMismatch
	}

	ctx := contextkeys.WithRedirectURI(r.Context(), CallbackRedirectURI(r))

	start := time.Now()
	authn, err := h.client.VerifyIDToken(ctx, r.FormValue(ParamIDToken))
	h.metrics.ObserveProviderCall("verify_id_token", time.Since(start), err)
	if err != nil {
		logger.WithError(err).Error("ID token verification failed")
		return nil, &AuthenticationError{Err: err}
	}

	start = time.Now()
	token, err := h.client.ExchangeCode(ctx, r.FormValue(ParamCode))
	h.metrics.ObserveProviderCall("exchange_code", time.Since(start), err)
	if err != nil {
		logger.WithError(err).Error("Authorization code exchange failed")
		return nil, &TokenExchangeError{Err: err}
	}

	if err := h.localLogin(w, r, authn, token); err != nil {
		logger.WithError(err).Error("Local login failed")
		return nil, &LocalLoginError{Err: err}
	}

	returnURL := r.FormValue(ParamReturnURL)
	switch {
	case returnURL == "":
		returnURL = ServerBaseURL(r)
	case h.returnURLs != nil && !h.returnURLs.Allowed(r, returnURL):
		logger.WithField("return_url", returnURL).Warn("Rejected return URL, using server base URL")
		returnURL = ServerBaseURL(r)
	}

	logger.WithField("subject", authn.Subject).Info("SSO login completed")
	return &Redirect{URL: returnURL}, nil
}

func (h *LoginFlowHandler) currentSessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	id, err := h.sessionID(w, r)
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("resolve session: empty session id")
	}
	return id, nil
}

func outcome(err error) string {
	var (
		authErr     *AuthenticationError
		exchangeErr *TokenExchangeError
		localErr    *LocalLoginError
	)

	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrStateMismatch):
		return "state_mismatch"
	case errors.As(err, &authErr):
		return "authentication_failed"
	case errors.As(err, &exchangeErr):
		return "token_exchange_failed"
	case errors.As(err, &localErr):
		return "local_login_failed"
	default:
		return "error"
	}
}

func publicMessage(err error) string {
	switch outcome(err) {
	case "state_mismatch":
		return ErrStateMismatch.Error()
	case "authentication_failed":
		return "authentication failed"
	case "token_exchange_failed":
		return "token exchange failed"
	default:
		return "login failed"
	}
}
