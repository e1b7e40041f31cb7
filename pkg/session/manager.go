package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/ssoclient/pkg/contextkeys"
	"github.com/platinummonkey/ssoclient/pkg/httputil"
	"github.com/platinummonkey/ssoclient/pkg/observability"
	"github.com/platinummonkey/ssoclient/pkg/sso"
)

// DefaultCookieName is the session cookie used when Config.CookieName is empty
const DefaultCookieName = "ssoclient_session"

// ErrNoSession is returned when the request carries no session cookie
var ErrNoSession = errors.New("no session cookie")

// Config controls the session cookie and lifetime
type Config struct {
	CookieName   string
	CookiePath   string
	CookieDomain string
	CookieSecure bool
	TTL          time.Duration
}

// Manager issues session cookies and stores authenticated sessions.
//
// Every browser gets an opaque session ID before login; that ID is what the
// login flow sends as state. On successful login the ID is rotated, so the
// value that travelled through the identity provider never names an
// authenticated session.
type Manager struct {
	store   Store
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewManager creates a session manager
func NewManager(store Store, config Config, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}
	if config.CookiePath == "" {
		config.CookiePath = "/"
	}
	if config.TTL <= 0 {
		config.TTL = 8 * time.Hour
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	return &Manager{
		store:   store,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// SessionID returns the caller's anonymous session ID, issuing a new cookie
// when the request has none. A cookie naming an authenticated session is
// never returned: that session is ended and a fresh anonymous ID replaces it.
// It satisfies sso.SessionIDFunc.
func (m *Manager) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	if id := m.cookieValue(r); id != "" {
		authenticated, err := m.authenticated(r.Context(), id)
		if err != nil {
			return "", err
		}
		if !authenticated {
			return id, nil
		}

		if err := m.delete(r.Context(), id); err != nil {
			return "", fmt.Errorf("failed to end authenticated session: %w", err)
		}
		observability.FromContext(r.Context(), m.logger).Info("Ended authenticated session to start a new login")
	}

	id := uuid.NewString()
	m.setCookie(w, id)
	return id, nil
}

// Login establishes an authenticated session for the verified identity.
// It satisfies sso.LocalLoginFunc.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, authn *sso.Authentication, token *sso.AccessToken) error {
	if authn == nil {
		return fmt.Errorf("authentication is required")
	}
	ctx := r.Context()
	logger := observability.FromContext(ctx, m.logger)

	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Subject:   authn.Subject,
		Issuer:    authn.Issuer,
		UserID:    authn.UserID,
		Username:  authn.Username,
		Email:     authn.Email,
		FullName:  authn.FullName,
		Groups:    authn.Groups,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}
	if token != nil {
		sess.AccessToken = token.AccessToken
		sess.TokenType = token.TokenType
		sess.TokenExpiry = token.Expiry
	}

	err := m.store.Save(ctx, sess, m.config.TTL)
	m.metrics.RecordSessionStoreOperation("save", m.store.Backend(), err)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if previous := m.cookieValue(r); previous != "" {
		if err := m.delete(ctx, previous); err != nil {
			logger.WithError(err).Warn("Failed to remove previous session")
		}
	}

	m.setCookie(w, sess.ID)
	m.metrics.RecordSessionCreated()

	logger.WithFields(map[string]interface{}{
		"subject": sess.Subject,
		"user_id": sess.UserID,
	}).Info("Session created")

	return nil
}

// Current returns the authenticated session for the request.
// It returns ErrNoSession without a cookie and ErrNotFound for an anonymous or
// expired session.
func (m *Manager) Current(r *http.Request) (*Session, error) {
	id := m.cookieValue(r)
	if id == "" {
		return nil, ErrNoSession
	}

	sess, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		m.metrics.RecordSessionStoreOperation("get", m.store.Backend(), nil)
		return nil, ErrNotFound
	}
	m.metrics.RecordSessionStoreOperation("get", m.store.Backend(), err)
	if err != nil {
		return nil, err
	}

	if sess.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Logout deletes the caller's session and clears the cookie
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	id := m.cookieValue(r)
	m.clearCookie(w)
	if id == "" {
		return nil
	}

	if err := m.delete(r.Context(), id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RequireLogin rejects anonymous requests by redirecting them to loginPath,
// carrying the original URL as return_url. Authenticated requests get the
// session in their context.
func (m *Manager) RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Current(r)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), contextkeys.SessionKey, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.Is(err, ErrNoSession), errors.Is(err, ErrNotFound):
				target := sso.AppendQueryString(loginPath, sso.ParamReturnURL, sso.RequestURL(r))
				http.Redirect(w, r, target, http.StatusFound)
			default:
				observability.FromContext(r.Context(), m.logger).WithError(err).Error("Failed to load session")
				httputil.WriteErrorMessage(w, http.StatusInternalServerError, "session unavailable")
			}
		})
	}
}

// FromContext returns the session stored by RequireLogin
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextkeys.SessionKey).(*Session)
	return sess, ok
}

// authenticated reports whether id names a stored, unexpired session
func (m *Manager) authenticated(ctx context.Context, id string) (bool, error) {
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		m.metrics.RecordSessionStoreOperation("get", m.store.Backend(), nil)
		return false, nil
	}
	m.metrics.RecordSessionStoreOperation("get", m.store.Backend(), err)
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	return !sess.Expired(m.now()), nil
}

func (m *Manager) delete(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)
	m.metrics.RecordSessionStoreOperation("delete", m.store.Backend(), err)
	return err
}

func (m *Manager) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    id,
		Path:     m.config.CookiePath,
		Domain:   m.config.CookieDomain,
		MaxAge:   int(m.config.TTL.Seconds()),
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     m.config.CookiePath,
		Domain:   m.config.CookieDomain,
		MaxAge:   -1,
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
