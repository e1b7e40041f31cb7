package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/ssoclient/pkg/httputil"
	"github.com/platinummonkey/ssoclient/pkg/observability"
	"github.com/platinummonkey/ssoclient/pkg/session"
	"github.com/platinummonkey/ssoclient/pkg/sso"
	"github.com/prometheus/client_golang/prometheus"
)

// routes bundles the handlers served by the binary
type routes struct {
	loginPath  string
	loginLimit func(http.Handler) http.Handler // optional
	login      http.Handler
	sessions   *session.Manager
	returnURLs *sso.ReturnURLPolicy
	health     *observability.HealthChecker
	metrics    *observability.Metrics
	registry   *prometheus.Registry
	logger     *observability.Logger
}

// profileResponse is the body of GET /me
type profileResponse struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Groups    []string  `json:"groups,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newRouter(rt routes) *mux.Router {
	router := mux.NewRouter()
	if rt.metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(rt.metrics))
	}

	login := rt.login
	if rt.loginLimit != nil {
		login = rt.loginLimit(login)
	}
	router.Handle(rt.loginPath, login).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/logout", rt.logout).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/me", rt.sessions.RequireLogin(rt.loginPath)(http.HandlerFunc(rt.me))).Methods(http.MethodGet)

	router.HandleFunc("/health/live", rt.health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", rt.health.Readiness).Methods(http.MethodGet)
	if rt.registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(rt.registry)).Methods(http.MethodGet)
	}

	return router
}

func (rt routes) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "login required")
		return
	}

	httputil.WriteSuccess(w, profileResponse{
		Subject:   sess.Subject,
		Issuer:    sess.Issuer,
		UserID:    sess.UserID,
		Username:  sess.Username,
		Email:     sess.Email,
		FullName:  sess.FullName,
		Groups:    sess.Groups,
		ExpiresAt: sess.ExpiresAt,
	})
}

// logout ends the local session and redirects to return_url when it is
// allowed, otherwise to the site root
func (rt routes) logout(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Logout(w, r); err != nil {
		observability.FromContext(r.Context(), rt.logger).WithError(err).Error("Logout failed")
		httputil.WriteInternalError(w, err)
		return
	}

	target := sso.ServerBaseURL(r) + "/"
	if returnURL := r.FormValue(sso.ParamReturnURL); returnURL != "" {
		if rt.returnURLs == nil || rt.returnURLs.Allowed(r, returnURL) {
			target = returnURL
		}
	}

	http.Redirect(w, r, target, http.StatusFound)
}
