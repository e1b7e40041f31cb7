package sso

import (
	"net/http"
	"net/url"
	"strings"
)

// ReturnURLPolicy decides which post-login destinations are acceptable.
// Relative paths and same-host URLs are always allowed; other hosts must be
// listed explicitly.
type ReturnURLPolicy struct {
	allowedHosts map[string]struct{}
}

// NewReturnURLPolicy creates a policy that additionally allows the given hosts
func NewReturnURLPolicy(allowedHosts ...string) *ReturnURLPolicy {
	p := &ReturnURLPolicy{allowedHosts: make(map[string]struct{}, len(allowedHosts))}
	for _, h := range allowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			p.allowedHosts[h] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether returnURL is a safe redirect target for r
func (p *ReturnURLPolicy) Allowed(r *http.Request, returnURL string) bool {
	if returnURL == "" {
		return false
	}

	// Browsers strip tabs and newlines and treat a backslash as "/", so either can
	// turn a path into a protocol-relative URL
	if strings.ContainsFunc(returnURL, func(c rune) bool {
		return c < 0x20 || c == 0x7f || c == '\\'
	}) {
		return false
	}

	u, err := url.Parse(returnURL)
	if err != nil {
		return false
	}

	if strings.HasPrefix(returnURL, "/") {
		return u.Scheme == "" && u.Host == "" && !strings.HasPrefix(returnURL, "//")
	}

	if u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Host)
	if host == strings.ToLower(r.Host) {
		return true
	}

	if _, ok := p.allowedHosts[host]; ok {
		return true
	}
	_, ok := p.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}
