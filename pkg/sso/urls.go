package sso

import (
	"net/http"
	"net/url"
	"strings"
)

// AppendQueryString appends name=value to rawURL, URL-encoding both parts.
// The first parameter is joined with '?' and later ones with '&'; a trailing
// fragment is kept at the end of the result.
func AppendQueryString(rawURL, name, value string) string {
	base, fragment := rawURL, ""
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		base, fragment = rawURL[:i], rawURL[i:]
	}

	var b strings.Builder
	b.Grow(len(rawURL) + len(name) + len(value) + 2)
	b.WriteString(base)

	switch {
	case !strings.Contains(base, "?"):
		b.WriteByte('?')
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
	default:
		b.WriteByte('&')
	}

	b.WriteString(encodeQueryComponent(name))
	b.WriteByte('=')
	b.WriteString(encodeQueryComponent(value))
	b.WriteString(fragment)

	return b.String()
}

// encodeQueryComponent escapes s for use in a query string, encoding spaces as %20
func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ServerBaseURL returns scheme://host[:port] for the request, without any path.
// Default ports are omitted.
func ServerBaseURL(r *http.Request) string {
	scheme := requestScheme(r)

	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}

	return scheme + "://" + stripDefaultPort(scheme, host)
}

// RequestURL returns the canonical absolute URL of the request, with the
// original query string re-appended verbatim
func RequestURL(r *http.Request) string {
	current := ServerBaseURL(r) + r.URL.EscapedPath()
	if r.URL.RawQuery == "" {
		return current
	}
	return current + "?" + r.URL.RawQuery
}

// providerCallbackParams are added to redirect_uri by the provider and are
// not part of the URL the login started from
var providerCallbackParams = map[string]struct{}{
	ParamIDToken:    {},
	ParamCode:       {},
	ParamState:      {},
	"session_state": {},
}

// CallbackRedirectURI recovers the redirect_uri of the authorization request
// from a provider callback by dropping the parameters the provider appended.
// The remaining query is kept verbatim and in order.
func CallbackRedirectURI(r *http.Request) string {
	current := ServerBaseURL(r) + r.URL.EscapedPath()

	var kept []string
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if _, ok := providerCallbackParams[name]; ok {
			continue
		}
		kept = append(kept, pair)
	}

	if len(kept) == 0 {
		return current
	}
	return current + "?" + strings.Join(kept, "&")
}

func requestScheme(r *http.Request) string {
	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}
	if r.TLS != nil {
		return "https"
	}

	// Only the first hop is considered when proxies are chained
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		proto = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		if proto == "http" || proto == "https" {
			return proto
		}
	}

	return "http"
}

func stripDefaultPort(scheme, host string) string {
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	default:
		return host
	}
}
