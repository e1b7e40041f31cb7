package sso

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnURLPolicy_Allowed(t *testing.T) {
	policy := NewReturnURLPolicy("docs.example.com", " Partner.Example.org:8443 ", "")

	tests := []struct {
		name      string
		returnURL string
		want      bool
	}{
		{"empty", "", false},
		{"relative path", "/dashboard", true},
		{"relative path with query", "/dashboard?tab=1#top", true},
		{"root", "/", true},
		{"protocol relative", "//evil.example.net/", false},
		{"backslash trick", "/\\evil.example.net/", false},
		{"backslash later in path", "/a\\..\\\\evil.example.net/", false},
		{"tab before slash", "/\t/evil.example.net", false},
		{"newline before slash", "/\n/evil.example.net", false},
		{"carriage return", "/\r/evil.example.net", false},
		{"nul byte", "/home\x00", false},
		{"delete char", "/\x7f/evil.example.net", false},
		{"tab in absolute url", "https://app.example.com/\treports", false},
		{"encoded slash stays a path", "/%2F/evil.example.net", true},
		{"same host", "https://app.example.com/reports", true},
		{"same host different case", "https://APP.example.com/reports", true},
		{"same host different port", "https://app.example.com:8443/reports", false},
		{"allow-listed host", "https://docs.example.com/start", true},
		{"allow-listed host any port", "https://docs.example.com:444/start", true},
		{"allow-listed host with port", "https://partner.example.org:8443/x", true},
		{"allow-listed host wrong port", "https://partner.example.org:9443/x", false},
		{"foreign host", "https://evil.example.net/phish", false},
		{"subdomain of allowed host", "https://x.docs.example.com/", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"ftp scheme", "ftp://docs.example.com/file", false},
		{"bare word", "dashboard", false},
		{"unparseable", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "https://app.example.com/login", nil)
			assert.Equal(t, tt.want, policy.Allowed(r, tt.returnURL))
		})
	}
}

func TestReturnURLPolicy_Empty(t *testing.T) {
	policy := NewReturnURLPolicy()
	r := httptest.NewRequest(http.MethodGet, "http://localhost:8080/login", nil)

	assert.True(t, policy.Allowed(r, "http://localhost:8080/home"))
	assert.False(t, policy.Allowed(r, "http://localhost:9090/home"))
	assert.False(t, policy.Allowed(r, "https://example.com/"))
}
