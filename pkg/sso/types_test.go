package sso

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOIDCConfig_SecretNotSerialized(t *testing.T) {
	config := &OIDCConfig{
		ClientID:     "test-client-id",
		ClientSecret: "super-secret",
		IssuerURL:    "https://login.microsoftonline.com/tenant-id/v2.0",
		Scopes:       []string{"openid", "profile", "email"},
	}

	data, err := json.Marshal(config)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), "test-client-id")
}

func TestAccessToken_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, false},
		{"past", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &AccessToken{AccessToken: "abc", Expiry: tt.expiry}
			assert.Equal(t, tt.want, token.Expired(now))
		})
	}
}
