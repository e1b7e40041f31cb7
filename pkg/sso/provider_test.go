package sso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPresetConfig_AzureAD(t *testing.T) {
	config, err := GetPresetConfig(ProviderAzureAD)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "azuread", config.Name)
	assert.Contains(t, config.Scopes, "openid")
	assert.Equal(t, "oid", config.AttributeMapping.UserID)
	assert.Equal(t, "email", config.AttributeMapping.Email)
	assert.Equal(t, "groups", config.AttributeMapping.Groups)
}

func TestGetPresetConfig_Okta(t *testing.T) {
	config, err := GetPresetConfig(ProviderOkta)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "okta", config.Name)
	assert.Contains(t, config.Scopes, "openid")
	assert.Contains(t, config.Scopes, "groups")
	assert.Equal(t, "sub", config.AttributeMapping.UserID)
}

func TestGetPresetConfig_Google(t *testing.T) {
	config, err := GetPresetConfig(ProviderGoogle)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "https://accounts.google.com", config.IssuerURL)
	assert.Contains(t, config.Scopes, "openid")
	assert.Contains(t, config.Scopes, "email")
	assert.Equal(t, "email", config.AttributeMapping.Username)
	assert.Empty(t, config.AttributeMapping.Groups)
}

func TestGetPresetConfig_GenericOIDC(t *testing.T) {
	config, err := GetPresetConfig(ProviderGenericOIDC)
	require.NoError(t, err)

	assert.Equal(t, DefaultAttributeMap(), config.AttributeMapping)
	assert.Empty(t, config.IssuerURL)
}

func TestGetPresetConfig_Invalid(t *testing.T) {
	config, err := GetPresetConfig(ProviderName("invalid"))
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "no preset configuration")
}

func TestApplyPreset(t *testing.T) {
	t.Run("fills unset fields", func(t *testing.T) {
		config := &OIDCConfig{ClientID: "client", ClientSecret: "secret"}
		require.NoError(t, ApplyPreset(config, ProviderGoogle))

		assert.Equal(t, "google", config.Name)
		assert.Equal(t, "https://accounts.google.com", config.IssuerURL)
		assert.Equal(t, []string{"openid", "profile", "email"}, config.Scopes)
		assert.Equal(t, "email", config.AttributeMapping.Username)
		assert.NoError(t, config.Validate())
	})

	t.Run("keeps explicit fields", func(t *testing.T) {
		config := &OIDCConfig{
			Name:             "corp",
			IssuerURL:        "https://login.corp.example.com",
			Scopes:           []string{"openid"},
			AttributeMapping: AttributeMap{UserID: "employee_id"},
		}
		require.NoError(t, ApplyPreset(config, ProviderOkta))

		assert.Equal(t, "corp", config.Name)
		assert.Equal(t, "https://login.corp.example.com", config.IssuerURL)
		assert.Equal(t, []string{"openid"}, config.Scopes)
		assert.Equal(t, "employee_id", config.AttributeMapping.UserID)
	})

	t.Run("unknown preset", func(t *testing.T) {
		assert.Error(t, ApplyPreset(&OIDCConfig{}, ProviderName("saml")))
	})
}
