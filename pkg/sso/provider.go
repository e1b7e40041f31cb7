package sso

import (
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DefaultAttributeMap maps the standard OpenID Connect claims
func DefaultAttributeMap() AttributeMap {
	return AttributeMap{
		UserID:   "sub",
		Username: "preferred_username",
		Email:    "email",
		FullName: "name",
		Groups:   "groups",
	}
}

// GetPresetConfig returns preset configuration for well-known providers
func GetPresetConfig(providerName ProviderName) (*OIDCConfig, error) {
	switch providerName {
	case ProviderAzureAD:
		return &OIDCConfig{
			Name:   string(ProviderAzureAD),
			Scopes: []string{oidc.ScopeOpenID, "profile", "email"},
			AttributeMapping: AttributeMap{
				UserID:   "oid",
				Username: "preferred_username",
				Email:    "email",
				FullName: "name",
				Groups:   "groups",
			},
		}, nil

	case ProviderOkta:
		return &OIDCConfig{
			Name:   string(ProviderOkta),
			Scopes: []string{oidc.ScopeOpenID, "profile", "email", "groups"},
			AttributeMapping: AttributeMap{
				UserID:   "sub",
				Username: "preferred_username",
				Email:    "email",
				FullName: "name",
				Groups:   "groups",
			},
		}, nil

	case ProviderGoogle:
		return &OIDCConfig{
			Name:      string(ProviderGoogle),
			IssuerURL: "https://accounts.google.com",
			Scopes:    []string{oidc.ScopeOpenID, "profile", "email"},
			AttributeMapping: AttributeMap{
				UserID:   "sub",
				Username: "email",
				Email:    "email",
				FullName: "name",
			},
		}, nil

	case ProviderGenericOIDC:
		return &OIDCConfig{
			Name:             string(ProviderGenericOIDC),
			Scopes:           []string{oidc.ScopeOpenID, "profile", "email"},
			AttributeMapping: DefaultAttributeMap(),
		}, nil

	default:
		return nil, fmt.Errorf("no preset configuration for provider: %s", providerName)
	}
}

// ApplyPreset fills unset fields of config from the named preset
func ApplyPreset(config *OIDCConfig, providerName ProviderName) error {
	preset, err := GetPresetConfig(providerName)
	if err != nil {
		return err
	}

	if config.Name == "" {
		config.Name = preset.Name
	}
	if config.IssuerURL == "" {
		config.IssuerURL = preset.IssuerURL
	}
	if len(config.Scopes) == 0 {
		config.Scopes = preset.Scopes
	}
	if config.AttributeMapping == (AttributeMap{}) {
		config.AttributeMapping = preset.AttributeMapping
	}

	return nil
}
