package sso

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/platinummonkey/ssoclient/pkg/contextkeys"
	"golang.org/x/oauth2"
)

// OIDCClient implements Client against an OpenID Connect provider
type OIDCClient struct {
	config       *OIDCConfig
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	authzURL     string
}

// NewOIDCClient discovers the provider and creates a client for it
func NewOIDCClient(ctx context.Context, config *OIDCConfig) (*OIDCClient, error) {
	if config == nil {
		return nil, fmt.Errorf("OIDC config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Discover OIDC provider
	provider, err := oidc.NewProvider(ctx, config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:        config.ClientID,
		SkipIssuerCheck: config.SkipIssuerCheck,
	})

	endpoint := provider.Endpoint()
	if config.AuthorizationEndpoint != "" {
		endpoint.AuthURL = config.AuthorizationEndpoint
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
	}

	// Scopes ride on the endpoint so the login flow only has to append its own parameters
	authzURL := endpoint.AuthURL
	if len(config.Scopes) > 0 {
		authzURL = AppendQueryString(authzURL, "scope", strings.Join(config.Scopes, " "))
	}

	return &OIDCClient{
		config:       config,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
		authzURL:     authzURL,
	}, nil
}

// Config returns the static provider configuration
func (c *OIDCClient) Config() ProviderConfig {
	return ProviderConfig{
		Name:                     c.config.Name,
		AuthorizationEndpointURL: c.authzURL,
		ClientID:                 c.config.ClientID,
	}
}

// VerifyIDToken verifies signature, issuer, audience and expiry of the token
func (c *OIDCClient) VerifyIDToken(ctx context.Context, rawIDToken string) (*Authentication, error) {
	if rawIDToken == "" {
		return nil, fmt.Errorf("missing id token")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	mapping := c.config.AttributeMapping
	authn := &Authentication{
		Subject:   idToken.Subject,
		Issuer:    idToken.Issuer,
		Audience:  idToken.Audience,
		ExpiresAt: idToken.Expiry,
		IssuedAt:  idToken.IssuedAt,
		UserID:    getStringValue(claims, mapping.UserID),
		Username:  getStringValue(claims, mapping.Username),
		Email:     getStringValue(claims, mapping.Email),
		FullName:  getStringValue(claims, mapping.FullName),
		Groups:    getArrayValue(claims, mapping.Groups),
		Claims:    claims,
	}

	// Use subject claim as fallback for user ID
	if authn.UserID == "" {
		authn.UserID = idToken.Subject
	}
	// Use email as fallback for username
	if authn.Username == "" {
		authn.Username = authn.Email
	}

	if authn.UserID == "" {
		return nil, fmt.Errorf("missing user ID in OIDC token")
	}

	return authn, nil
}

// ExchangeCode trades an authorization code at the token endpoint
func (c *OIDCClient) ExchangeCode(ctx context.Context, code string) (*AccessToken, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	var opts []oauth2.AuthCodeOption
	if redirectURI := contextkeys.GetRedirectURI(ctx); redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}

	token, err := c.oauth2Config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	accessToken := &AccessToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.Type(),
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		accessToken.IDToken = rawIDToken
	}

	return accessToken, nil
}

// UserInfo fetches claims from the provider's userinfo endpoint
func (c *OIDCClient) UserInfo(ctx context.Context, token *AccessToken) (map[string]interface{}, error) {
	userInfo, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	var claims map[string]interface{}
	if err := userInfo.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}

	return claims, nil
}

// Validate validates the OIDC configuration
func (c *OIDCConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("scopes are required")
	}

	hasOpenID := false
	for _, scope := range c.Scopes {
		if scope == oidc.ScopeOpenID {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required for OIDC")
	}

	return nil
}

func getStringValue(data map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getArrayValue(data map[string]interface{}, key string) []string {
	if key == "" {
		return nil
	}
	val, ok := data[key]
	if !ok {
		return nil
	}

	switch v := val.(type) {
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		// Some providers send a single group as a plain string
		return []string{v}
	default:
		return nil
	}
}
