package sso

import "time"

// Request parameters exchanged with the identity provider
const (
	ParamIDToken      = "id_token"
	ParamCode         = "code"
	ParamState        = "state"
	ParamReturnURL    = "return_url"
	ParamResponseType = "response_type"
	ParamClientID     = "client_id"
	ParamRedirectURI  = "redirect_uri"

	// ResponseTypeHybrid requests both an authorization code and an id token
	ResponseTypeHybrid = "code id_token"
)

// ProviderName represents a well-known identity provider
type ProviderName string

const (
	ProviderAzureAD     ProviderName = "azuread"
	ProviderOkta        ProviderName = "okta"
	ProviderGoogle      ProviderName = "google"
	ProviderGenericOIDC ProviderName = "generic_oidc"
)

// ProviderConfig is the static client configuration the login flow needs.
// It is immutable once the client is constructed.
type ProviderConfig struct {
	Name                     string `json:"name"`
	AuthorizationEndpointURL string `json:"authorization_endpoint_url"`
	ClientID                 string `json:"client_id"`
}

// OIDCConfig holds OpenID Connect configuration
type OIDCConfig struct {
	Name                  string       `json:"name" yaml:"name"`
	ClientID              string       `json:"client_id" yaml:"client_id"`
	ClientSecret          string       `json:"-" yaml:"client_secret"` // Never expose secret in JSON
	IssuerURL             string       `json:"issuer_url" yaml:"issuer_url"` // Discovery endpoint
	AuthorizationEndpoint string       `json:"authorization_endpoint,omitempty" yaml:"authorization_endpoint"` // Overrides discovery
	RedirectURL           string       `json:"redirect_url,omitempty" yaml:"redirect_url"` // Sent with the code exchange when set
	Scopes                []string     `json:"scopes" yaml:"scopes"`
	SkipIssuerCheck       bool         `json:"skip_issuer_check,omitempty" yaml:"skip_issuer_check"`
	AttributeMapping      AttributeMap `json:"attribute_mapping" yaml:"attribute_mapping"`
}

// AttributeMap defines how id token claims map to user fields
type AttributeMap struct {
	UserID   string `json:"user_id" yaml:"user_id"` // Unique user identifier
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
	FullName string `json:"full_name,omitempty" yaml:"full_name"`
	Groups   string `json:"groups,omitempty" yaml:"groups"` // Claim containing group memberships
}

// Authentication is the verified identity asserted by an id token
type Authentication struct {
	Subject   string                 `json:"subject"`
	Issuer    string                 `json:"issuer"`
	Audience  []string               `json:"audience,omitempty"`
	ExpiresAt time.Time              `json:"expires_at"`
	IssuedAt  time.Time              `json:"issued_at"`
	UserID    string                 `json:"user_id"`
	Username  string                 `json:"username"`
	Email     string                 `json:"email,omitempty"`
	FullName  string                 `json:"full_name,omitempty"`
	Groups    []string               `json:"groups,omitempty"`
	Claims    map[string]interface{} `json:"claims,omitempty"`
}

// AccessToken is the credential obtained by exchanging an authorization code
type AccessToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"-"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"-"` // Present when the token endpoint returns one
}

// Expired reports whether the token has a known expiry in the past
func (t *AccessToken) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && now.After(t.Expiry)
}

// Redirect instructs the caller to issue an HTTP redirect
type Redirect struct {
	URL string
}
