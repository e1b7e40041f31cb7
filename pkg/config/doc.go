// Package config provides application configuration management from an
// optional YAML file and environment variables.
//
// # Overview
//
// Defaults are applied first, then the YAML file named by SSOCLIENT_CONFIG_FILE,
// then environment variables. The result is validated before use.
//
// # Configuration Structure
//
// Server settings:
//
//	SSOCLIENT_HOST="0.0.0.0"
//	SSOCLIENT_PORT="8080"
//	SSOCLIENT_LOGIN_PATH="/login"
//	SSOCLIENT_READ_TIMEOUT="15s"
//	SSOCLIENT_SHUTDOWN_TIMEOUT="30s"
//
// Identity provider settings:
//
//	SSOCLIENT_SSO_PRESET="okta"  # azuread, okta, google, generic_oidc
//	SSOCLIENT_SSO_ISSUER_URL="https://example.okta.com"
//	SSOCLIENT_SSO_CLIENT_ID="..."
//	SSOCLIENT_SSO_CLIENT_SECRET="..."
//	SSOCLIENT_SSO_SCOPES="openid,profile,email"
//	SSOCLIENT_SSO_ALLOWED_RETURN_HOSTS="docs.example.com"
//
// Session settings:
//
//	SSOCLIENT_SESSION_STORE="redis"  # memory, redis
//	SSOCLIENT_SESSION_TTL="8h"
//	SSOCLIENT_REDIS_URL="redis://localhost:6379/0"
//
// Observability settings:
//
//	SSOCLIENT_LOG_LEVEL="info"
//	SSOCLIENT_METRICS_ENABLED="true"
//	SSOCLIENT_OTEL_ENABLED="true"
//	SSOCLIENT_OTEL_ENDPOINT="localhost:4317"
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
