package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/ssoclient/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true string", "true", false, true},
		{"TRUE uppercase", "TRUE", false, true},
		{"1 value", "1", false, true},
		{"false string", "false", true, false},
		{"other value", "yes", true, false},
		{"unset uses default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{"valid integer", "42", 10, 42},
		{"negative integer", "-1", 10, -1},
		{"invalid integer uses default", "abc", 10, 10},
		{"unset uses default", "", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_INT", tt.envValue)
			}

			if got := getEnvInt("TEST_INT", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"seconds", "30s", time.Second, 30 * time.Second},
		{"hours", "2h", time.Second, 2 * time.Hour},
		{"invalid uses default", "soon", time.Second, time.Second},
		{"unset uses default", "", time.Minute, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_DURATION", tt.envValue)
			}

			if got := getEnvDuration("TEST_DURATION", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue float64
		want         float64
	}{
		{"fraction", "0.25", 1, 0.25},
		{"invalid uses default", "half", 1, 1},
		{"unset uses default", "", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			}

			if got := getEnvFloat("TEST_FLOAT", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvList tests the getEnvList helper function
func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue []string
		want         []string
	}{
		{"comma separated", "openid,email", nil, []string{"openid", "email"}},
		{"trims spaces and empties", " openid , ,groups ", nil, []string{"openid", "groups"}},
		{"unset uses default", "", []string{"openid"}, []string{"openid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_LIST", tt.envValue)
			}

			if got := getEnvList("TEST_LIST", tt.defaultValue); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("getEnvList() = %v, want %v", got, tt.want)
			}
		})
	}
}

// setRequiredEnv sets the minimum environment for a valid configuration
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SSOCLIENT_SSO_ISSUER_URL", "https://idp.example.com")
	t.Setenv("SSOCLIENT_SSO_CLIENT_ID", "client-123")
	t.Setenv("SSOCLIENT_SSO_CLIENT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %v, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Server.LoginPath != "/login" {
		t.Errorf("Server.LoginPath = %v, want /login", cfg.Server.LoginPath)
	}
	if cfg.Session.Store != StoreMemory {
		t.Errorf("Session.Store = %v, want %v", cfg.Session.Store, StoreMemory)
	}
	if cfg.Session.TTL != 8*time.Hour {
		t.Errorf("Session.TTL = %v, want 8h", cfg.Session.TTL)
	}
	if !cfg.Session.CookieSecure {
		t.Error("Session.CookieSecure should default to true")
	}
	if len(cfg.SSO.Scopes) != 0 {
		t.Errorf("SSO.Scopes = %v, want preset default", cfg.SSO.Scopes)
	}
	if cfg.SSO.Preset != "generic_oidc" {
		t.Errorf("SSO.Preset = %v, want generic_oidc", cfg.SSO.Preset)
	}
	if cfg.Observability.Level() != observability.InfoLevel {
		t.Errorf("Observability.Level() = %v, want info", cfg.Observability.Level())
	}
	if cfg.Observability.OTelEnabled {
		t.Error("OTel should be disabled by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SSOCLIENT_PORT", "9000")
	t.Setenv("SSOCLIENT_LOGIN_PATH", "/sso/login")
	t.Setenv("SSOCLIENT_SSO_PRESET", "okta")
	t.Setenv("SSOCLIENT_SSO_SCOPES", "openid,groups")
	t.Setenv("SSOCLIENT_SSO_ALLOWED_RETURN_HOSTS", "docs.example.com, app.example.com")
	t.Setenv("SSOCLIENT_SESSION_STORE", "REDIS")
	t.Setenv("SSOCLIENT_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SSOCLIENT_REDIS_DB", "3")
	t.Setenv("SSOCLIENT_SESSION_TTL", "30m")
	t.Setenv("SSOCLIENT_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %v, want 9000", cfg.Server.Port)
	}
	if cfg.Server.LoginPath != "/sso/login" {
		t.Errorf("Server.LoginPath = %v", cfg.Server.LoginPath)
	}
	if cfg.SSO.Preset != "okta" {
		t.Errorf("SSO.Preset = %v, want okta", cfg.SSO.Preset)
	}
	if !reflect.DeepEqual(cfg.SSO.Scopes, []string{"openid", "groups"}) {
		t.Errorf("SSO.Scopes = %v", cfg.SSO.Scopes)
	}
	if !reflect.DeepEqual(cfg.SSO.AllowedReturnHosts, []string{"docs.example.com", "app.example.com"}) {
		t.Errorf("SSO.AllowedReturnHosts = %v", cfg.SSO.AllowedReturnHosts)
	}
	if cfg.Session.Store != StoreRedis {
		t.Errorf("Session.Store = %v, want redis", cfg.Session.Store)
	}
	if cfg.Session.RedisDB != 3 {
		t.Errorf("Session.RedisDB = %v, want 3", cfg.Session.RedisDB)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
	if cfg.Observability.Level() != observability.DebugLevel {
		t.Errorf("Observability.Level() = %v, want debug", cfg.Observability.Level())
	}
}

func TestLoadConfig_PostgresStore(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SSOCLIENT_SESSION_STORE", "postgres")
	t.Setenv("SSOCLIENT_DATABASE_URL", "postgres://db/sessions?sslmode=require")
	t.Setenv("SSOCLIENT_DATABASE_MAX_CONN", "4")
	t.Setenv("SSOCLIENT_SESSION_PURGE_SCHEDULE", "*/5 * * * *")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Session.Store != StorePostgres {
		t.Errorf("Session.Store = %v, want postgres", cfg.Session.Store)
	}
	if cfg.Session.DatabaseURL != "postgres://db/sessions?sslmode=require" {
		t.Errorf("Session.DatabaseURL = %v", cfg.Session.DatabaseURL)
	}
	if cfg.Session.DatabaseMaxConn != 4 {
		t.Errorf("Session.DatabaseMaxConn = %v, want 4", cfg.Session.DatabaseMaxConn)
	}
	if cfg.Session.PurgeSchedule != "*/5 * * * *" {
		t.Errorf("Session.PurgeSchedule = %v", cfg.Session.PurgeSchedule)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ssoclient.yaml")
	content := `
server:
  port: "7070"
  read_timeout: 5s
sso:
  issuer_url: https://login.example.com
  client_id: from-file
  client_secret: file-secret
  scopes: [openid, email]
session:
  store: memory
  memory_max_size: 50
  ttl: 1h
observability:
  log_level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("SSOCLIENT_CONFIG_FILE", path)
	t.Setenv("SSOCLIENT_SSO_CLIENT_ID", "from-env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %v, want 7070", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	// Unset file fields keep their defaults
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 15s", cfg.Server.WriteTimeout)
	}
	if cfg.SSO.ClientID != "from-env" {
		t.Errorf("SSO.ClientID = %v, env should override file", cfg.SSO.ClientID)
	}
	if cfg.SSO.IssuerURL != "https://login.example.com" {
		t.Errorf("SSO.IssuerURL = %v", cfg.SSO.IssuerURL)
	}
	if cfg.Session.MemoryMaxSize != 50 {
		t.Errorf("Session.MemoryMaxSize = %v, want 50", cfg.Session.MemoryMaxSize)
	}
	if cfg.Observability.Level() != observability.WarnLevel {
		t.Errorf("Observability.Level() = %v, want warn", cfg.Observability.Level())
	}
}

func TestLoadConfig_FileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("SSOCLIENT_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("SSOCLIENT_CONFIG_FILE", path)

		_, err := LoadConfig()
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("expected parse error, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.SSO.IssuerURL = "https://idp.example.com"
		cfg.SSO.ClientID = "client-123"
		cfg.SSO.ClientSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "relative login path",
			mutate:  func(c *Config) { c.Server.LoginPath = "login" },
			wantErr: "login path must start with /",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Server.LoginRateLimit = -1 },
			wantErr: "login rate limit must not be negative",
		},
		{
			name:    "rate limit without window",
			mutate:  func(c *Config) { c.Server.LoginRateWindow = 0 },
			wantErr: "login rate window must be positive",
		},
		{
			name: "rate limit disabled without window",
			mutate: func(c *Config) {
				c.Server.LoginRateLimit = 0
				c.Server.LoginRateWindow = 0
			},
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.SSO.ClientID = "" },
			wantErr: "sso client_id is required",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.SSO.ClientSecret = "" },
			wantErr: "sso client_secret is required",
		},
		{
			name:    "missing issuer",
			mutate:  func(c *Config) { c.SSO.IssuerURL = "" },
			wantErr: "sso issuer_url is required",
		},
		{
			name: "google preset supplies issuer",
			mutate: func(c *Config) {
				c.SSO.IssuerURL = ""
				c.SSO.Preset = "google"
			},
		},
		{
			name:    "zero session TTL",
			mutate:  func(c *Config) { c.Session.TTL = 0 },
			wantErr: "session TTL must be positive",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Session.Store = "etcd" },
			wantErr: "invalid session store",
		},
		{
			name:    "memory store without size",
			mutate:  func(c *Config) { c.Session.MemoryMaxSize = 0 },
			wantErr: "memory store size must be positive",
		},
		{
			name: "redis store without URL",
			mutate: func(c *Config) {
				c.Session.Store = StoreRedis
				c.Session.RedisURL = ""
			},
			wantErr: "redis URL is required",
		},
		{
			name: "postgres store without URL",
			mutate: func(c *Config) {
				c.Session.Store = StorePostgres
				c.Session.DatabaseURL = ""
			},
			wantErr: "database URL is required",
		},
		{
			name: "postgres store without connections",
			mutate: func(c *Config) {
				c.Session.Store = StorePostgres
				c.Session.DatabaseMaxConn = 0
			},
			wantErr: "database max connections must be positive",
		},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint is required",
		},
		{
			name: "otel without service name",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = ""
			},
			wantErr: "OpenTelemetry service name is required",
		},
		{
			name: "otel sample ratio above one",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelSampleRatio = 1.5
			},
			wantErr: "sample ratio must be between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	t.Setenv("SSOCLIENT_SSO_ISSUER_URL", "https://idp.example.com")

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("LoadConfig() error = %v, want validation failure", err)
	}
}
