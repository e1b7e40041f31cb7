package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/ssoclient/pkg/observability"
	"gopkg.in/yaml.v3"
)

// Session store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// SSO provider configuration
	SSO SSOConfig `yaml:"sso"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// LoginPath is where the login flow handler is mounted
	LoginPath string `yaml:"login_path"`

	// Per-client rate limit on the login path; 0 requests disables it
	LoginRateLimit  int           `yaml:"login_rate_limit"`
	LoginRateWindow time.Duration `yaml:"login_rate_window"`
	LoginRateBurst  int           `yaml:"login_rate_burst"`
}

// SSOConfig holds identity provider settings
type SSOConfig struct {
	Preset                string   `yaml:"preset"` // azuread, okta, google, generic_oidc
	IssuerURL             string   `yaml:"issuer_url"`
	ClientID              string   `yaml:"client_id"`
	ClientSecret          string   `yaml:"client_secret"`
	Scopes                []string `yaml:"scopes"` // empty uses the preset's scopes
	AuthorizationEndpoint string   `yaml:"authorization_endpoint"`
	SkipIssuerCheck       bool     `yaml:"skip_issuer_check"`

	// AllowedReturnHosts lists external hosts a return_url may point to
	AllowedReturnHosts []string `yaml:"allowed_return_hosts"`
}

// SessionConfig holds session cookie and store settings
type SessionConfig struct {
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
	TTL          time.Duration `yaml:"ttl"`

	Store         string `yaml:"store"` // memory, redis or postgres
	MemoryMaxSize int    `yaml:"memory_max_size"`

	RedisURL        string `yaml:"redis_url"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size"`

	DatabaseURL     string `yaml:"database_url"`
	DatabaseMaxConn int    `yaml:"database_max_conn"`
	PurgeSchedule   string `yaml:"purge_schedule"` // cron spec for removing expired sessions
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			LoginPath:       "/login",
			LoginRateLimit:  30,
			LoginRateWindow: time.Minute,
			LoginRateBurst:  10,
		},
		SSO: SSOConfig{
			Preset: "generic_oidc",
		},
		Session: SessionConfig{
			CookieName:    "ssoclient_session",
			CookieSecure:  true,
			TTL:           8 * time.Hour,
			Store:         StoreMemory,
			MemoryMaxSize: 10000,
			RedisURL:      "redis://localhost:6379/0",
			RedisDB:       -1,

			DatabaseURL:     "postgres://localhost/ssoclient?sslmode=disable",
			DatabaseMaxConn: 10,
			PurgeSchedule:   "@every 10m",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "ssoclient",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1.0,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file named by
// SSOCLIENT_CONFIG_FILE, then applies environment variable overrides
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv("SSOCLIENT_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	loadServerConfig(&cfg.Server)
	loadSSOConfig(&cfg.SSO)
	loadSessionConfig(&cfg.Session)
	loadObservabilityConfig(&cfg.Observability)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML config file over cfg
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(cfg *ServerConfig) {
	cfg.Host = getEnv("SSOCLIENT_HOST", cfg.Host)
	cfg.Port = getEnv("SSOCLIENT_PORT", cfg.Port)
	cfg.ReadTimeout = getEnvDuration("SSOCLIENT_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvDuration("SSOCLIENT_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvDuration("SSOCLIENT_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.ShutdownTimeout = getEnvDuration("SSOCLIENT_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LoginPath = getEnv("SSOCLIENT_LOGIN_PATH", cfg.LoginPath)
	cfg.LoginRateLimit = getEnvInt("SSOCLIENT_LOGIN_RATE_LIMIT", cfg.LoginRateLimit)
	cfg.LoginRateWindow = getEnvDuration("SSOCLIENT_LOGIN_RATE_WINDOW", cfg.LoginRateWindow)
	cfg.LoginRateBurst = getEnvInt("SSOCLIENT_LOGIN_RATE_BURST", cfg.LoginRateBurst)
}

// loadSSOConfig loads identity provider configuration from environment
func loadSSOConfig(cfg *SSOConfig) {
	cfg.Preset = getEnv("SSOCLIENT_SSO_PRESET", cfg.Preset)
	cfg.IssuerURL = getEnv("SSOCLIENT_SSO_ISSUER_URL", cfg.IssuerURL)
	cfg.ClientID = getEnv("SSOCLIENT_SSO_CLIENT_ID", cfg.ClientID)
	cfg.ClientSecret = getEnv("SSOCLIENT_SSO_CLIENT_SECRET", cfg.ClientSecret)
	cfg.Scopes = getEnvList("SSOCLIENT_SSO_SCOPES", cfg.Scopes)
	cfg.AuthorizationEndpoint = getEnv("SSOCLIENT_SSO_AUTHORIZATION_ENDPOINT", cfg.AuthorizationEndpoint)
	cfg.SkipIssuerCheck = getEnvBool("SSOCLIENT_SSO_SKIP_ISSUER_CHECK", cfg.SkipIssuerCheck)
	cfg.AllowedReturnHosts = getEnvList("SSOCLIENT_SSO_ALLOWED_RETURN_HOSTS", cfg.AllowedReturnHosts)
}

// loadSessionConfig loads session configuration from environment
func loadSessionConfig(cfg *SessionConfig) {
	cfg.CookieName = getEnv("SSOCLIENT_SESSION_COOKIE_NAME", cfg.CookieName)
	cfg.CookieSecure = getEnvBool("SSOCLIENT_SESSION_COOKIE_SECURE", cfg.CookieSecure)
	cfg.TTL = getEnvDuration("SSOCLIENT_SESSION_TTL", cfg.TTL)
	cfg.Store = strings.ToLower(getEnv("SSOCLIENT_SESSION_STORE", cfg.Store))
	cfg.MemoryMaxSize = getEnvInt("SSOCLIENT_SESSION_MEMORY_MAX_SIZE", cfg.MemoryMaxSize)

	cfg.RedisURL = getEnv("SSOCLIENT_REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("SSOCLIENT_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("SSOCLIENT_REDIS_DB", cfg.RedisDB)
	cfg.RedisMaxRetries = getEnvInt("SSOCLIENT_REDIS_MAX_RETRIES", cfg.RedisMaxRetries)
	cfg.RedisPoolSize = getEnvInt("SSOCLIENT_REDIS_POOL_SIZE", cfg.RedisPoolSize)

	cfg.DatabaseURL = getEnv("SSOCLIENT_DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabaseMaxConn = getEnvInt("SSOCLIENT_DATABASE_MAX_CONN", cfg.DatabaseMaxConn)
	cfg.PurgeSchedule = getEnv("SSOCLIENT_SESSION_PURGE_SCHEDULE", cfg.PurgeSchedule)
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig(cfg *ObservabilityConfig) {
	cfg.LogLevel = getEnv("SSOCLIENT_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsEnabled = getEnvBool("SSOCLIENT_METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.OTelEnabled = getEnvBool("SSOCLIENT_OTEL_ENABLED", cfg.OTelEnabled)
	cfg.OTelEndpoint = getEnv("SSOCLIENT_OTEL_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelServiceName = getEnv("SSOCLIENT_OTEL_SERVICE_NAME", cfg.OTelServiceName)
	cfg.OTelServiceVersion = getEnv("SSOCLIENT_OTEL_SERVICE_VERSION", cfg.OTelServiceVersion)
	cfg.OTelInsecure = getEnvBool("SSOCLIENT_OTEL_INSECURE", cfg.OTelInsecure)
	cfg.OTelSampleRatio = getEnvFloat("SSOCLIENT_OTEL_SAMPLE_RATIO", cfg.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !strings.HasPrefix(c.Server.LoginPath, "/") {
		return fmt.Errorf("login path must start with /")
	}
	if c.Server.LoginRateLimit < 0 || c.Server.LoginRateBurst < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	if c.Server.LoginRateLimit > 0 && c.Server.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate window must be positive")
	}

	// Validate SSO config
	if c.SSO.ClientID == "" {
		return fmt.Errorf("sso client_id is required")
	}
	if c.SSO.ClientSecret == "" {
		return fmt.Errorf("sso client_secret is required")
	}
	if c.SSO.IssuerURL == "" && c.SSO.Preset != "google" {
		return fmt.Errorf("sso issuer_url is required")
	}

	// Validate session config
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	switch c.Session.Store {
	case StoreMemory:
		if c.Session.MemoryMaxSize <= 0 {
			return fmt.Errorf("memory store size must be positive")
		}
	case StoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session store")
		}
	case StorePostgres:
		if c.Session.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres session store")
		}
		if c.Session.DatabaseMaxConn <= 0 {
			return fmt.Errorf("database max connections must be positive")
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory, redis or postgres)", c.Session.Store)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Level returns the parsed log level
func (c *ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(c.LogLevel)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
