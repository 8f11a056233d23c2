package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage driver names accepted by StorageConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds all configuration for launchgate-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, session keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8620"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// CookieDomain is the domain for the session cookie (optional).
	// If empty, it will be auto-derived from BaseURL.
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Storage backend selection
	Storage StorageConfig `yaml:"storage"`

	// Database configuration (PostgreSQL, used when storage.driver is postgres)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (used when storage.driver is redis)
	Redis RedisConfig `yaml:"redis"`

	// Questionnaire template configuration
	Templates TemplatesConfig `yaml:"templates"`
}

// AuthConfig holds session and identity configuration.
type AuthConfig struct {
	// SessionSecret signs session cookies and bearer tokens. Any passphrase
	// works; it is SHA-256 hashed to derive the signing key. Must be
	// consistent across restarts and load-balanced replicas.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// SessionTTLMinutes bounds how long a session stays valid.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" env:"AUTH_SESSION_TTL_MINUTES" env-default:"720"`

	// EnableVerification controls whether sessions are validated.
	// Set to false for local development without an identity provider;
	// requests then run as the configured dev user.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// DevUserEmail and DevUserRole describe the identity injected when
	// verification is disabled.
	DevUserEmail string `yaml:"dev_user_email" env:"AUTH_DEV_USER_EMAIL" env-default:"dev.manager@launchgate.local"`
	DevUserName  string `yaml:"dev_user_name" env:"AUTH_DEV_USER_NAME" env-default:"Dev Manager"`
	DevUserRole  string `yaml:"dev_user_role" env:"AUTH_DEV_USER_ROLE" env-default:"PDM"`
}

// StorageConfig selects the persistence backend for partner records,
// templates and submissions.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"launchgate"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"launchgate_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// TemplatesConfig holds questionnaire template behavior knobs.
type TemplatesConfig struct {
	// CacheTTLMinutes bounds staleness of the in-process template cache.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" env:"TEMPLATES_CACHE_TTL_MINUTES" env-default:"5"`

	// SeedPath points at a YAML file of gate questionnaire templates to
	// install on first boot. Empty disables seeding; a missing file is
	// skipped silently so production images need not ship seeds.
	SeedPath string `yaml:"seed_path" env:"TEMPLATES_SEED_PATH" env-default:"seed/templates.yaml"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD,
// REDIS_PASSWORD, SESSION_SECRET) must come from environment variables
// (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if err := cfg.validateStorage(); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	if err := cfg.validateAuth(); err != nil {
		return nil, fmt.Errorf("invalid auth configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// validateStorage ensures the configured driver is one the server knows
// how to construct.
func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverRedis, DriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q (must be %s, %s or %s)",
			c.Storage.Driver, DriverPostgres, DriverRedis, DriverMemory)
	}
}

// validateAuth ensures a signing secret is present whenever sessions are
// actually verified. The dev bypass runs without one.
func (c *Config) validateAuth() error {
	if c.Auth.EnableVerification && c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set when auth.enable_verification is true")
	}
	if c.Auth.SessionTTLMinutes <= 0 {
		return fmt.Errorf("auth.session_ttl_minutes must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the host:port address for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port)
}
