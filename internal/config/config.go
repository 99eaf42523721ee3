// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sakif/identity-facade/internal/model"
)

// Identity backends selectable with IDENTITY_BACKEND.
const (
	BackendKeycloak = "keycloak"
	BackendMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// AppAddr is the address the HTTP server listens on (e.g. :8080).
	AppAddr string `mapstructure:"APP_ADDR"`
	// DatabaseURL is a postgres:// DSN, or otherwise a SQLite file path (":memory:" allowed).
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// IdentityBackend is "keycloak" (default) or "memory" for local development.
	IdentityBackend string `mapstructure:"IDENTITY_BACKEND"`
	// KeycloakBaseURL is the server root, e.g. http://localhost:8081.
	KeycloakBaseURL string `mapstructure:"KEYCLOAK_BASE_URL"`
	KeycloakRealm   string `mapstructure:"KEYCLOAK_REALM"`
	// KeycloakClientID is the confidential service client used for admin calls.
	KeycloakClientID string `mapstructure:"KEYCLOAK_CLIENT_ID"`
	// KeycloakClientSecret may be empty; every admin call then fails with an upstream error.
	KeycloakClientSecret string `mapstructure:"KEYCLOAK_CLIENT_SECRET"`
	// KeycloakTimeout bounds each outbound HTTP call (e.g. "10s").
	KeycloakTimeout string `mapstructure:"KEYCLOAK_TIMEOUT"`
	// KeycloakTokenCache reuses admin tokens until shortly before expiry.
	KeycloakTokenCache bool `mapstructure:"KEYCLOAK_TOKEN_CACHE"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// SMTPHost and SMTPPort address the outbound mail relay (MailHog in development).
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	// MailFrom is the sender address, e.g. "EHR <noreply@example.com>".
	MailFrom string `mapstructure:"MAIL_FROM"`

	// OTLPEndpoint enables tracing when set (e.g. http://localhost:4318).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `mapstructure:"SERVICE_NAME"`
}

// newViper reads .env (if present) and layers the environment over it.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	v.SetDefault("DATABASE_URL", "data/identity.db")
	return v
}

// LoadDatabaseURL reads only DATABASE_URL, for tools such as cmd/migrate that
// do not need the identity backend configured.
func LoadDatabaseURL() (string, error) {
	dsn := newViper().GetString("DATABASE_URL")
	if dsn == "" {
		return "", errors.New("config: DATABASE_URL must be set")
	}
	return dsn, nil
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("IDENTITY_BACKEND", BackendKeycloak)
	v.SetDefault("KEYCLOAK_BASE_URL", "")
	v.SetDefault("KEYCLOAK_REALM", "")
	v.SetDefault("KEYCLOAK_CLIENT_ID", "")
	v.SetDefault("KEYCLOAK_CLIENT_SECRET", "")
	v.SetDefault("KEYCLOAK_TIMEOUT", "10s")
	v.SetDefault("KEYCLOAK_TOKEN_CACHE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 1025)
	v.SetDefault("MAIL_FROM", "noreply@example.com")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("SERVICE_NAME", "identity-facade")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	if c.AppAddr == "" {
		return errors.New("config: APP_ADDR must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}

	switch c.IdentityBackend {
	case BackendKeycloak:
		var missing []string
		if c.KeycloakBaseURL == "" {
			missing = append(missing, "KEYCLOAK_BASE_URL")
		}
		if c.KeycloakRealm == "" {
			missing = append(missing, "KEYCLOAK_REALM")
		}
		if c.KeycloakClientID == "" {
			missing = append(missing, "KEYCLOAK_CLIENT_ID")
		}
		if len(missing) > 0 {
			return fmt.Errorf("config: %s must be set", strings.Join(missing, ", "))
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: IDENTITY_BACKEND must be %q or %q, got %q", BackendKeycloak, BackendMemory, c.IdentityBackend)
	}

	if d, err := time.ParseDuration(c.KeycloakTimeout); err != nil || d <= 0 {
		return fmt.Errorf("config: KEYCLOAK_TIMEOUT must be a positive duration, got %q", c.KeycloakTimeout)
	}
	if c.SMTPHost == "" {
		return errors.New("config: SMTP_HOST must be set")
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("config: SMTP_PORT must be between 1 and 65535, got %d", c.SMTPPort)
	}
	if _, err := mail.ParseAddress(c.MailFrom); err != nil {
		return fmt.Errorf("config: MAIL_FROM must be an email address, got %q", c.MailFrom)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Timeout parses KeycloakTimeout. Returns 10s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.KeycloakTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ClientSecret wraps the configured secret, or returns nil when it is empty.
func (c *Config) ClientSecret() *model.Secret {
	if c.KeycloakClientSecret == "" {
		return nil
	}
	s := model.NewSecret(c.KeycloakClientSecret)
	return &s
}

// UsesPostgres reports whether DatabaseURL is a Postgres DSN.
func (c *Config) UsesPostgres() bool {
	return IsPostgresDSN(c.DatabaseURL)
}

// IsPostgresDSN reports whether dsn has a postgres:// or postgresql:// scheme.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LogValue keeps the client secret out of logs when the config is logged at startup.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_addr", c.AppAddr),
		slog.Bool("postgres", c.UsesPostgres()),
		slog.String("identity_backend", c.IdentityBackend),
		slog.String("keycloak_base_url", c.KeycloakBaseURL),
		slog.String("keycloak_realm", c.KeycloakRealm),
		slog.String("keycloak_client_id", c.KeycloakClientID),
		slog.Bool("keycloak_client_secret_set", c.KeycloakClientSecret != ""),
		slog.Bool("keycloak_token_cache", c.KeycloakTokenCache),
		slog.String("smtp_host", c.SMTPHost),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("log_level", c.LogLevel),
		slog.String("log_format", c.LogFormat),
		slog.Bool("tracing", c.OTLPEndpoint != ""),
	)
}
