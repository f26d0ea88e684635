// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN for the session ledger and credential store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the address of the ephemeral session cache (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis AUTH password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// SessionTTLHours is the session lifetime in hours applied to every new
	// session record and cache entry. Non-positive values fall back to 24.
	SessionTTLHours int `mapstructure:"SESSION_TTL_HOURS"`
	// SessionTokenSecret signs the wire wrapper around session keys (HS256).
	// Required when the gRPC server is started.
	SessionTokenSecret string `mapstructure:"SESSION_TOKEN_SECRET"`
	// BootstrapToken gates admin bootstrap and password-reset flows. When empty
	// those flows always fail closed.
	BootstrapToken string `mapstructure:"BOOTSTRAP_TOKEN"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs. Empty
	// disables export (no-op providers).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses.
	// Empty disables telemetry emission.
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for session telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// ReaperInterval is how often cmd/reaper sweeps expired active sessions (e.g. "10m").
	ReaperInterval string `mapstructure:"REAPER_INTERVAL"`
}

// DefaultSessionTTL is used when SESSION_TTL_HOURS is unset or invalid.
const DefaultSessionTTL = 24 * time.Hour

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("SESSION_TOKEN_SECRET", "")
	v.SetDefault("BOOTSTRAP_TOKEN", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "session-authority-telemetry")
	v.SetDefault("REAPER_INTERVAL", "10m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// SessionTTL returns the configured session lifetime. Falls back to
// DefaultSessionTTL when SESSION_TTL_HOURS is unset or non-positive.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return DefaultSessionTTL
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ReaperSweepInterval parses ReaperInterval as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) ReaperSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.ReaperInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// TelemetryBrokerList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryBrokerList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
