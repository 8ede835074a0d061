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
	// DatabaseURL is the Postgres DSN; required by the binaries, optional for embedding.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionTokenSecret signs the HS256 session binding token handed to the auth flow.
	SessionTokenSecret string `mapstructure:"SESSION_TOKEN_SECRET"`
	// SessionTokenIssuer is the iss claim on session binding tokens (e.g. "sessionguard").
	SessionTokenIssuer string `mapstructure:"SESSION_TOKEN_ISSUER"`
	// SessionTTL is the lifetime of an ephemeral login session (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// RememberMeTTL is the lifetime of a persistent ("remember me") session (e.g. "720h").
	RememberMeTTL string `mapstructure:"REMEMBER_ME_TTL"`
	// SweepInterval is how often the sweeper scans for newly expired sessions (e.g. "5m").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// EventHistoryLimit is the default page size for security history queries (max 100).
	EventHistoryLimit int `mapstructure:"EVENT_HISTORY_LIMIT"`

	// Risk thresholds. The rule set is fixed; these tune where it escalates.
	// RiskHighLocations: distinct locations among active sessions at or above which risk is high.
	RiskHighLocations int `mapstructure:"RISK_HIGH_LOCATIONS"`
	// RiskMediumLocations: distinct locations at or above which risk is at least medium.
	RiskMediumLocations int `mapstructure:"RISK_MEDIUM_LOCATIONS"`
	// RiskMaxConcurrent: active sessions above which risk is at least medium.
	RiskMaxConcurrent int `mapstructure:"RISK_MAX_CONCURRENT"`
	// RiskFailureBurst: failure events within the recent window at or above which risk is at least medium.
	RiskFailureBurst int `mapstructure:"RISK_FAILURE_BURST"`
	// RiskRecentWindow is the lookback window for event-based risk signals (e.g. "24h").
	RiskRecentWindow string `mapstructure:"RISK_RECENT_WINDOW"`

	// RedisAddr enables the analytics summary cache when set (e.g. "localhost:6379").
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional password for RedisAddr.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// AnalyticsCacheTTL bounds how long a cached summary may live between invalidations.
	AnalyticsCacheTTL string `mapstructure:"ANALYTICS_CACHE_TTL"`

	// Ops channel (optional). When Kafka brokers are set, swallowed errors and security
	// events are also emitted to Kafka for the ops worker.
	// OpsKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	OpsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// OpsKafkaTopic is the Kafka topic for ops events (default sessionguard-ops).
	OpsKafkaTopic string `mapstructure:"OPS_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the ops worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the ops worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint enables OpenTelemetry providers when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_TOKEN_SECRET", "")
	v.SetDefault("SESSION_TOKEN_ISSUER", "sessionguard")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REMEMBER_ME_TTL", "720h") // 30d
	v.SetDefault("SWEEP_INTERVAL", "5m")
	v.SetDefault("EVENT_HISTORY_LIMIT", 20)
	v.SetDefault("RISK_HIGH_LOCATIONS", 3)
	v.SetDefault("RISK_MEDIUM_LOCATIONS", 2)
	v.SetDefault("RISK_MAX_CONCURRENT", 5)
	v.SetDefault("RISK_FAILURE_BURST", 3)
	v.SetDefault("RISK_RECENT_WINDOW", "24h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OPS_KAFKA_TOPIC", "sessionguard-ops")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "sessionguard-ops-worker")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.EventHistoryLimit <= 0 {
		cfg.EventHistoryLimit = 20
	}
	if cfg.EventHistoryLimit > 100 {
		return nil, errors.New("config: EVENT_HISTORY_LIMIT must be at most 100")
	}

	if cfg.RiskMediumLocations < 1 || cfg.RiskHighLocations < 1 || cfg.RiskMaxConcurrent < 1 || cfg.RiskFailureBurst < 1 {
		return nil, errors.New("config: risk thresholds must be at least 1")
	}
	if cfg.RiskHighLocations < cfg.RiskMediumLocations {
		return nil, errors.New("config: RISK_HIGH_LOCATIONS must be >= RISK_MEDIUM_LOCATIONS")
	}

	return &cfg, nil
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// RememberMeLifetime parses RememberMeTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RememberMeLifetime() time.Duration {
	d, err := time.ParseDuration(c.RememberMeTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// SweepEvery parses SweepInterval as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// RecentWindow parses RiskRecentWindow as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) RecentWindow() time.Duration {
	d, err := time.ParseDuration(c.RiskRecentWindow)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// CacheTTL parses AnalyticsCacheTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.AnalyticsCacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// OpsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka ops channel is enabled (non-empty list) and to create the producer.
func (c *Config) OpsKafkaBrokersList() []string {
	if c == nil || c.OpsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.OpsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
