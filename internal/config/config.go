// Package config loads the service configuration from files and the
// environment with viper. Every setting has a development default, so a
// bare `go run` works against local Postgres, Redis and NATS.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "PURPLEWALLET"

	defaultJWTSecret     = "change-me-in-production"
	defaultWebhookSecret = "paysend-dev-secret"
)

// Config is the root configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Business BusinessConfig `mapstructure:"business"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the service runs in production mode.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the pgx connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig configures the Redis client backing the listing cache and the
// idempotency store.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NATSConfig configures the event publisher connection.
type NATSConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// WebhookConfig configures the provider-facing endpoints.
type WebhookConfig struct {
	// PaysendSecret is the HMAC key the provider signs webhook bodies with.
	PaysendSecret string `mapstructure:"paysend_secret"`
	// IPWhitelist lists addresses or CIDR ranges allowed to call the
	// machine-facing endpoints. Empty admits every source.
	IPWhitelist []string `mapstructure:"ip_whitelist"`
}

// BusinessConfig holds the tunable business rules.
type BusinessConfig struct {
	CashOutExpiryMinutes int           `mapstructure:"cash_out_expiry_minutes"`
	TransferExpiryHours  int           `mapstructure:"transfer_expiry_hours"`
	ExpiryWorkerPeriod   time.Duration `mapstructure:"expiry_worker_period"`
	ListCacheTTL         time.Duration `mapstructure:"list_cache_ttl"`
	IdempotencyTTL       time.Duration `mapstructure:"idempotency_ttl"`
}

// CashOutExpiry returns how long a withdrawal code stays valid.
func (c *BusinessConfig) CashOutExpiry() time.Duration {
	return time.Duration(c.CashOutExpiryMinutes) * time.Minute
}

// TransferExpiry returns how long a pending transfer waits for a decision.
func (c *BusinessConfig) TransferExpiry() time.Duration {
	return time.Duration(c.TransferExpiryHours) * time.Hour
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from the given path and name, applying defaults
// and environment overrides. A missing file is not an error.
func Load(path, name string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	normalize(&cfg)

	return &cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment only.
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	normalize(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "walletcore")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "walletcore")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "walletcore")

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("webhook.paysend_secret", defaultWebhookSecret)
	v.SetDefault("webhook.ip_whitelist", []string{})

	v.SetDefault("business.cash_out_expiry_minutes", 30)
	v.SetDefault("business.transfer_expiry_hours", 24)
	v.SetDefault("business.expiry_worker_period", 6*time.Hour)
	v.SetDefault("business.list_cache_ttl", 15*time.Minute)
	v.SetDefault("business.idempotency_ttl", 24*time.Hour)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
}

// bindEnvVars binds the short variable names used in deployment manifests
// alongside the prefixed canonical names.
func bindEnvVars(v *viper.Viper) {
	bindings := map[string][]string{
		"app.environment":                  {"ENVIRONMENT"},
		"server.host":                      {"HOST"},
		"server.port":                      {"PORT"},
		"database.host":                    {"DB_HOST"},
		"database.port":                    {"DB_PORT"},
		"database.user":                    {"DB_USER"},
		"database.password":                {"DB_PASSWORD"},
		"database.database":                {"DB_NAME"},
		"database.ssl_mode":                {"DB_SSLMODE"},
		"redis.host":                       {"REDIS_HOST"},
		"redis.port":                       {"REDIS_PORT"},
		"redis.password":                   {"REDIS_PASSWORD"},
		"nats.url":                         {"NATS_URL"},
		"auth.jwt_secret":                  {"JWT_SECRET"},
		"webhook.paysend_secret":           {"PAYSEND_WEBHOOK_SECRET"},
		"webhook.ip_whitelist":             {"IP_WHITELIST"},
		"business.cash_out_expiry_minutes": {"CASH_OUT_EXPIRY_MINUTES"},
		"business.transfer_expiry_hours":   {"TRANSFER_EXPIRY_HOURS"},
		"business.expiry_worker_period":    {"EXPIRY_WORKER_PERIOD"},
		"business.list_cache_ttl":          {"LIST_CACHE_TTL"},
		"business.idempotency_ttl":         {"IDEMPOTENCY_TTL"},
		"log.level":                        {"LOG_LEVEL"},
		"log.format":                       {"LOG_FORMAT"},
	}

	for key, aliases := range bindings {
		canonical := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, canonical}, aliases...)
		_ = v.BindEnv(args...)
	}
}

// normalize fixes up values viper cannot map directly. IP_WHITELIST arrives
// from the environment as one comma-separated string.
func normalize(cfg *Config) {
	if len(cfg.Webhook.IPWhitelist) == 1 && strings.Contains(cfg.Webhook.IPWhitelist[0], ",") {
		parts := strings.Split(cfg.Webhook.IPWhitelist[0], ",")
		cfg.Webhook.IPWhitelist = cfg.Webhook.IPWhitelist[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Webhook.IPWhitelist = append(cfg.Webhook.IPWhitelist, p)
			}
		}
	}
}

// Validate checks the configuration for deployment mistakes.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Business.CashOutExpiryMinutes <= 0 {
		return fmt.Errorf("cash-out expiry must be positive")
	}
	if c.Business.TransferExpiryHours <= 0 {
		return fmt.Errorf("transfer expiry must be positive")
	}

	if c.App.IsProduction() {
		if c.Auth.JWTSecret == defaultJWTSecret || c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret must be changed in production")
		}
		if c.Webhook.PaysendSecret == defaultWebhookSecret || c.Webhook.PaysendSecret == "" {
			return fmt.Errorf("webhook secret must be changed in production")
		}
	}

	return nil
}

// Development returns a configuration for local development.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "walletcore",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "walletcore",
			SSLMode:         "disable",
			MaxConnections:  10,
			MinConnections:  2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		NATS: NATSConfig{
			URL:  "nats://localhost:4222",
			Name: "walletcore",
		},
		Auth: AuthConfig{
			JWTSecret: defaultJWTSecret,
			TokenTTL:  24 * time.Hour,
		},
		Webhook: WebhookConfig{
			PaysendSecret: defaultWebhookSecret,
		},
		Business: BusinessConfig{
			CashOutExpiryMinutes: 30,
			TransferExpiryHours:  24,
			ExpiryWorkerPeriod:   6 * time.Hour,
			ListCacheTTL:         15 * time.Minute,
			IdempotencyTTL:       24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Test returns a configuration for the test suite.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Database.Database = "walletcore_test"
	cfg.Log.Level = "error"
	return cfg
}
