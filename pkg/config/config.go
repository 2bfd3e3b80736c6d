package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/hub/pkg/observability"
	"github.com/platinummonkey/hub/pkg/webhooks"
)

// Config holds all service configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Webhook dispatch configuration
	Webhook webhooks.Config `yaml:"webhook"`

	// Delivery bookkeeping and outbound rate limiting
	Delivery DeliveryConfig `yaml:"delivery"`

	// Redis configuration (optional, backs the distributed rate limiter)
	Redis RedisConfig `yaml:"redis"`

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
}

// DeliveryConfig holds delivery log and rate limit settings
type DeliveryConfig struct {
	// LogCapacity bounds the in-memory delivery history.
	LogCapacity int `yaml:"log_capacity"`
	// RateLimit caps deliveries per subscriber URL per RateWindow.
	// Zero disables rate limiting.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`
}

// LoadConfig builds configuration from defaults, an optional YAML file, and
// HUB_* environment variables, in that order of precedence (env wins).
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Observability.LogLevel = parseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the working defaults
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Webhook: webhooks.Config{
			Mode: webhooks.ModeSandbox,
		},
		Delivery: DeliveryConfig{
			LogCapacity: 1000,
			RateWindow:  time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevelName:   "info",
			MetricsEnabled: true,
		},
	}
}

// applyEnv overrides file and default values with HUB_* environment variables
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HUB_HOST", c.Server.Host)
	c.Server.Port = getEnv("HUB_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("HUB_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("HUB_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("HUB_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("HUB_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Webhook.APIVersion = getEnv("HUB_API_VERSION", c.Webhook.APIVersion)
	c.Webhook.Secret = getEnv("HUB_SECRET", c.Webhook.Secret)
	if mode := getEnv("HUB_MODE", ""); mode != "" {
		c.Webhook.Mode = webhooks.Mode(mode)
	}
	c.Webhook.Name = getEnv("HUB_NAME", c.Webhook.Name)

	c.Delivery.LogCapacity = getEnvInt("HUB_DELIVERY_LOG_CAPACITY", c.Delivery.LogCapacity)
	c.Delivery.RateLimit = getEnvInt("HUB_RATE_LIMIT", c.Delivery.RateLimit)
	c.Delivery.RateWindow = getEnvDuration("HUB_RATE_WINDOW", c.Delivery.RateWindow)

	c.Redis.URL = getEnv("HUB_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("HUB_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("HUB_REDIS_DB", c.Redis.DB)

	c.Observability.LogLevelName = getEnv("HUB_LOG_LEVEL", c.Observability.LogLevelName)
	c.Observability.MetricsEnabled = getEnvBool("HUB_METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid, failing fast on missing
// required fields
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Webhook.APIVersion == "" {
		return fmt.Errorf("webhook api version is required (HUB_API_VERSION)")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret is required (HUB_SECRET)")
	}
	switch c.Webhook.Mode {
	case webhooks.ModeSandbox, webhooks.ModeProduction:
	default:
		return fmt.Errorf("invalid webhook mode: %s (must be sandbox or production)", c.Webhook.Mode)
	}
	if c.Delivery.RateLimit < 0 {
		return fmt.Errorf("delivery rate limit must not be negative")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
