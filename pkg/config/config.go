// Package config provides environment-based configuration for the connector builder.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the connector builder.
type Config struct {
	// Server configuration
	Host           string
	Port           int
	RequestTimeout time.Duration

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// DatabaseDSN selects the PostgreSQL store. Empty keeps sessions in memory.
	DatabaseDSN string

	// Session cookie signing
	SessionSecret string
	SessionExpiry time.Duration

	// Workflow configuration
	Workflow WorkflowConfig

	// Export configuration
	Export ExportConfig

	// Logging configuration
	Log LogConfig
}

// WorkflowConfig holds the simulated task durations of the builder workflow.
type WorkflowConfig struct {
	GenerateDelay time.Duration
	ValidateDelay time.Duration
}

// ExportConfig holds configuration for configuration downloads.
type ExportConfig struct {
	// AgeRecipient seals downloads for this recipient when set.
	// Format: age1... (Bech32 encoded)
	AgeRecipient string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level slog.Level
	JSON  bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := LoadWithDefaults()
	cfg.SessionSecret = getEnv("SESSION_SECRET", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("AUTOBRIDGE_PORT must be between 1 and 65535")
	}
	if c.Workflow.GenerateDelay < 0 || c.Workflow.ValidateDelay < 0 {
		return fmt.Errorf("workflow delays must not be negative")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	return &Config{
		Host:            getEnv("AUTOBRIDGE_HOST", "0.0.0.0"),
		Port:            getIntEnv("AUTOBRIDGE_PORT", 8080),
		RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		DatabaseDSN:     getEnv("DATABASE_URL", ""),
		SessionSecret:   getEnv("SESSION_SECRET", "development-session-secret-min-32-chars"),
		SessionExpiry:   getDurationEnv("SESSION_EXPIRY", 24*time.Hour),
		Workflow: WorkflowConfig{
			GenerateDelay: getDurationEnv("GENERATE_DELAY", 2*time.Second),
			ValidateDelay: getDurationEnv("VALIDATE_DELAY", 1500*time.Millisecond),
		},
		Export: ExportConfig{
			AgeRecipient: getEnv("EXPORT_AGE_RECIPIENT", ""),
		},
		Log: LogConfig{
			Level: getLevelEnv("LOG_LEVEL", slog.LevelInfo),
			JSON:  getEnv("LOG_FORMAT", "json") != "text",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getLevelEnv(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		return defaultValue
	}
	return level
}
