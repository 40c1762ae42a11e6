// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, collaborator endpoints, rate limits and error reporting.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Collaborator endpoints
	BackendBaseURL string // Backend domain service (users, scans, activities)
	RuntimeSendURL string // Hosting conversational runtime (reply delivery)
	StaticURL      string // Base URL for static images used in carousels

	// Webhook
	WebhookVerifyToken string // Token echoed during the webhook verification handshake

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Content
	CatalogPath string // Path to the static activity catalog JSON

	// Collaborator timeouts
	BackendTimeout  time.Duration
	DeliveryTimeout time.Duration

	// Rate Limits (token bucket, per user)
	UserRateBurst  float64
	UserRateRefill float64 // tokens per second

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		BackendBaseURL:     getEnv(EnvBackendBaseURL, ""),
		RuntimeSendURL:     getEnv(EnvRuntimeSendURL, ""),
		StaticURL:          getEnv(EnvStaticURL, ""),
		WebhookVerifyToken: getEnv(EnvWebhookVerifyToken, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, 10*time.Second),

		CatalogPath: getEnv(EnvCatalogPath, "activities.json"),

		BackendTimeout:  getEnvDuration(EnvBackendTimeout, 10*time.Second),
		DeliveryTimeout: getEnvDuration(EnvDeliveryTimeout, 10*time.Second),

		UserRateBurst:  getEnvFloat(EnvUserRateBurst, 15),
		UserRateRefill: getEnvFloat(EnvUserRateRefill, 0.5),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentryRelease:     getEnv(EnvSentryRelease, ""),
		SentrySampleRate:  getEnvFloat(EnvSentrySampleRate, 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings are present and sane.
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("%s is required", EnvBackendBaseURL)
	}
	if c.RuntimeSendURL == "" {
		return fmt.Errorf("%s is required", EnvRuntimeSendURL)
	}
	if c.WebhookVerifyToken == "" {
		return fmt.Errorf("%s is required", EnvWebhookVerifyToken)
	}
	if c.UserRateBurst <= 0 || c.UserRateRefill <= 0 {
		return errors.New("user rate limit burst and refill must be positive")
	}
	if !strings.HasPrefix(c.BackendBaseURL, "http") {
		return fmt.Errorf("%s must be an http(s) URL", EnvBackendBaseURL)
	}
	return nil
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable with a fallback default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvFloat reads a float environment variable with a fallback default.
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
