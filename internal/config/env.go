// Package config defines environment variable keys for configuration.
package config

//nolint:gosec // Environment variable keys are not credentials.
const (
	// Core (Required)
	EnvBackendBaseURL     = "ANDYBOT_BACKEND_BASE_URL"
	EnvRuntimeSendURL     = "ANDYBOT_RUNTIME_SEND_URL"
	EnvWebhookVerifyToken = "ANDYBOT_WEBHOOK_VERIFY_TOKEN"

	// Server
	EnvPort            = "ANDYBOT_PORT"
	EnvLogLevel        = "ANDYBOT_LOG_LEVEL"
	EnvShutdownTimeout = "ANDYBOT_SHUTDOWN_TIMEOUT"

	// Content
	EnvCatalogPath = "ANDYBOT_CATALOG_PATH"
	EnvStaticURL   = "ANDYBOT_STATIC_URL"

	// Collaborator timeouts
	EnvBackendTimeout  = "ANDYBOT_BACKEND_TIMEOUT"
	EnvDeliveryTimeout = "ANDYBOT_DELIVERY_TIMEOUT"

	// Rate Limits
	EnvUserRateBurst  = "ANDYBOT_USER_RATE_BURST"
	EnvUserRateRefill = "ANDYBOT_USER_RATE_REFILL"

	// Sentry Feature
	EnvSentryDSN         = "ANDYBOT_SENTRY_DSN"
	EnvSentryEnvironment = "ANDYBOT_SENTRY_ENVIRONMENT"
	EnvSentryRelease     = "ANDYBOT_SENTRY_RELEASE"
	EnvSentrySampleRate  = "ANDYBOT_SENTRY_SAMPLE_RATE"
)
