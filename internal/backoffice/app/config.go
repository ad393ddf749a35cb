package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./backoffice.db)

	MailAPIBaseURL string // Required for dispatch: base URL of the mail-delivery API
	MailAPIKey     string // Required for dispatch: bearer token for the mail API
	MailFrom       string // Optional: sender address (default: noreply@backoffice.local)

	MediaBaseURL string // Required for uploads: base URL of the media host
	MediaPreset  string // Required for uploads: unsigned upload preset name

	RequireVerification bool          // Optional: gate record creation behind email verification (default: true)
	OTPSessionTTL       time.Duration // Optional: verification session validity window (default: 5m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("BACKOFFICE_DATABASE_FILE", "backoffice.db"),

		MailAPIBaseURL: os.Getenv("MAIL_API_BASE_URL"),
		MailAPIKey:     os.Getenv("MAIL_API_KEY"),
		MailFrom:       getEnvOrDefault("MAIL_FROM", "noreply@backoffice.local"),

		MediaBaseURL: os.Getenv("MEDIA_BASE_URL"),
		MediaPreset:  os.Getenv("MEDIA_UPLOAD_PRESET"),

		RequireVerification: getEnvBoolOrDefault("OTP_REQUIRE_VERIFICATION", true),
		OTPSessionTTL:       getEnvDurationOrDefault("OTP_SESSION_TTL", 5*time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
