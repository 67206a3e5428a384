package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	JWKSURL  string // Required: identity service JWKS endpoint
	Issuer   string // Required: expected token issuer
	Audience string // Expected token audience (default: TransportApi)

	Algorithm   string        // Token signing algorithm to verify (RS256, EdDSA) (default: EdDSA)
	JWKSRefresh time.Duration // JWKS cache lifetime (default: 5m)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8082)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment, sourcing a local
// .env file first when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		JWKSURL:             os.Getenv("TRANSPORT_JWKS_URL"),
		Issuer:              os.Getenv("TRANSPORT_ISSUER"),
		Audience:            getEnvOrDefault("TRANSPORT_AUDIENCE", "TransportApi"),
		Algorithm:           getEnvOrDefault("TRANSPORT_ALGORITHM", "EdDSA"),
		JWKSRefresh:         getEnvDurationOrDefault("TRANSPORT_JWKS_REFRESH", 5*time.Minute),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8082),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "http://localhost:8081"
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = cfg.Issuer + "/.well-known/jwks.json"
	}

	return cfg
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
