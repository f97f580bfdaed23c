package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer   string // Issuer claim for all tokens (default: folio-auth)
	Audience string // Audience claim for all tokens (default: folio)

	AccessSecret  string // Required: HMAC key for access and enrollment tokens
	RefreshSecret string // Required: HMAC key for refresh tokens, distinct from AccessSecret

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	RevocationBackend string // Revocation store backend (memory, redis) (default: memory)
	RedisAddr         string // Redis address, required when RevocationBackend is redis

	MFAIssuer string // Issuer label shown in authenticator apps (default: Folio)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Revocation sweep interval (default: 15m)
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("FOLIO_AUTH_ISSUER", "folio-auth"),
		Audience: getEnvOrDefault("FOLIO_AUTH_AUDIENCE", "folio"),

		AccessSecret:  os.Getenv("FOLIO_AUTH_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("FOLIO_AUTH_REFRESH_SECRET"),

		DatabaseFile: getEnvOrDefault("FOLIO_AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("FOLIO_AUTH_PEPPER_FILE", "pepper"),

		RevocationBackend: getEnvOrDefault("FOLIO_AUTH_REVOCATION_BACKEND", "memory"),
		RedisAddr:         os.Getenv("FOLIO_AUTH_REDIS_ADDR"),

		MFAIssuer: getEnvOrDefault("FOLIO_AUTH_MFA_ISSUER", "Folio"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 15*time.Minute),
	}
}

// Validate rejects configurations the service must not start with. Signing
// secrets are mandatory and must differ so a refresh token can never be
// replayed as an access token.
func (cfg Config) Validate() error {
	if cfg.AccessSecret == "" {
		return fmt.Errorf("FOLIO_AUTH_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return fmt.Errorf("FOLIO_AUTH_REFRESH_SECRET is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return fmt.Errorf("FOLIO_AUTH_ACCESS_SECRET and FOLIO_AUTH_REFRESH_SECRET must differ")
	}

	switch cfg.RevocationBackend {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("FOLIO_AUTH_REDIS_ADDR is required when FOLIO_AUTH_REVOCATION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown revocation backend %q", cfg.RevocationBackend)
	}

	return nil
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
