// Package config reads the environment into one struct at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the process needs from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	IdentityWebhookSecret string
	IdentityAPIURL        string
	IdentityAPIKey        string
	IdentityJWKSURL       string
	JWTSecret             string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	MailRelayURL string
	MailAPIKey   string
}

// Load reads the environment. Only DATABASE_URL is mandatory;
// everything else has a development default.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		IdentityWebhookSecret: os.Getenv("IDENTITY_WEBHOOK_SECRET"),
		IdentityAPIURL:        getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		IdentityAPIKey:        os.Getenv("IDENTITY_API_KEY"),
		IdentityJWKSURL:       os.Getenv("IDENTITY_JWKS_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),

		MailRelayURL: os.Getenv("MAIL_RELAY_URL"),
		MailAPIKey:   os.Getenv("MAIL_API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.RedisDB = db
	}
	cfg.MinioUseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	if cfg.IsProduction() {
		if cfg.IdentityWebhookSecret == "" {
			return nil, fmt.Errorf("IDENTITY_WEBHOOK_SECRET is required in production")
		}
		if cfg.IdentityAPIKey == "" {
			return nil, fmt.Errorf("IDENTITY_API_KEY is required in production")
		}
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
