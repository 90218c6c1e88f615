// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"BOOKHAVEN_DB_PATH" envDefault:"./data/bookhaven.db"`
	SessionSecret string `env:"BOOKHAVEN_SESSION_SECRET,required"`
	ServerHost    string `env:"BOOKHAVEN_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BOOKHAVEN_SERVER_PORT" envDefault:"8080"`
	BaseURL       string `env:"BOOKHAVEN_BASE_URL" envDefault:"http://localhost:8080"`
	Env           string `env:"BOOKHAVEN_ENV" envDefault:"development"`
	LogLevel      string `env:"BOOKHAVEN_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"BOOKHAVEN_UPLOADS_DIR" envDefault:"./uploads"`
	SiteName      string `env:"BOOKHAVEN_SITE_NAME" envDefault:"BookHaven"`

	// Cache configuration
	RedisURL     string `env:"BOOKHAVEN_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"BOOKHAVEN_CACHE_PREFIX" envDefault:"bkh:"`    // Redis key prefix
	CacheTTL     int    `env:"BOOKHAVEN_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"BOOKHAVEN_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Email delivery (Resend)
	ResendAPIKey string `env:"BOOKHAVEN_RESEND_API_KEY"` // Resend API key; email disabled when empty
	EmailFrom    string `env:"BOOKHAVEN_EMAIL_FROM" envDefault:"BookHaven <onboarding@resend.dev>"`
	ContactEmail string `env:"BOOKHAVEN_CONTACT_EMAIL"` // Recipient of contact-form messages

	// Google OAuth
	GoogleClientID     string `env:"BOOKHAVEN_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"BOOKHAVEN_GOOGLE_CLIENT_SECRET"`

	// Object storage (S3-compatible); local disk is used when endpoint is empty
	S3Endpoint  string `env:"BOOKHAVEN_S3_ENDPOINT"`
	S3Region    string `env:"BOOKHAVEN_S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"BOOKHAVEN_S3_BUCKET"`
	S3AccessKey string `env:"BOOKHAVEN_S3_ACCESS_KEY"`
	S3SecretKey string `env:"BOOKHAVEN_S3_SECRET_KEY"`
	S3UseSSL    bool   `env:"BOOKHAVEN_S3_USE_SSL" envDefault:"true"`

	// Text-to-speech (OpenAI audio API)
	TTSAPIKey string `env:"BOOKHAVEN_TTS_API_KEY"`
	TTSVoice  string `env:"BOOKHAVEN_TTS_VOICE" envDefault:"alloy"`

	// GeoIP configuration
	GeoIPDBPath string `env:"BOOKHAVEN_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Event log retention
	EventRetentionDays int `env:"BOOKHAVEN_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed     bool   `env:"BOOKHAVEN_DO_SEED" envDefault:"false"` // Enable database seeding
	AdminEmail string `env:"BOOKHAVEN_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPass  string `env:"BOOKHAVEN_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// EmailEnabled returns true if outgoing email is configured.
func (c Config) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

// GoogleOAuthEnabled returns true if Google sign-in is configured.
func (c Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// UseS3Storage returns true if S3-compatible object storage is configured.
func (c Config) UseS3Storage() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

// TTSEnabled returns true if text-to-speech generation is configured.
func (c Config) TTSEnabled() bool {
	return c.TTSAPIKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BOOKHAVEN_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("BOOKHAVEN_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BOOKHAVEN_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if !cfg.IsDevelopment() && strings.HasPrefix(cfg.BaseURL, "http://") {
		slog.Warn("BOOKHAVEN_BASE_URL uses plain http outside development", "base_url", cfg.BaseURL)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
