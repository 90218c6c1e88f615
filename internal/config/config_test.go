// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "BOOKHAVEN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Check defaults
	if cfg.DBPath != "./data/bookhaven.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/bookhaven.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "BOOKHAVEN_SESSION_SECRET", customSecret)
	setEnv(t, "BOOKHAVEN_DB_PATH", "/custom/path.db")
	setEnv(t, "BOOKHAVEN_SERVER_HOST", "0.0.0.0")
	setEnv(t, "BOOKHAVEN_SERVER_PORT", "3000")
	setEnv(t, "BOOKHAVEN_ENV", "production")
	setEnv(t, "BOOKHAVEN_LOG_LEVEL", "debug")
	setEnv(t, "BOOKHAVEN_BASE_URL", "https://bookhaven.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerHost != "0.0.0.0" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "0.0.0.0")
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.BaseURL != "https://bookhaven.example.com" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "https://bookhaven.example.com")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()
	// Don't set BOOKHAVEN_SESSION_SECRET

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when BOOKHAVEN_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"}, // 31 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "BOOKHAVEN_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_SessionSecretMinimumLength(t *testing.T) {
	os.Clearenv()
	// Exactly 32 bytes should work
	secret32 := "12345678901234567890123456789012"
	setEnv(t, "BOOKHAVEN_SESSION_SECRET", secret32)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should succeed with 32-byte secret: %v", err)
	}
	if cfg.SessionSecret != secret32 {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, secret32)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1", 443, "127.0.0.1:443"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_FeatureToggles(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		got  func(Config) bool
		want bool
	}{
		{"email disabled", Config{}, Config.EmailEnabled, false},
		{"email enabled", Config{ResendAPIKey: "re_123"}, Config.EmailEnabled, true},
		{"oauth needs both keys", Config{GoogleClientID: "id"}, Config.GoogleOAuthEnabled, false},
		{"oauth enabled", Config{GoogleClientID: "id", GoogleClientSecret: "sec"}, Config.GoogleOAuthEnabled, true},
		{"s3 needs bucket", Config{S3Endpoint: "s3.example.com"}, Config.UseS3Storage, false},
		{"s3 enabled", Config{S3Endpoint: "s3.example.com", S3Bucket: "media"}, Config.UseS3Storage, true},
		{"tts disabled", Config{}, Config.TTSEnabled, false},
		{"tts enabled", Config{TTSAPIKey: "sk-123"}, Config.TTSEnabled, true},
		{"geoip disabled", Config{}, Config.GeoIPEnabled, false},
		{"geoip enabled", Config{GeoIPDBPath: "/geo.mmdb"}, Config.GeoIPEnabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.got(tt.cfg); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_UploadsDir(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "BOOKHAVEN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}

		if cfg.UploadsDir != "./uploads" {
			t.Errorf("UploadsDir = %q, want %q", cfg.UploadsDir, "./uploads")
		}
	})

	t.Run("custom_value", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "BOOKHAVEN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
		setEnv(t, "BOOKHAVEN_UPLOADS_DIR", "/var/www/uploads")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}

		if cfg.UploadsDir != "/var/www/uploads" {
			t.Errorf("UploadsDir = %q, want %q", cfg.UploadsDir, "/var/www/uploads")
		}
	})
}
