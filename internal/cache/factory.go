// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"net/url"
	"time"
)

// CacheConfig selects and configures a cache backend.
type CacheConfig struct {
	// RedisURL selects the Redis backend when non-empty,
	// e.g. redis://localhost:6379/0.
	RedisURL string

	// Prefix namespaces Redis keys. Ignored by the memory backend.
	Prefix string

	// DefaultTTL applies to entries stored with a zero TTL.
	DefaultTTL time.Duration

	// MaxSize caps the memory backend's entry count (0 = unlimited).
	MaxSize int

	// CleanupInterval is the memory backend's sweep interval.
	CleanupInterval time.Duration
}

// DefaultCacheConfig returns the memory-backend defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL:      time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// NewCache builds a Redis cache when cfg.RedisURL is set, a memory cache
// otherwise.
func NewCache(cfg CacheConfig) (Cacher, error) {
	if cfg.RedisURL != "" {
		return NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}

// NewDefaultCache returns a memory cache with default settings.
func NewDefaultCache() Cacher {
	c, _ := NewCache(DefaultCacheConfig())
	return c
}

// SanitizeRedisURL masks the password in a Redis URL so it can be logged.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
