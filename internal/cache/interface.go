// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the catalog cache and its storage backends, an
// in-process memory cache and an optional Redis cache behind one interface.
package cache

import (
	"context"
	"time"
)

// Cacher is the backend contract shared by the memory and Redis caches.
// Values are opaque bytes; TypedCache layers JSON on top. Implementations
// must be safe for concurrent use.
type Cacher interface {
	// Get returns the value for key, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear drops every entry owned by this cache.
	Clear(ctx context.Context) error

	// Has reports whether key holds an unexpired value.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases backend resources. The cache is unusable afterwards.
	Close() error
}

// PrefixDeleter is an optional backend capability: deleting every key that
// starts with a given prefix in one operation.
type PrefixDeleter interface {
	// DeleteByPrefix removes all keys beginning with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Error is a sentinel error type for cache operations.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
