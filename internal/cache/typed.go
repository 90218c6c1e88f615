// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache layers JSON encoding over a Cacher so callers work with
// concrete types instead of raw bytes.
type TypedCache[T any] struct {
	backend Cacher
	ttl     time.Duration
}

// NewTypedCache wraps backend with a default TTL for Set and GetOrSet.
func NewTypedCache[T any](backend Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, ttl: ttl}
}

// Get returns the cached value for key. A miss, a backend error, and a
// decode failure all report false.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// Set stores value under key with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, data, ttl)
}

// Delete removes key from the backend.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// GetOrSet returns the cached value for key, computing and storing it via
// fn on a miss. A failed store does not fail the call; the computed value
// is still returned.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}
	_ = c.SetWithTTL(ctx, key, value, c.ttl)
	return value, nil
}
