// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewSimpleMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}

	if _, err := c.Get(ctx, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewSimpleMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
	if has, _ := c.Has(ctx, "k"); has {
		t.Error("Has reported expired key")
	}
}

func TestMemoryCacheCallerCannotMutate(t *testing.T) {
	c := NewSimpleMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	original := []byte("immutable")
	if err := c.Set(ctx, "k", original, 0); err != nil {
		t.Fatal(err)
	}
	original[0] = 'X'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "immutable" {
		t.Errorf("stored value mutated: %q", got)
	}

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "immutable" {
		t.Errorf("returned value aliased cache storage: %q", again)
	}
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	c := NewSimpleMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Error("deleted key still present")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
}

func TestMemoryCacheMaxSizeSweeps(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 2})
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "expired", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, err := c.Get(ctx, "expired"); !errors.Is(err, ErrCacheMiss) {
		t.Error("expired entry survived the capacity sweep")
	}
	if _, err := c.Get(ctx, "c"); err != nil {
		t.Errorf("fresh entry missing: %v", err)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewSimpleMemoryCache(time.Hour)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	// Closing twice is fine.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close = %v, want ErrCacheClosed", err)
	}
}
