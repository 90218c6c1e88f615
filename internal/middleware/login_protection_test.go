// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginProtectionLockout(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	cfg.MaxFailedAttempts = 3
	cfg.LockoutDuration = time.Minute
	lp := NewLoginProtection(cfg)

	const email = "reader@example.com"

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts, want threshold 3", i+1)
		}
	}

	locked, d := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("third failure should lock the account")
	}
	if d != time.Minute {
		t.Errorf("first lockout = %v, want 1m", d)
	}

	if isLocked, remaining := lp.IsAccountLocked(email); !isLocked || remaining <= 0 {
		t.Errorf("IsAccountLocked() = %v, %v after lockout", isLocked, remaining)
	}
}

func TestLoginProtectionBackoffDoubles(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	cfg.MaxFailedAttempts = 2
	cfg.LockoutDuration = time.Minute
	lp := NewLoginProtection(cfg)

	const email = "repeat@example.com"

	lock := func() time.Duration {
		lp.RecordFailedAttempt(email)
		locked, d := lp.RecordFailedAttempt(email)
		if !locked {
			t.Fatal("expected lockout")
		}
		return d
	}

	if d := lock(); d != time.Minute {
		t.Errorf("first lockout = %v, want 1m", d)
	}
	// Expire the lock so new failures count again.
	lp.mu.Lock()
	lp.accounts[email].lockedUntil = time.Now().Add(-time.Second)
	lp.mu.Unlock()

	if d := lock(); d != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", d)
	}
}

func TestLoginProtectionWindowReset(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	cfg.MaxFailedAttempts = 2
	cfg.AttemptWindow = time.Minute
	lp := NewLoginProtection(cfg)

	const email = "slow@example.com"

	lp.RecordFailedAttempt(email)

	// Push the first failure outside the window.
	lp.mu.Lock()
	lp.accounts[email].firstFailure = time.Now().Add(-2 * time.Minute)
	lp.mu.Unlock()

	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("stale failures should not count toward a lockout")
	}
}

func TestLoginProtectionSuccessClears(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	cfg.MaxFailedAttempts = 2
	lp := NewLoginProtection(cfg)

	const email = "forgiven@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("success should reset the failure count")
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	cfg.IPRateLimit = 1
	cfg.IPBurst = 1
	lp := NewLoginProtection(cfg)

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first POST status = %d, want 200", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("burst-exhausted POST status = %d, want 429", code)
	}

	// GETs are never throttled.
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "198.51.100.7:4242"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}
}
