// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoginProtection guards the credential endpoints with two layers: a
// per-IP token bucket on login POSTs, and per-account lockouts that
// double in length on each repeat offense.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.RWMutex
	accounts map[string]*accountState

	maxFailures     int
	lockoutBase     time.Duration
	failureWindow   time.Duration
	cleanupInterval time.Duration
}

// accountState tracks failures and lockouts for one email address.
type accountState struct {
	failures     int
	firstFailure time.Time
	lockedUntil  time.Time
	lockouts     int
}

// LoginProtectionConfig tunes LoginProtection. Zero fields fall back to
// the defaults.
type LoginProtectionConfig struct {
	// IPRateLimit is login POSTs per second per IP.
	IPRateLimit float64
	// IPBurst allows short bursts above the sustained rate.
	IPBurst int
	// MaxFailedAttempts locks the account when reached inside the window.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout length; it doubles each time,
	// capped at 24 hours.
	LockoutDuration time.Duration
	// AttemptWindow is how long failures count toward a lockout.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig allows one login attempt every two seconds
// per IP and locks an account for 15 minutes after five failures.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection and starts its cleanup
// goroutine.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}

	lp := &LoginProtection{
		ipLimiters:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:        make(map[string]*accountState),
		maxFailures:     cfg.MaxFailedAttempts,
		lockoutBase:     cfg.LockoutDuration,
		failureWindow:   cfg.AttemptWindow,
		cleanupInterval: 10 * time.Minute,
	}
	go lp.cleanupLoop()
	return lp
}

// CheckIPRateLimit reports whether a login attempt from ip may proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked out and for how much
// longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.RLock()
	state, ok := lp.accounts[email]
	lp.mu.RUnlock()

	if !ok || !time.Now().Before(state.lockedUntil) {
		return false, 0
	}
	return true, time.Until(state.lockedUntil)
}

// RecordFailedAttempt counts a failed login for email. When the failure
// threshold is reached it locks the account and reports the lockout
// length.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	state, ok := lp.accounts[email]
	if !ok || now.Sub(state.firstFailure) > lp.failureWindow {
		if !ok {
			state = &accountState{}
			lp.accounts[email] = state
		}
		state.failures = 1
		state.firstFailure = now
		return false, 0
	}

	state.failures++
	if state.failures < lp.maxFailures {
		return false, 0
	}

	lockout := lp.lockoutBase
	for i := 0; i < state.lockouts && lockout < 24*time.Hour; i++ {
		lockout *= 2
	}
	if lockout > 24*time.Hour {
		lockout = 24 * time.Hour
	}

	state.lockedUntil = now.Add(lockout)
	state.lockouts++
	state.failures = 0

	slog.Warn("account locked after repeated login failures",
		"email", email,
		"lockouts", state.lockouts,
		"duration", lockout,
	)
	return true, lockout
}

// RecordSuccessfulLogin clears failure tracking for email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, email)
	lp.mu.Unlock()
}

// Middleware rate-limits login POSTs per client IP. GET requests for the
// login form pass through untouched.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too many login attempts. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (lp *LoginProtection) cleanupLoop() {
	ticker := time.NewTicker(lp.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		if lp.ipLimiters.clearIfExceeds(10000) {
			slog.Info("cleared login IP limiters due to size")
		}

		now := time.Now()
		lp.mu.Lock()
		for email, state := range lp.accounts {
			if now.After(state.lockedUntil) && now.Sub(state.firstFailure) > lp.failureWindow {
				delete(lp.accounts, email)
			}
		}
		lp.mu.Unlock()
	}
}

// getClientIP resolves the client address, preferring proxy headers over
// the socket address.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// First hop is the original client.
		if first, _, found := strings.Cut(ip, ","); found {
			return strings.TrimSpace(first)
		}
		return ip
	}
	return r.RemoteAddr
}
