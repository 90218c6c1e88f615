// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig configures cross-site request forgery protection for the
// HTML form surfaces. The underlying filippo.io/csrf/gorilla library
// validates Fetch metadata and Origin headers rather than tokens, so
// templates carry no hidden CSRF inputs.
type CSRFConfig struct {
	// AuthKey is a 32-byte key. The session secret is reused here.
	AuthKey []byte

	// ErrorHandler responds to failed validations. A logging 403 handler
	// is installed when nil.
	ErrorHandler http.Handler

	// TrustedOrigins lists host:port values allowed to submit
	// cross-origin requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns the production configuration; in development
// localhost origins are trusted so forms work without TLS.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = []string{"localhost:8080", "127.0.0.1:8080"}
	}
	return cfg
}

// CSRF builds the protection middleware from cfg.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	handler := cfg.ErrorHandler
	if handler == nil {
		handler = http.HandlerFunc(rejectCSRF)
	}

	opts := []csrf.Option{csrf.ErrorHandler(handler)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

// rejectCSRF logs the failure with enough header context to debug
// misconfigured origins, then answers 403.
func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Error("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
