// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var csrfTestKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfigDevelopment(t *testing.T) {
	cfg := DefaultCSRFConfig(csrfTestKey, true)

	if len(cfg.AuthKey) != 32 {
		t.Errorf("AuthKey length = %d, want 32", len(cfg.AuthKey))
	}
	if len(cfg.TrustedOrigins) != 2 {
		t.Fatalf("TrustedOrigins = %v, want two localhost entries", cfg.TrustedOrigins)
	}
	for _, origin := range cfg.TrustedOrigins {
		// The csrf library wants host:port, not URLs.
		if strings.HasPrefix(origin, "http") {
			t.Errorf("origin %q must be host:port, not a URL", origin)
		}
		if !strings.Contains(origin, ":") {
			t.Errorf("origin %q missing port", origin)
		}
	}
}

func TestDefaultCSRFConfigProduction(t *testing.T) {
	cfg := DefaultCSRFConfig(csrfTestKey, false)
	if len(cfg.TrustedOrigins) != 0 {
		t.Errorf("production config trusts origins: %v", cfg.TrustedOrigins)
	}
}

func TestCSRFAllowsSameOriginPost(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "https://bookhaven.test/login", nil)
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCSRFRejectsCrossSitePost(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a cross-site POST")
	}))

	req := httptest.NewRequest(http.MethodPost, "https://bookhaven.test/login", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCSRFCustomErrorHandler(t *testing.T) {
	cfg := DefaultCSRFConfig(csrfTestKey, false)
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusTeapot)
	})

	h := CSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "https://bookhaven.test/login", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestCSRFIgnoresSafeMethods(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(csrfTestKey, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "https://bookhaven.test/books", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
