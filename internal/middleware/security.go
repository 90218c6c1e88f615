// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the application.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecurityHeadersConfig controls the browser security headers attached to
// every response.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS, which would otherwise pin browsers to
	// HTTPS on localhost.
	IsDevelopment bool

	// ContentSecurityPolicy overrides the default policy when non-empty.
	ContentSecurityPolicy string

	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds.
	// Zero disables the header.
	HSTSMaxAge int

	// HSTSIncludeSubDomains extends the HSTS policy to subdomains.
	HSTSIncludeSubDomains bool

	// FrameOptions sets X-Frame-Options; empty disables the header.
	FrameOptions string

	// ReferrerPolicy sets Referrer-Policy; empty disables the header.
	ReferrerPolicy string

	// PermissionsPolicy sets Permissions-Policy; empty disables the header.
	PermissionsPolicy string
}

// defaultCSP covers the site's needs exactly: all assets are served from
// this origin, cover images may be inlined as data URIs by the admin
// preview, and nothing may frame us.
const defaultCSP = "default-src 'self'; " +
	"script-src 'self'; " +
	"style-src 'self'; " +
	"img-src 'self' data:; " +
	"font-src 'self'; " +
	"connect-src 'self'; " +
	"object-src 'none'; " +
	"base-uri 'self'; " +
	"form-action 'self'; " +
	"frame-ancestors 'none'"

// DefaultSecurityHeadersConfig returns the stock configuration.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		ContentSecurityPolicy: defaultCSP,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: !isDev,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), geolocation=(), microphone=(), payment=()",
	}
}

// SecurityHeaders attaches the configured headers to every response.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	var hsts string
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		parts := []string{"max-age=" + strconv.Itoa(cfg.HSTSMaxAge)}
		if cfg.HSTSIncludeSubDomains {
			parts = append(parts, "includeSubDomains")
		}
		hsts = strings.Join(parts, "; ")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", cfg.PermissionsPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
