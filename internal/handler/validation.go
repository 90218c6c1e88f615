// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sophiabent/bookhaven/internal/util"
)

// SlugExistsFunc reports whether a slug is already taken.
type SlugExistsFunc func() (bool, error)

// ValidateSlugWithChecker validates a slug using a custom existence checker.
// Returns an error message string if validation fails, or empty string if valid.
func ValidateSlugWithChecker(slug string, checkExists SlugExistsFunc) string {
	if slug == "" {
		return "Slug is required"
	}
	if !util.IsValidSlug(slug) {
		return "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}
	exists, err := checkExists()
	if err != nil {
		slog.Error("database error checking slug", "error", err)
		return "Error checking slug"
	}
	if exists {
		return "Slug already exists"
	}
	return ""
}

// ValidateSlugForUpdate validates a slug for update operations.
// Skips validation if the slug hasn't changed from the current value.
func ValidateSlugForUpdate(slug, currentSlug string, checkExists SlugExistsFunc) string {
	if slug == currentSlug {
		return ""
	}
	return ValidateSlugWithChecker(slug, checkExists)
}

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail reports whether the address parses as a bare RFC 5322 address.
func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// validatePassword returns an error message for unacceptable passwords,
// or empty string when the password is fine.
func validatePassword(password string) string {
	if len(password) < minPasswordLength {
		return "Password must be at least 8 characters"
	}
	if len(password) > 256 {
		return "Password is too long"
	}
	return ""
}
