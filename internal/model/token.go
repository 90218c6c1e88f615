// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Token lifetimes.
const (
	VerificationTokenTTL  = 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
)

// VerificationToken confirms ownership of a registration email address.
type VerificationToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// PasswordResetToken authorizes a one-time password change. Keyed by email
// rather than user ID so requests for unknown addresses stay unobservable.
type PasswordResetToken struct {
	ID        int64
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
