// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
	"time"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{"", false},
		{"ADMIN", false}, // roles are stored lowercase
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() with role %q = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUser_IsVerified(t *testing.T) {
	u := &User{}
	if u.IsVerified() {
		t.Error("IsVerified() = true for user without verification timestamp")
	}
	u.EmailVerifiedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if !u.IsVerified() {
		t.Error("IsVerified() = false for verified user")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleUser} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "root", "editor", "Admin"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Now()
	vt := &VerificationToken{ExpiresAt: now.Add(time.Minute)}
	if vt.Expired(now) {
		t.Error("token expiring in a minute reported as expired")
	}
	if !vt.Expired(now.Add(2 * time.Minute)) {
		t.Error("token past expiry reported as valid")
	}

	rt := &PasswordResetToken{ExpiresAt: now.Add(-time.Second)}
	if !rt.Expired(now) {
		t.Error("expired reset token reported as valid")
	}
}

func TestCampaign_IsSendable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{CampaignStatusDraft, true},
		{CampaignStatusScheduled, true},
		{CampaignStatusSending, false},
		{CampaignStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			c := &Campaign{Status: tt.status}
			if got := c.IsSendable(); got != tt.want {
				t.Errorf("IsSendable() with status %q = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
