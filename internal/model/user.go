// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Book, Blog, Event, and newsletter structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a registered account.
type User struct {
	ID              int64        `json:"id"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"` // Never expose in JSON
	Role            string       `json:"role"`
	Name            string       `json:"name"`
	Image           string       `json:"image,omitempty"`
	EmailVerifiedAt sql.NullTime `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	LastLoginAt     sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsVerified returns true if the user confirmed their email address.
// OAuth-provisioned accounts are verified from the start.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt.Valid
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
