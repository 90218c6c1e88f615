// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sophiabent/bookhaven/internal/auth"
	"github.com/sophiabent/bookhaven/internal/model"
)

// Default admin credentials, overridable from config.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates the initial admin account if it does not exist.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
	}

	queries := New(db)

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, adminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:           adminEmail,
		PasswordHash:    passwordHash,
		Role:            model.RoleAdmin,
		Name:            DefaultAdminName,
		EmailVerifiedAt: sql.NullTime{Time: now, Valid: true},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created initial admin user", "id", user.ID, "email", user.Email)

	return nil
}
