// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const createVerificationToken = `
INSERT INTO verification_tokens (user_id, token, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, token, expires_at, created_at`

// CreateVerificationToken issues an email verification token. Any previous
// token for the user is removed first so only one is valid at a time.
func (q *Queries) CreateVerificationToken(ctx context.Context, userID int64, token string, expiresAt, now time.Time) (model.VerificationToken, error) {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE user_id = ?`, userID); err != nil {
		return model.VerificationToken{}, err
	}
	var t model.VerificationToken
	err := q.db.QueryRowContext(ctx, createVerificationToken, userID, token, expiresAt, now).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	return t, err
}

const getVerificationToken = `
SELECT id, user_id, token, expires_at, created_at FROM verification_tokens WHERE token = ?`

// GetVerificationToken looks up a verification token by value.
func (q *Queries) GetVerificationToken(ctx context.Context, token string) (model.VerificationToken, error) {
	var t model.VerificationToken
	err := q.db.QueryRowContext(ctx, getVerificationToken, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	return t, err
}

const deleteVerificationToken = `DELETE FROM verification_tokens WHERE id = ?`

// DeleteVerificationToken consumes a verification token.
func (q *Queries) DeleteVerificationToken(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteVerificationToken, id)
	return err
}

const createPasswordResetToken = `
INSERT INTO password_reset_tokens (email, token, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, email, token, expires_at, created_at`

// CreatePasswordResetToken issues a reset token, replacing any previous one
// for the same email.
func (q *Queries) CreatePasswordResetToken(ctx context.Context, email, token string, expiresAt, now time.Time) (model.PasswordResetToken, error) {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = ?`, email); err != nil {
		return model.PasswordResetToken{}, err
	}
	var t model.PasswordResetToken
	err := q.db.QueryRowContext(ctx, createPasswordResetToken, email, token, expiresAt, now).Scan(
		&t.ID, &t.Email, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	return t, err
}

const getPasswordResetToken = `
SELECT id, email, token, expires_at, created_at FROM password_reset_tokens WHERE token = ?`

// GetPasswordResetToken looks up a reset token by value.
func (q *Queries) GetPasswordResetToken(ctx context.Context, token string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := q.db.QueryRowContext(ctx, getPasswordResetToken, token).Scan(
		&t.ID, &t.Email, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	return t, err
}

const deletePasswordResetToken = `DELETE FROM password_reset_tokens WHERE id = ?`

// DeletePasswordResetToken consumes a reset token.
func (q *Queries) DeletePasswordResetToken(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePasswordResetToken, id)
	return err
}

const purgeExpiredTokens = `DELETE FROM verification_tokens WHERE expires_at < ?`
const purgeExpiredResetTokens = `DELETE FROM password_reset_tokens WHERE expires_at < ?`

// PurgeExpiredTokens removes expired verification and reset tokens and
// returns how many rows were deleted.
func (q *Queries) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, query := range []string{purgeExpiredTokens, purgeExpiredResetTokens} {
		res, err := q.db.ExecContext(ctx, query, now)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
