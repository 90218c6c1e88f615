// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const userColumns = `id, email, password_hash, role, name, image, email_verified_at, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.Image,
		&u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID returns a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail returns a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email           string
	PasswordHash    string
	Role            string
	Name            string
	Image           string
	EmailVerifiedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const createUser = `
INSERT INTO users (email, password_hash, role, name, image, email_verified_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name, arg.Image,
		arg.EmailVerifiedAt, arg.CreatedAt, arg.UpdatedAt,
	))
}

// UpdateUserParams holds the fields for UpdateUser.
type UpdateUserParams struct {
	ID        int64
	Email     string
	Role      string
	Name      string
	Image     string
	UpdatedAt time.Time
}

const updateUser = `
UPDATE users SET email = ?, role = ?, name = ?, image = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUser updates profile fields and role.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUser,
		arg.Email, arg.Role, arg.Name, arg.Image, arg.UpdatedAt, arg.ID,
	))
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, updatedAt, id)
	return err
}

const markUserVerified = `UPDATE users SET email_verified_at = ?, updated_at = ? WHERE id = ?`

// MarkUserVerified records email verification.
func (q *Queries) MarkUserVerified(ctx context.Context, id int64, verifiedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markUserVerified, verifiedAt, verifiedAt, id)
	return err
}

const touchUserLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// TouchUserLogin records a successful login time.
func (q *Queries) TouchUserLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, touchUserLogin, at, id)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user. Callers must enforce last-admin protection first.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

// ListUsersParams filters and paginates ListUsers.
type ListUsersParams struct {
	Search string // matches name or email, empty for all
	Role   string // empty for all roles
	Limit  int64
	Offset int64
}

const listUsers = `
SELECT ` + userColumns + ` FROM users
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR email LIKE '%' || ?1 || '%')
  AND (?2 = '' OR role = ?2)
ORDER BY created_at DESC
LIMIT ?3 OFFSET ?4`

// ListUsers returns users matching the filter, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Search, arg.Role, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const countUsers = `
SELECT COUNT(*) FROM users
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR email LIKE '%' || ?1 || '%')
  AND (?2 = '' OR role = ?2)`

// CountUsers returns the total matching ListUsers without pagination.
func (q *Queries) CountUsers(ctx context.Context, search, role string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers, search, role).Scan(&n)
	return n, err
}

const countAdmins = `SELECT COUNT(*) FROM users WHERE role = 'admin'`

// CountAdmins returns the number of admin users.
func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countAdmins).Scan(&n)
	return n, err
}

const grantBook = `INSERT OR IGNORE INTO book_grants (user_id, book_id, granted_at) VALUES (?, ?, ?)`

// GrantBook records a purchase grant for a premium book.
func (q *Queries) GrantBook(ctx context.Context, userID, bookID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, grantBook, userID, bookID, at)
	return err
}

const hasBookGrant = `SELECT COUNT(*) FROM book_grants WHERE user_id = ? AND book_id = ?`

// HasBookGrant reports whether the user holds a grant for the book.
func (q *Queries) HasBookGrant(ctx context.Context, userID, bookID int64) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, hasBookGrant, userID, bookID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
