// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const getCommentByID = `
SELECT c.id, c.book_id, c.user_id, c.content, c.created_at, c.updated_at, u.name
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.id = ?`

// GetCommentByID returns a comment with its author name.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRowContext(ctx, getCommentByID, id).Scan(
		&c.ID, &c.BookID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.UserName,
	)
	return c, err
}

const createComment = `
INSERT INTO comments (book_id, user_id, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

// CreateComment inserts a comment and returns its ID.
func (q *Queries) CreateComment(ctx context.Context, bookID, userID int64, content string, now time.Time) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createComment, bookID, userID, content, now, now).Scan(&id)
	return id, err
}

const deleteComment = `DELETE FROM comments WHERE id = ?`

// DeleteComment removes a comment. Callers enforce owner-or-admin.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteComment, id)
	return err
}

const listCommentsByBook = `
SELECT c.id, c.book_id, c.user_id, c.content, c.created_at, c.updated_at, u.name
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.book_id = ?
ORDER BY c.created_at DESC`

// ListCommentsByBook returns all comments for a book, newest first.
func (q *Queries) ListCommentsByBook(ctx context.Context, bookID int64) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsByBook, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.BookID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.UserName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
