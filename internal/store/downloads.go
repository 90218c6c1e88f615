// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

// CreateDownloadParams holds the fields for CreateDownload.
type CreateDownloadParams struct {
	UserID    int64
	BookID    int64
	Kind      string
	IPAddress string
	Country   string
	Browser   string
	OS        string
	CreatedAt time.Time
}

const createDownload = `
INSERT INTO downloads (user_id, book_id, kind, ip_address, country, browser, os, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// CreateDownload records a book file download.
func (q *Queries) CreateDownload(ctx context.Context, arg CreateDownloadParams) error {
	_, err := q.db.ExecContext(ctx, createDownload,
		arg.UserID, arg.BookID, arg.Kind, arg.IPAddress, arg.Country,
		arg.Browser, arg.OS, arg.CreatedAt,
	)
	return err
}

const listDownloadsByUser = `
SELECT d.id, d.user_id, d.book_id, d.kind, d.ip_address, d.country, d.browser, d.os, d.created_at, b.title
FROM downloads d
LEFT JOIN books b ON b.id = d.book_id
WHERE d.user_id = ?
ORDER BY d.created_at DESC
LIMIT ?`

// ListDownloadsByUser returns a user's recent downloads with book titles.
func (q *Queries) ListDownloadsByUser(ctx context.Context, userID, limit int64) ([]model.Download, error) {
	rows, err := q.db.QueryContext(ctx, listDownloadsByUser, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []model.Download
	for rows.Next() {
		var d model.Download
		if err := rows.Scan(&d.ID, &d.UserID, &d.BookID, &d.Kind, &d.IPAddress, &d.Country, &d.Browser, &d.OS, &d.CreatedAt, &d.BookTitle); err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

const countDownloadsByBook = `SELECT COUNT(*) FROM downloads WHERE book_id = ?`

// CountDownloadsByBook returns total downloads recorded for a book.
func (q *Queries) CountDownloadsByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countDownloadsByBook, bookID).Scan(&n)
	return n, err
}
