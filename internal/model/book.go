// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Book represents a catalog entry. Free books are downloadable by any
// signed-in reader; premium books require a purchase grant or admin role.
type Book struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	AmazonLink  string         `json:"amazon_link,omitempty"`
	CoverImage  string         `json:"cover_image,omitempty"`
	BookFile    string         `json:"-"` // Storage key, served via signed URLs only
	AudioFile   string         `json:"-"`
	IsFree      bool           `json:"is_free"`
	IsPremium   bool           `json:"is_premium"`
	IsFeatured  bool           `json:"is_featured"`
	IsPublished bool           `json:"is_published"`
	CategoryID  sql.NullInt64  `json:"category_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Populated by list/detail queries, not stored on the row.
	CategoryName sql.NullString `json:"category_name,omitempty"`
	CategorySlug sql.NullString `json:"category_slug,omitempty"`
}

// HasPDF returns true if a book file has been uploaded.
func (b *Book) HasPDF() bool {
	return b.BookFile != ""
}

// HasAudio returns true if an audiobook file has been uploaded.
func (b *Book) HasAudio() bool {
	return b.AudioFile != ""
}

// Category groups books.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	BookCount int64 `json:"book_count,omitempty"`
}

// Comment is a reader comment on a book.
type Comment struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserName string `json:"user_name,omitempty"`
}

// Download kinds recorded in the audit trail.
const (
	DownloadKindPDF   = "pdf"
	DownloadKindAudio = "audio"
)

// Download records a single book file download.
type Download struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	BookID    int64          `json:"book_id"`
	Kind      string         `json:"kind"`
	IPAddress string         `json:"ip_address,omitempty"`
	Country   string         `json:"country,omitempty"`
	Browser   string         `json:"browser,omitempty"`
	OS        string         `json:"os,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	BookTitle sql.NullString `json:"book_title,omitempty"`
}
