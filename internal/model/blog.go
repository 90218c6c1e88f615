// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Blog represents a blog post. Content is stored as Markdown and rendered
// to sanitized HTML on output.
type Blog struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Content       string        `json:"content"`
	FeaturedImage string        `json:"featured_image,omitempty"`
	IsFeatured    bool          `json:"is_featured"`
	IsPremium     bool          `json:"is_premium"`
	IsPublished   bool          `json:"is_published"`
	CategoryID    sql.NullInt64 `json:"category_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	CategoryName sql.NullString `json:"category_name,omitempty"`
	CategorySlug sql.NullString `json:"category_slug,omitempty"`
}

// BlogCategory groups blog posts. Kept separate from book categories so the
// two taxonomies can evolve independently.
type BlogCategory struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BlogCount int64 `json:"blog_count,omitempty"`
}
