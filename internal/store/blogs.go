// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const blogColumns = `b.id, b.title, b.slug, b.content, b.featured_image, b.is_featured,
	b.is_premium, b.is_published, b.category_id, b.created_at, b.updated_at, c.name, c.slug`

func scanBlog(row interface{ Scan(...interface{}) error }) (model.Blog, error) {
	var b model.Blog
	err := row.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Content, &b.FeaturedImage, &b.IsFeatured,
		&b.IsPremium, &b.IsPublished, &b.CategoryID, &b.CreatedAt, &b.UpdatedAt,
		&b.CategoryName, &b.CategorySlug,
	)
	return b, err
}

const getBlogByID = `
SELECT ` + blogColumns + ` FROM blogs b
LEFT JOIN blog_categories c ON c.id = b.category_id
WHERE b.id = ?`

// GetBlogByID returns a post by primary key, drafts included.
func (q *Queries) GetBlogByID(ctx context.Context, id int64) (model.Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlogByID, id))
}

const getBlogBySlug = `
SELECT ` + blogColumns + ` FROM blogs b
LEFT JOIN blog_categories c ON c.id = b.category_id
WHERE b.slug = ?`

// GetBlogBySlug returns a post by slug, drafts included.
func (q *Queries) GetBlogBySlug(ctx context.Context, slug string) (model.Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlogBySlug, slug))
}

// CreateBlogParams holds the fields for CreateBlog.
type CreateBlogParams struct {
	Title         string
	Slug          string
	Content       string
	FeaturedImage string
	IsFeatured    bool
	IsPremium     bool
	IsPublished   bool
	CategoryID    sql.NullInt64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createBlog = `
INSERT INTO blogs (title, slug, content, featured_image, is_featured, is_premium,
	is_published, category_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateBlog inserts a post and returns its ID.
func (q *Queries) CreateBlog(ctx context.Context, arg CreateBlogParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createBlog,
		arg.Title, arg.Slug, arg.Content, arg.FeaturedImage, arg.IsFeatured,
		arg.IsPremium, arg.IsPublished, arg.CategoryID, arg.CreatedAt, arg.UpdatedAt,
	).Scan(&id)
	return id, err
}

// UpdateBlogParams holds the fields for UpdateBlog.
type UpdateBlogParams struct {
	ID            int64
	Title         string
	Slug          string
	Content       string
	FeaturedImage string
	IsFeatured    bool
	IsPremium     bool
	IsPublished   bool
	CategoryID    sql.NullInt64
	UpdatedAt     time.Time
}

const updateBlog = `
UPDATE blogs SET title = ?, slug = ?, content = ?, featured_image = ?, is_featured = ?,
	is_premium = ?, is_published = ?, category_id = ?, updated_at = ?
WHERE id = ?`

// UpdateBlog updates all mutable post fields.
func (q *Queries) UpdateBlog(ctx context.Context, arg UpdateBlogParams) error {
	_, err := q.db.ExecContext(ctx, updateBlog,
		arg.Title, arg.Slug, arg.Content, arg.FeaturedImage, arg.IsFeatured,
		arg.IsPremium, arg.IsPublished, arg.CategoryID, arg.UpdatedAt, arg.ID,
	)
	return err
}

const deleteBlog = `DELETE FROM blogs WHERE id = ?`

// DeleteBlog removes a post.
func (q *Queries) DeleteBlog(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteBlog, id)
	return err
}

// ListBlogsParams filters and paginates ListBlogs.
type ListBlogsParams struct {
	PublishedOnly bool
	CategorySlug  string
	Search        string
	IsFeatured    sql.NullBool
	IsPremium     sql.NullBool
	Limit         int64
	Offset        int64
}

const listBlogs = `
SELECT ` + blogColumns + ` FROM blogs b
LEFT JOIN blog_categories c ON c.id = b.category_id
WHERE (?1 = 0 OR b.is_published = 1)
  AND (?2 = '' OR c.slug = ?2)
  AND (?3 = '' OR b.title LIKE '%' || ?3 || '%' OR b.content LIKE '%' || ?3 || '%')
  AND (?4 IS NULL OR b.is_featured = ?4)
  AND (?5 IS NULL OR b.is_premium = ?5)
ORDER BY b.created_at DESC
LIMIT ?6 OFFSET ?7`

// ListBlogs returns posts matching the filter, newest first.
func (q *Queries) ListBlogs(ctx context.Context, arg ListBlogsParams) ([]model.Blog, error) {
	rows, err := q.db.QueryContext(ctx, listBlogs,
		arg.PublishedOnly, arg.CategorySlug, arg.Search,
		arg.IsFeatured, arg.IsPremium, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []model.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

const countBlogs = `
SELECT COUNT(*) FROM blogs b
LEFT JOIN blog_categories c ON c.id = b.category_id
WHERE (?1 = 0 OR b.is_published = 1)
  AND (?2 = '' OR c.slug = ?2)
  AND (?3 = '' OR b.title LIKE '%' || ?3 || '%' OR b.content LIKE '%' || ?3 || '%')
  AND (?4 IS NULL OR b.is_featured = ?4)
  AND (?5 IS NULL OR b.is_premium = ?5)`

// CountBlogs returns the total matching ListBlogs without pagination.
func (q *Queries) CountBlogs(ctx context.Context, arg ListBlogsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBlogs,
		arg.PublishedOnly, arg.CategorySlug, arg.Search,
		arg.IsFeatured, arg.IsPremium,
	).Scan(&n)
	return n, err
}

const blogSlugExists = `SELECT COUNT(*) FROM blogs WHERE slug = ? AND id != ?`

// BlogSlugExists reports whether slug is taken by a post other than excludeID.
func (q *Queries) BlogSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, blogSlugExists, slug, excludeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
