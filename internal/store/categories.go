// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const getCategoryByID = `
SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE id = ?`

// GetCategoryByID returns a book category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx, getCategoryByID, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getCategoryBySlug = `
SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE slug = ?`

// GetCategoryBySlug returns a book category by slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx, getCategoryBySlug, slug).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// CreateCategoryParams holds the fields for CreateCategory.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createCategory = `
INSERT INTO categories (name, slug, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, slug, description, created_at, updated_at`

// CreateCategory inserts a book category.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx, createCategory,
		arg.Name, arg.Slug, arg.Description, arg.CreatedAt, arg.UpdatedAt,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// UpdateCategoryParams holds the fields for UpdateCategory.
type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	UpdatedAt   time.Time
}

const updateCategory = `
UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ? WHERE id = ?`

// UpdateCategory updates a book category.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) error {
	_, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name, arg.Slug, arg.Description, arg.UpdatedAt, arg.ID,
	)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

// DeleteCategory removes a book category. Callers must first verify no books
// reference it.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const listCategories = `
SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM books b WHERE b.category_id = c.id) AS book_count
FROM categories c
ORDER BY c.name`

// ListCategories returns all book categories ordered by name, with book counts.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.BookCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

const getBlogCategoryByID = `
SELECT id, name, slug, created_at, updated_at FROM blog_categories WHERE id = ?`

// GetBlogCategoryByID returns a blog category by primary key.
func (q *Queries) GetBlogCategoryByID(ctx context.Context, id int64) (model.BlogCategory, error) {
	var c model.BlogCategory
	err := q.db.QueryRowContext(ctx, getBlogCategoryByID, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getBlogCategoryBySlug = `
SELECT id, name, slug, created_at, updated_at FROM blog_categories WHERE slug = ?`

// GetBlogCategoryBySlug returns a blog category by slug.
func (q *Queries) GetBlogCategoryBySlug(ctx context.Context, slug string) (model.BlogCategory, error) {
	var c model.BlogCategory
	err := q.db.QueryRowContext(ctx, getBlogCategoryBySlug, slug).Scan(
		&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const createBlogCategory = `
INSERT INTO blog_categories (name, slug, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, slug, created_at, updated_at`

// CreateBlogCategory inserts a blog category.
func (q *Queries) CreateBlogCategory(ctx context.Context, name, slug string, now time.Time) (model.BlogCategory, error) {
	var c model.BlogCategory
	err := q.db.QueryRowContext(ctx, createBlogCategory, name, slug, now, now).Scan(
		&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const updateBlogCategory = `
UPDATE blog_categories SET name = ?, slug = ?, updated_at = ? WHERE id = ?`

// UpdateBlogCategory updates a blog category.
func (q *Queries) UpdateBlogCategory(ctx context.Context, id int64, name, slug string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, updateBlogCategory, name, slug, now, id)
	return err
}

const deleteBlogCategory = `DELETE FROM blog_categories WHERE id = ?`

// DeleteBlogCategory removes a blog category. Callers must first verify no
// posts reference it.
func (q *Queries) DeleteBlogCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteBlogCategory, id)
	return err
}

const listBlogCategories = `
SELECT c.id, c.name, c.slug, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM blogs b WHERE b.category_id = c.id) AS blog_count
FROM blog_categories c
ORDER BY c.name`

// ListBlogCategories returns all blog categories ordered by name.
func (q *Queries) ListBlogCategories(ctx context.Context) ([]model.BlogCategory, error) {
	rows, err := q.db.QueryContext(ctx, listBlogCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.BlogCategory
	for rows.Next() {
		var c model.BlogCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.BlogCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

const countBlogsInCategory = `SELECT COUNT(*) FROM blogs WHERE category_id = ?`

// CountBlogsInCategory returns how many posts reference a blog category.
func (q *Queries) CountBlogsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBlogsInCategory, categoryID).Scan(&n)
	return n, err
}
