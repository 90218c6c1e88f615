// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const bookColumns = `b.id, b.title, b.slug, b.description, b.price, b.amazon_link, b.cover_image,
	b.book_file, b.audio_file, b.is_free, b.is_premium, b.is_featured, b.is_published,
	b.category_id, b.created_at, b.updated_at, c.name, c.slug`

func scanBook(row interface{ Scan(...interface{}) error }) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Description, &b.Price, &b.AmazonLink, &b.CoverImage,
		&b.BookFile, &b.AudioFile, &b.IsFree, &b.IsPremium, &b.IsFeatured, &b.IsPublished,
		&b.CategoryID, &b.CreatedAt, &b.UpdatedAt, &b.CategoryName, &b.CategorySlug,
	)
	return b, err
}

const getBookByID = `
SELECT ` + bookColumns + ` FROM books b
LEFT JOIN categories c ON c.id = b.category_id
WHERE b.id = ?`

// GetBookByID returns a book by primary key, drafts included.
func (q *Queries) GetBookByID(ctx context.Context, id int64) (model.Book, error) {
	return scanBook(q.db.QueryRowContext(ctx, getBookByID, id))
}

const getBookBySlug = `
SELECT ` + bookColumns + ` FROM books b
LEFT JOIN categories c ON c.id = b.category_id
WHERE b.slug = ?`

// GetBookBySlug returns a book by slug, drafts included. Public handlers
// must additionally check IsPublished.
func (q *Queries) GetBookBySlug(ctx context.Context, slug string) (model.Book, error) {
	return scanBook(q.db.QueryRowContext(ctx, getBookBySlug, slug))
}

// CreateBookParams holds the fields for CreateBook.
type CreateBookParams struct {
	Title       string
	Slug        string
	Description string
	Price       float64
	AmazonLink  string
	CoverImage  string
	BookFile    string
	AudioFile   string
	IsFree      bool
	IsPremium   bool
	IsFeatured  bool
	IsPublished bool
	CategoryID  sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createBook = `
INSERT INTO books (title, slug, description, price, amazon_link, cover_image, book_file,
	audio_file, is_free, is_premium, is_featured, is_published, category_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateBook inserts a book and returns its ID.
func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createBook,
		arg.Title, arg.Slug, arg.Description, arg.Price, arg.AmazonLink, arg.CoverImage,
		arg.BookFile, arg.AudioFile, arg.IsFree, arg.IsPremium, arg.IsFeatured,
		arg.IsPublished, arg.CategoryID, arg.CreatedAt, arg.UpdatedAt,
	).Scan(&id)
	return id, err
}

// UpdateBookParams holds the fields for UpdateBook.
type UpdateBookParams struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	Price       float64
	AmazonLink  string
	CoverImage  string
	BookFile    string
	AudioFile   string
	IsFree      bool
	IsPremium   bool
	IsFeatured  bool
	IsPublished bool
	CategoryID  sql.NullInt64
	UpdatedAt   time.Time
}

const updateBook = `
UPDATE books SET title = ?, slug = ?, description = ?, price = ?, amazon_link = ?,
	cover_image = ?, book_file = ?, audio_file = ?, is_free = ?, is_premium = ?,
	is_featured = ?, is_published = ?, category_id = ?, updated_at = ?
WHERE id = ?`

// UpdateBook updates all mutable book fields.
func (q *Queries) UpdateBook(ctx context.Context, arg UpdateBookParams) error {
	_, err := q.db.ExecContext(ctx, updateBook,
		arg.Title, arg.Slug, arg.Description, arg.Price, arg.AmazonLink,
		arg.CoverImage, arg.BookFile, arg.AudioFile, arg.IsFree, arg.IsPremium,
		arg.IsFeatured, arg.IsPublished, arg.CategoryID, arg.UpdatedAt, arg.ID,
	)
	return err
}

const deleteBook = `DELETE FROM books WHERE id = ?`

// DeleteBook removes a book; comments and downloads cascade.
func (q *Queries) DeleteBook(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteBook, id)
	return err
}

// ListBooksParams filters and paginates ListBooks. Tri-state flags use
// sql.NullBool so "unset" means "no filter".
type ListBooksParams struct {
	PublishedOnly bool
	CategorySlug  string
	Search        string
	IsFree        sql.NullBool
	IsPremium     sql.NullBool
	IsFeatured    sql.NullBool
	Limit         int64
	Offset        int64
}

const listBooks = `
SELECT ` + bookColumns + ` FROM books b
LEFT JOIN categories c ON c.id = b.category_id
WHERE (?1 = 0 OR b.is_published = 1)
  AND (?2 = '' OR c.slug = ?2)
  AND (?3 = '' OR b.title LIKE '%' || ?3 || '%' OR b.description LIKE '%' || ?3 || '%')
  AND (?4 IS NULL OR b.is_free = ?4)
  AND (?5 IS NULL OR b.is_premium = ?5)
  AND (?6 IS NULL OR b.is_featured = ?6)
ORDER BY b.created_at DESC
LIMIT ?7 OFFSET ?8`

// ListBooks returns books matching the filter, newest first.
func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]model.Book, error) {
	rows, err := q.db.QueryContext(ctx, listBooks,
		arg.PublishedOnly, arg.CategorySlug, arg.Search,
		arg.IsFree, arg.IsPremium, arg.IsFeatured, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

const countBooks = `
SELECT COUNT(*) FROM books b
LEFT JOIN categories c ON c.id = b.category_id
WHERE (?1 = 0 OR b.is_published = 1)
  AND (?2 = '' OR c.slug = ?2)
  AND (?3 = '' OR b.title LIKE '%' || ?3 || '%' OR b.description LIKE '%' || ?3 || '%')
  AND (?4 IS NULL OR b.is_free = ?4)
  AND (?5 IS NULL OR b.is_premium = ?5)
  AND (?6 IS NULL OR b.is_featured = ?6)`

// CountBooks returns the total matching ListBooks without pagination.
func (q *Queries) CountBooks(ctx context.Context, arg ListBooksParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBooks,
		arg.PublishedOnly, arg.CategorySlug, arg.Search,
		arg.IsFree, arg.IsPremium, arg.IsFeatured,
	).Scan(&n)
	return n, err
}

const countBooksInCategory = `SELECT COUNT(*) FROM books WHERE category_id = ?`

// CountBooksInCategory returns how many books reference a category.
func (q *Queries) CountBooksInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBooksInCategory, categoryID).Scan(&n)
	return n, err
}

const bookSlugExists = `SELECT COUNT(*) FROM books WHERE slug = ? AND id != ?`

// BookSlugExists reports whether slug is taken by a book other than excludeID.
func (q *Queries) BookSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, bookSlugExists, slug, excludeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
