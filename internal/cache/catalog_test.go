package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophiabent/bookhaven/internal/store"
)

func catalogTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestBook(t *testing.T, db *sql.DB, title, slug string, featured, published bool) int64 {
	t.Helper()
	now := time.Now()
	id, err := store.New(db).CreateBook(context.Background(), store.CreateBookParams{
		Title:       title,
		Slug:        slug,
		IsFree:      true,
		IsFeatured:  featured,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	return id
}

func TestCatalogCache_FeaturedBooks(t *testing.T) {
	db := catalogTestDB(t)
	backend := NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = backend.Close() })
	catalog := NewCatalogCache(db, backend, time.Minute)
	ctx := context.Background()

	createTestBook(t, db, "Featured One", "featured-one", true, true)
	createTestBook(t, db, "Plain", "plain", false, true)
	createTestBook(t, db, "Featured Draft", "featured-draft", true, false)

	books, err := catalog.FeaturedBooks(ctx)
	if err != nil {
		t.Fatalf("FeaturedBooks: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 featured published book, got %d", len(books))
	}
	if books[0].Slug != "featured-one" {
		t.Errorf("unexpected book %q", books[0].Slug)
	}

	// Second read comes from cache: a new book is invisible until invalidation
	createTestBook(t, db, "Featured Two", "featured-two", true, true)
	books, err = catalog.FeaturedBooks(ctx)
	if err != nil {
		t.Fatalf("FeaturedBooks: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected cached result with 1 book, got %d", len(books))
	}

	if err := catalog.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	books, err = catalog.FeaturedBooks(ctx)
	if err != nil {
		t.Fatalf("FeaturedBooks: %v", err)
	}
	if len(books) != 2 {
		t.Errorf("expected 2 books after invalidation, got %d", len(books))
	}
}

func TestCatalogCache_BookCategories(t *testing.T) {
	db := catalogTestDB(t)
	backend := NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = backend.Close() })
	catalog := NewCatalogCache(db, backend, time.Minute)
	ctx := context.Background()

	now := time.Now()
	if _, err := store.New(db).CreateCategory(ctx, store.CreateCategoryParams{
		Name:      "Fiction",
		Slug:      "fiction",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	cats, err := catalog.BookCategories(ctx)
	if err != nil {
		t.Fatalf("BookCategories: %v", err)
	}
	if len(cats) != 1 || cats[0].Slug != "fiction" {
		t.Errorf("unexpected categories %+v", cats)
	}
}
