// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

// Cache keys for catalog data. Grouped under one prefix so admin mutations
// can invalidate the whole catalog at once.
const (
	catalogPrefix          = "catalog:"
	keyFeaturedBooks       = catalogPrefix + "books:featured"
	keyFeaturedBlogs       = catalogPrefix + "blogs:featured"
	keyBookCategories      = catalogPrefix + "categories:books"
	keyBlogCategories      = catalogPrefix + "categories:blogs"
	featuredCatalogEntries = 6
)

// CatalogCache serves the public catalog's hot reads (homepage featured
// sections and category lists) from cache. Admin writes invalidate it, so a
// short TTL is only a backstop.
type CatalogCache struct {
	backend    Cacher
	queries    *store.Queries
	books      *TypedCache[[]model.Book]
	blogs      *TypedCache[[]model.Blog]
	categories *TypedCache[[]model.Category]
	blogCats   *TypedCache[[]model.BlogCategory]
}

// NewCatalogCache creates a catalog cache on the given backend.
func NewCatalogCache(db *sql.DB, backend Cacher, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		backend:    backend,
		queries:    store.New(db),
		books:      NewTypedCache[[]model.Book](backend, ttl),
		blogs:      NewTypedCache[[]model.Blog](backend, ttl),
		categories: NewTypedCache[[]model.Category](backend, ttl),
		blogCats:   NewTypedCache[[]model.BlogCategory](backend, ttl),
	}
}

// FeaturedBooks returns the published featured books, newest first.
func (c *CatalogCache) FeaturedBooks(ctx context.Context) ([]model.Book, error) {
	books, err := c.books.GetOrSet(ctx, keyFeaturedBooks, func() (*[]model.Book, error) {
		list, err := c.queries.ListBooks(ctx, store.ListBooksParams{
			PublishedOnly: true,
			IsFeatured:    sql.NullBool{Bool: true, Valid: true},
			Limit:         featuredCatalogEntries,
		})
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *books, nil
}

// FeaturedBlogs returns the published featured blog posts, newest first.
func (c *CatalogCache) FeaturedBlogs(ctx context.Context) ([]model.Blog, error) {
	blogs, err := c.blogs.GetOrSet(ctx, keyFeaturedBlogs, func() (*[]model.Blog, error) {
		list, err := c.queries.ListBlogs(ctx, store.ListBlogsParams{
			PublishedOnly: true,
			IsFeatured:    sql.NullBool{Bool: true, Valid: true},
			Limit:         featuredCatalogEntries,
		})
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *blogs, nil
}

// BookCategories returns all book categories with their book counts.
func (c *CatalogCache) BookCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := c.categories.GetOrSet(ctx, keyBookCategories, func() (*[]model.Category, error) {
		list, err := c.queries.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *cats, nil
}

// BlogCategories returns all blog categories with their post counts.
func (c *CatalogCache) BlogCategories(ctx context.Context) ([]model.BlogCategory, error) {
	cats, err := c.blogCats.GetOrSet(ctx, keyBlogCategories, func() (*[]model.BlogCategory, error) {
		list, err := c.queries.ListBlogCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *cats, nil
}

// Invalidate drops all cached catalog data. Called after any admin write to
// books, blogs or categories.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if pd, ok := c.backend.(PrefixDeleter); ok {
		return pd.DeleteByPrefix(ctx, catalogPrefix)
	}
	for _, key := range []string{keyFeaturedBooks, keyFeaturedBlogs, keyBookCategories, keyBlogCategories} {
		if err := c.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
