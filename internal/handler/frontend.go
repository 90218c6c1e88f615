// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sophiabent/bookhaven/internal/cache"
	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/seo"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/uikit"
)

// FrontendHandler serves the public site: homepage, book catalog, and blog.
type FrontendHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	catalog  *cache.CatalogCache
	site     *seo.SiteConfig
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(db *sql.DB, renderer *render.Renderer, catalog *cache.CatalogCache, cfg *config.Config) *FrontendHandler {
	return &FrontendHandler{
		queries:  store.New(db),
		renderer: renderer,
		catalog:  catalog,
		site: &seo.SiteConfig{
			SiteName: cfg.SiteName,
			SiteURL:  cfg.BaseURL,
		},
	}
}

// Home renders the homepage with featured books and blog posts.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.FeaturedBooks(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load featured books", "error", err)
		return
	}
	blogs, err := h.catalog.FeaturedBlogs(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load featured blogs", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "site/home", render.TemplateData{
		Title: "Home",
		Meta:  seo.BuildMeta(nil, h.site),
		Data: map[string]any{
			"FeaturedBooks": books,
			"FeaturedBlogs": blogs,
		},
	})
}

// Books renders the public book listing with filters and pagination.
func (h *FrontendHandler) Books(w http.ResponseWriter, r *http.Request) {
	lq := parseListQuery(r)

	params := store.ListBooksParams{
		PublishedOnly: true,
		CategorySlug:  lq.Category,
		Search:        lq.Search,
		IsFree:        parseBoolFilter(r, "isFree"),
		IsPremium:     parseBoolFilter(r, "isPremium"),
		IsFeatured:    parseBoolFilter(r, "isFeatured"),
		Limit:         lq.Limit,
		Offset:        lq.Offset,
	}

	books, err := h.queries.ListBooks(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to list books", "error", err)
		return
	}
	total, err := h.queries.CountBooks(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to count books", "error", err)
		return
	}
	categories, err := h.catalog.BookCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load categories", "error", err)
		return
	}

	pagination := uikit.BuildPagination(int(lq.Page), total, int(lq.Limit), RouteBooks, r.URL.Query())

	h.renderer.RenderPage(w, r, "site/books", render.TemplateData{
		Title:      "Books",
		Pagination: &pagination,
		Data: map[string]any{
			"Books":          books,
			"Categories":     categories,
			"ActiveCategory": lq.Category,
			"Search":         lq.Search,
		},
	})
}

// BookDetail renders a published book's page with its comments.
func (h *FrontendHandler) BookDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	book, err := h.queries.GetBookBySlug(r.Context(), slug)
	if err != nil || !book.IsPublished {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to load book", "error", err, "slug", slug)
			return
		}
		http.NotFound(w, r)
		return
	}

	comments, err := h.queries.ListCommentsByBook(r.Context(), book.ID)
	if err != nil {
		logAndInternalError(w, "failed to load comments", "error", err, "book_id", book.ID)
		return
	}

	meta := seo.BuildMeta(&seo.PageData{
		Title:         book.Title,
		Body:          book.Description,
		FeaturedImage: book.CoverImage,
		CanonicalURL:  h.site.SiteURL + "/books/" + book.Slug,
	}, h.site)
	meta.JSONLD = seo.BuildBookSchema(&book, h.site)

	h.renderer.RenderPage(w, r, "site/book_detail", render.TemplateData{
		Title:       book.Title,
		Description: book.Description,
		Breadcrumbs: []uikit.Breadcrumb{
			{Label: "Books", URL: RouteBooks},
			{Label: book.Title, Active: true},
		},
		Meta: meta,
		Data: map[string]any{
			"Book":     book,
			"Comments": comments,
		},
	})
}

// Blogs renders the public blog listing.
func (h *FrontendHandler) Blogs(w http.ResponseWriter, r *http.Request) {
	lq := parseListQuery(r)

	params := store.ListBlogsParams{
		PublishedOnly: true,
		CategorySlug:  lq.Category,
		Search:        lq.Search,
		IsFeatured:    parseBoolFilter(r, "isFeatured"),
		IsPremium:     parseBoolFilter(r, "isPremium"),
		Limit:         lq.Limit,
		Offset:        lq.Offset,
	}

	blogs, err := h.queries.ListBlogs(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to list blogs", "error", err)
		return
	}
	total, err := h.queries.CountBlogs(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to count blogs", "error", err)
		return
	}
	categories, err := h.catalog.BlogCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load blog categories", "error", err)
		return
	}

	pagination := uikit.BuildPagination(int(lq.Page), total, int(lq.Limit), RouteBlog, r.URL.Query())

	h.renderer.RenderPage(w, r, "site/blogs", render.TemplateData{
		Title:      "Blog",
		Pagination: &pagination,
		Data: map[string]any{
			"Blogs":          blogs,
			"Categories":     categories,
			"ActiveCategory": lq.Category,
			"Search":         lq.Search,
		},
	})
}

// BlogDetail renders a published post. Markdown content is rendered to
// sanitized HTML by the template's markdown func.
func (h *FrontendHandler) BlogDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.queries.GetBlogBySlug(r.Context(), slug)
	if err != nil || !blog.IsPublished {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to load blog", "error", err, "slug", slug)
			return
		}
		http.NotFound(w, r)
		return
	}

	meta := seo.BuildMeta(&seo.PageData{
		Title:         blog.Title,
		Body:          blog.Content,
		FeaturedImage: blog.FeaturedImage,
		CanonicalURL:  h.site.SiteURL + "/blog/" + blog.Slug,
	}, h.site)
	meta.JSONLD = seo.BuildBlogSchema(&blog, h.site)

	h.renderer.RenderPage(w, r, "site/blog_detail", render.TemplateData{
		Title: blog.Title,
		Breadcrumbs: []uikit.Breadcrumb{
			{Label: "Blog", URL: RouteBlog},
			{Label: blog.Title, Active: true},
		},
		Meta: meta,
		Data: map[string]any{
			"Blog": blog,
		},
	})
}

// Contact renders the contact form page.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "site/contact", render.TemplateData{
		Title: "Contact",
	})
}
