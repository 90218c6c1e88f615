// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/seo"
	"github.com/sophiabent/bookhaven/internal/store"
)

// sitemapMaxEntries caps each catalog section in the sitemap.
const sitemapMaxEntries = 5000

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	queries *store.Queries
	cfg     *config.Config
}

// NewSEOHandler creates a new SEOHandler.
func NewSEOHandler(db *sql.DB, cfg *config.Config) *SEOHandler {
	return &SEOHandler{
		queries: store.New(db),
		cfg:     cfg,
	}
}

// Sitemap handles GET /sitemap.xml with the published catalog.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	books, err := h.queries.ListBooks(r.Context(), store.ListBooksParams{
		PublishedOnly: true,
		Limit:         sitemapMaxEntries,
	})
	if err != nil {
		logAndInternalError(w, "failed to list books for sitemap", "error", err)
		return
	}
	blogs, err := h.queries.ListBlogs(r.Context(), store.ListBlogsParams{
		PublishedOnly: true,
		Limit:         sitemapMaxEntries,
	})
	if err != nil {
		logAndInternalError(w, "failed to list blogs for sitemap", "error", err)
		return
	}

	bookEntries := make([]seo.SitemapEntry, 0, len(books))
	for _, b := range books {
		bookEntries = append(bookEntries, seo.SitemapEntry{Slug: b.Slug, UpdatedAt: b.UpdatedAt})
	}
	blogEntries := make([]seo.SitemapEntry, 0, len(blogs))
	for _, b := range blogs {
		blogEntries = append(blogEntries, seo.SitemapEntry{Slug: b.Slug, UpdatedAt: b.UpdatedAt})
	}

	data, err := seo.GenerateSitemap(h.cfg.BaseURL, bookEntries, blogEntries)
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

// Robots handles GET /robots.txt. Development deployments block all
// crawlers.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	content := seo.GenerateRobots(h.cfg.BaseURL, h.cfg.IsDevelopment(), "")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// SecurityTxt handles GET /.well-known/security.txt (RFC 9116). Served only
// when a contact email is configured.
func (h *SEOHandler) SecurityTxt(w http.ResponseWriter, r *http.Request) {
	if h.cfg.ContactEmail == "" {
		http.NotFound(w, r)
		return
	}
	content := seo.GenerateSecurityTxt("mailto:"+h.cfg.ContactEmail, h.cfg.BaseURL, time.Now().AddDate(1, 0, 0))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}
