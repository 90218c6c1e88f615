// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

// APIBooks handles GET /api/books: the authenticated catalog listing.
func (h *BookAPIHandler) APIBooks(w http.ResponseWriter, r *http.Request) {
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
		JSONError(w, http.StatusInternalServerError, "Failed to list books")
		return
	}
	total, err := h.queries.CountBooks(r.Context(), params)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to list books")
		return
	}
	if books == nil {
		books = []model.Book{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"books":      books,
		"pagination": newPageMeta(lq.Page, lq.Limit, total),
	})
}

// APIBookDetail handles GET /api/books/{slug}. Unpublished books are 404
// to keep drafts unobservable.
func (h *BookAPIHandler) APIBookDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	book, err := h.queries.GetBookBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, http.StatusNotFound, "Book not found")
		} else {
			JSONError(w, http.StatusInternalServerError, "Failed to load book")
		}
		return
	}
	if !book.IsPublished {
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	comments, err := h.queries.ListCommentsByBook(r.Context(), book.ID)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to load book")
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"book":     book,
		"comments": comments,
	})
}
