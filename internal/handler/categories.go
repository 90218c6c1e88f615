// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/cache"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/util"
)

// CategoryHandler handles admin management of book and blog categories.
type CategoryHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	catalog  *cache.CatalogCache
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(db *sql.DB, renderer *render.Renderer, catalog *cache.CatalogCache) *CategoryHandler {
	return &CategoryHandler{
		queries:  store.New(db),
		renderer: renderer,
		catalog:  catalog,
	}
}

// List renders both category lists on a single admin page.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}
	blogCategories, err := h.queries.ListBlogCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list blog categories", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/categories", render.TemplateData{
		Title: "Categories",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Categories":     categories,
			"BlogCategories": blogCategories,
		},
	})
}

// Create handles the book category creation form.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	name, slug, errMsg := h.categoryFormValues(r, "")
	if errMsg != "" {
		flashError(w, r, h.renderer, redirectAdminCategories, errMsg)
		return
	}

	now := time.Now()
	if _, err := h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.FormValue("description")),
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		slog.Error("failed to create category", "error", err)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to create category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category created")
}

// Update handles the book category edit form.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	category, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCategories, "Category", id,
		func(id int64) (model.Category, error) { return h.queries.GetCategoryByID(r.Context(), id) })
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	name, slug, errMsg := h.categoryFormValues(r, category.Slug)
	if errMsg != "" {
		flashError(w, r, h.renderer, redirectAdminCategories, errMsg)
		return
	}

	if err := h.queries.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		ID:          id,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(r.FormValue("description")),
		UpdatedAt:   time.Now(),
	}); err != nil {
		slog.Error("failed to update category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to update category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category updated")
}

// Delete removes an empty book category. Categories still referenced by
// books are kept.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	count, err := h.queries.CountBooksInCategory(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to count books in category", "error", err)
		return
	}
	if count > 0 {
		flashError(w, r, h.renderer, redirectAdminCategories,
			fmt.Sprintf("Cannot delete: %d books still use this category", count))
		return
	}

	if err := h.queries.DeleteCategory(r.Context(), id); err != nil {
		slog.Error("failed to delete category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to delete category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted")
}

// CreateBlogCategory handles the blog category creation form.
func (h *CategoryHandler) CreateBlogCategory(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	name, slug, errMsg := h.blogCategoryFormValues(r, "")
	if errMsg != "" {
		flashError(w, r, h.renderer, redirectAdminCategories, errMsg)
		return
	}

	if _, err := h.queries.CreateBlogCategory(r.Context(), name, slug, time.Now()); err != nil {
		slog.Error("failed to create blog category", "error", err)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to create blog category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Blog category created")
}

// UpdateBlogCategory handles the blog category edit form.
func (h *CategoryHandler) UpdateBlogCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	category, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCategories, "Blog category", id,
		func(id int64) (model.BlogCategory, error) { return h.queries.GetBlogCategoryByID(r.Context(), id) })
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	name, slug, errMsg := h.blogCategoryFormValues(r, category.Slug)
	if errMsg != "" {
		flashError(w, r, h.renderer, redirectAdminCategories, errMsg)
		return
	}

	if err := h.queries.UpdateBlogCategory(r.Context(), id, name, slug, time.Now()); err != nil {
		slog.Error("failed to update blog category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to update blog category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Blog category updated")
}

// DeleteBlogCategory removes an empty blog category.
func (h *CategoryHandler) DeleteBlogCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	count, err := h.queries.CountBlogsInCategory(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to count blogs in category", "error", err)
		return
	}
	if count > 0 {
		flashError(w, r, h.renderer, redirectAdminCategories,
			fmt.Sprintf("Cannot delete: %d posts still use this category", count))
		return
	}

	if err := h.queries.DeleteBlogCategory(r.Context(), id); err != nil {
		slog.Error("failed to delete blog category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, "Failed to delete blog category")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Blog category deleted")
}

// categoryFormValues validates name and slug from a category form. currentSlug
// is the stored slug on update, empty on create.
func (h *CategoryHandler) categoryFormValues(r *http.Request, currentSlug string) (name, slug, errMsg string) {
	name = strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return "", "", "Name is required"
	}

	slug = strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		slug = util.Slugify(name)
	}
	if msg := ValidateSlugForUpdate(slug, currentSlug, func() (bool, error) {
		_, err := h.queries.GetCategoryBySlug(r.Context(), slug)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	}); msg != "" {
		return "", "", msg
	}
	return name, slug, ""
}

func (h *CategoryHandler) blogCategoryFormValues(r *http.Request, currentSlug string) (name, slug, errMsg string) {
	name = strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return "", "", "Name is required"
	}

	slug = strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		slug = util.Slugify(name)
	}
	if msg := ValidateSlugForUpdate(slug, currentSlug, func() (bool, error) {
		_, err := h.queries.GetBlogCategoryBySlug(r.Context(), slug)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	}); msg != "" {
		return "", "", msg
	}
	return name, slug, ""
}

func (h *CategoryHandler) invalidateCatalog(r *http.Request) {
	if err := h.catalog.Invalidate(r.Context()); err != nil {
		slog.Error("failed to invalidate catalog cache", "error", err)
	}
}
