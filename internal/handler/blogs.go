// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/cache"
	"github.com/sophiabent/bookhaven/internal/imaging"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/storage"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/uikit"
	"github.com/sophiabent/bookhaven/internal/util"
)

// BlogHandler handles admin blog post management.
type BlogHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	catalog      *cache.CatalogCache
	storage      storage.Storage
	eventService *service.EventService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, catalog *cache.CatalogCache, st storage.Storage) *BlogHandler {
	return &BlogHandler{
		queries:      store.New(db),
		renderer:     renderer,
		catalog:      catalog,
		storage:      st,
		eventService: service.NewEventService(db),
	}
}

// List renders the admin blog listing.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	params := store.ListBlogsParams{
		Search: search,
		Limit:  adminPageSize,
		Offset: int64((page - 1) * adminPageSize),
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

	pagination := uikit.BuildAdminPagination(page, int(total), adminPageSize, redirectAdminBlogs, r.URL.Query())

	h.renderer.RenderPage(w, r, "admin/blogs", render.TemplateData{
		Title: "Blog Posts",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Blogs":      blogs,
			"Search":     search,
			"Pagination": pagination,
		},
	})
}

// NewForm renders the blog creation form.
func (h *BlogHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListBlogCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list blog categories", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/blog_form", render.TemplateData{
		Title: "New Post",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Blog":       model.Blog{},
			"Categories": categories,
			"IsNew":      true,
		},
	})
}

// Create handles the blog creation form submission.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	const newURL = redirectAdminBlogs + RouteSuffixNew

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		flashError(w, r, h.renderer, newURL, "Invalid form data")
		return
	}

	form, errMsg := h.parseBlogForm(r, nil)
	if errMsg != "" {
		flashError(w, r, h.renderer, newURL, errMsg)
		return
	}

	now := time.Now()
	id, err := h.queries.CreateBlog(r.Context(), store.CreateBlogParams{
		Title:         form.Title,
		Slug:          form.Slug,
		Content:       form.Content,
		FeaturedImage: form.FeaturedImage,
		IsFeatured:    form.IsFeatured,
		IsPremium:     form.IsPremium,
		IsPublished:   form.IsPublished,
		CategoryID:    form.CategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		slog.Error("failed to create blog", "error", err)
		flashError(w, r, h.renderer, newURL, "Failed to create post")
		return
	}

	h.invalidateCatalog(r)
	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "blog", "Blog post created", userID, clientIP(r),
		map[string]any{"blog_id": id, "title": form.Title})

	flashSuccess(w, r, h.renderer, redirectAdminBlogs, "Post created")
}

// EditForm renders the blog edit form.
func (h *BlogHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBlogs, "Invalid post ID")
		return
	}

	blog, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBlogs, "Post", id,
		func(id int64) (model.Blog, error) { return h.queries.GetBlogByID(r.Context(), id) })
	if !ok {
		return
	}

	categories, err := h.queries.ListBlogCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list blog categories", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/blog_form", render.TemplateData{
		Title: "Edit Post",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Blog":       blog,
			"Categories": categories,
			"IsNew":      false,
		},
	})
}

// Update handles the blog edit form submission.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBlogs, "Invalid post ID")
		return
	}
	editURL := redirectAdminBlogs + "/" + strconv.FormatInt(id, 10) + "/edit"

	blog, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBlogs, "Post", id,
		func(id int64) (model.Blog, error) { return h.queries.GetBlogByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		flashError(w, r, h.renderer, editURL, "Invalid form data")
		return
	}

	form, errMsg := h.parseBlogForm(r, &blog)
	if errMsg != "" {
		flashError(w, r, h.renderer, editURL, errMsg)
		return
	}

	err := h.queries.UpdateBlog(r.Context(), store.UpdateBlogParams{
		ID:            id,
		Title:         form.Title,
		Slug:          form.Slug,
		Content:       form.Content,
		FeaturedImage: form.FeaturedImage,
		IsFeatured:    form.IsFeatured,
		IsPremium:     form.IsPremium,
		IsPublished:   form.IsPublished,
		CategoryID:    form.CategoryID,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		slog.Error("failed to update blog", "error", err, "blog_id", id)
		flashError(w, r, h.renderer, editURL, "Failed to update post")
		return
	}

	h.invalidateCatalog(r)
	flashSuccess(w, r, h.renderer, redirectAdminBlogs, "Post updated")
}

// TogglePublish flips the published flag on a post.
func (h *BlogHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBlogs, "Invalid post ID")
		return
	}

	blog, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBlogs, "Post", id,
		func(id int64) (model.Blog, error) { return h.queries.GetBlogByID(r.Context(), id) })
	if !ok {
		return
	}

	err := h.queries.UpdateBlog(r.Context(), store.UpdateBlogParams{
		ID:            blog.ID,
		Title:         blog.Title,
		Slug:          blog.Slug,
		Content:       blog.Content,
		FeaturedImage: blog.FeaturedImage,
		IsFeatured:    blog.IsFeatured,
		IsPremium:     blog.IsPremium,
		IsPublished:   !blog.IsPublished,
		CategoryID:    blog.CategoryID,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		slog.Error("failed to toggle blog publish state", "error", err, "blog_id", id)
		flashError(w, r, h.renderer, redirectAdminBlogs, "Failed to update post")
		return
	}

	h.invalidateCatalog(r)
	if blog.IsPublished {
		flashSuccess(w, r, h.renderer, redirectAdminBlogs, "Post unpublished")
	} else {
		flashSuccess(w, r, h.renderer, redirectAdminBlogs, "Post published")
	}
}

// Delete removes a blog post and its featured image.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBlogs, "Invalid post ID")
		return
	}

	blog, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBlogs, "Post", id,
		func(id int64) (model.Blog, error) { return h.queries.GetBlogByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.queries.DeleteBlog(r.Context(), id); err != nil {
		slog.Error("failed to delete blog", "error", err, "blog_id", id)
		flashError(w, r, h.renderer, redirectAdminBlogs, "Failed to delete post")
		return
	}

	if blog.FeaturedImage != "" {
		if err := h.storage.Delete(r.Context(), blog.FeaturedImage); err != nil {
			slog.Error("failed to delete featured image", "error", err, "key", blog.FeaturedImage)
		}
	}

	h.invalidateCatalog(r)
	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "blog", "Blog post deleted", userID, clientIP(r),
		map[string]any{"blog_id": id, "title": blog.Title})

	flashSuccess(w, r, h.renderer, redirectAdminBlogs, "Post deleted")
}

// blogForm carries validated blog form values.
type blogForm struct {
	Title         string
	Slug          string
	Content       string
	FeaturedImage string
	IsFeatured    bool
	IsPremium     bool
	IsPublished   bool
	CategoryID    sql.NullInt64
}

// parseBlogForm validates the multipart blog form and stores an uploaded
// featured image.
func (h *BlogHandler) parseBlogForm(r *http.Request, existing *model.Blog) (blogForm, string) {
	var form blogForm

	form.Title = strings.TrimSpace(r.FormValue("title"))
	if form.Title == "" {
		return form, "Title is required"
	}

	form.Slug = strings.TrimSpace(r.FormValue("slug"))
	if form.Slug == "" {
		form.Slug = util.Slugify(form.Title)
	}
	currentSlug := ""
	excludeID := int64(0)
	if existing != nil {
		currentSlug = existing.Slug
		excludeID = existing.ID
	}
	if msg := ValidateSlugForUpdate(form.Slug, currentSlug, func() (bool, error) {
		return h.queries.BlogSlugExists(r.Context(), form.Slug, excludeID)
	}); msg != "" {
		return form, msg
	}

	form.Content = r.FormValue("content")
	if strings.TrimSpace(form.Content) == "" {
		return form, "Content is required"
	}

	form.IsFeatured = r.FormValue("is_featured") == "on"
	form.IsPremium = r.FormValue("is_premium") == "on"
	form.IsPublished = r.FormValue("is_published") == "on"

	if raw := r.FormValue("category_id"); raw != "" && raw != "0" {
		catID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return form, "Invalid category"
		}
		if _, err := h.queries.GetBlogCategoryByID(r.Context(), catID); err != nil {
			return form, "Invalid category"
		}
		form.CategoryID = util.NullInt64(catID)
	}

	if existing != nil {
		form.FeaturedImage = existing.FeaturedImage
	}

	if f, header, err := formFile(r, "featured_image"); err != nil {
		return form, "Invalid featured image upload"
	} else if f != nil {
		key, err := saveImageUpload(r.Context(), h.storage, f, header.Size, "featured", imaging.FeaturedVariants["featured"])
		if err != nil {
			return form, "Featured image rejected: " + err.Error()
		}
		form.FeaturedImage = key
	}

	return form, ""
}

func (h *BlogHandler) invalidateCatalog(r *http.Request) {
	if err := h.catalog.Invalidate(r.Context()); err != nil {
		slog.Error("failed to invalidate catalog cache", "error", err)
	}
}
