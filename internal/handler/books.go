// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sophiabent/bookhaven/internal/cache"
	"github.com/sophiabent/bookhaven/internal/imaging"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/storage"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/tts"
	"github.com/sophiabent/bookhaven/internal/uikit"
	"github.com/sophiabent/bookhaven/internal/util"
)

// adminPageSize is the per-page row count for admin listings.
const adminPageSize = 20

// BookHandler handles admin book management.
type BookHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	catalog      *cache.CatalogCache
	storage      storage.Storage
	speech       *tts.Client
	eventService *service.EventService
}

// NewBookHandler creates a new BookHandler. speech may be nil when TTS
// is not configured.
func NewBookHandler(db *sql.DB, renderer *render.Renderer, catalog *cache.CatalogCache, st storage.Storage, speech *tts.Client) *BookHandler {
	return &BookHandler{
		queries:      store.New(db),
		renderer:     renderer,
		catalog:      catalog,
		storage:      st,
		speech:       speech,
		eventService: service.NewEventService(db),
	}
}

// List renders the admin book listing with search and pagination.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	params := store.ListBooksParams{
		Search: search,
		Limit:  adminPageSize,
		Offset: int64((page - 1) * adminPageSize),
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

	pagination := uikit.BuildAdminPagination(page, int(total), adminPageSize, redirectAdminBooks, r.URL.Query())

	h.renderer.RenderPage(w, r, "admin/books", render.TemplateData{
		Title: "Books",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Books":      books,
			"Search":     search,
			"Pagination": pagination,
		},
	})
}

// NewForm renders the book creation form.
func (h *BookHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/book_form", render.TemplateData{
		Title: "New Book",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Book":       model.Book{},
			"Categories": categories,
			"IsNew":      true,
		},
	})
}

// Create handles the book creation form submission.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	const newURL = redirectAdminBooks + RouteSuffixNew

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		flashError(w, r, h.renderer, newURL, "Invalid form data")
		return
	}

	form, errMsg := h.parseBookForm(r, nil)
	if errMsg != "" {
		flashError(w, r, h.renderer, newURL, errMsg)
		return
	}

	now := time.Now()
	id, err := h.queries.CreateBook(r.Context(), store.CreateBookParams{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
		Price:       form.Price,
		AmazonLink:  form.AmazonLink,
		CoverImage:  form.CoverImage,
		BookFile:    form.BookFile,
		AudioFile:   form.AudioFile,
		IsFree:      form.IsFree,
		IsPremium:   form.IsPremium,
		IsFeatured:  form.IsFeatured,
		IsPublished: form.IsPublished,
		CategoryID:  form.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to create book", "error", err)
		flashError(w, r, h.renderer, newURL, "Failed to create book")
		return
	}

	h.invalidateCatalog(r)
	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogBookEvent(r.Context(), "info", "Book created", userID, clientIP(r),
		map[string]any{"book_id": id, "title": form.Title})

	flashSuccess(w, r, h.renderer, redirectAdminBooks, "Book created")
}

// EditForm renders the book edit form.
func (h *BookHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBooks, "Invalid book ID")
		return
	}

	book, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBooks, "Book", id,
		func(id int64) (model.Book, error) { return h.queries.GetBookByID(r.Context(), id) })
	if !ok {
		return
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/book_form", render.TemplateData{
		Title: "Edit Book",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Book":       book,
			"Categories": categories,
			"IsNew":      false,
		},
	})
}

// Update handles the book edit form submission.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBooks, "Invalid book ID")
		return
	}
	editURL := redirectAdminBooks + "/" + strconv.FormatInt(id, 10) + "/edit"

	book, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBooks, "Book", id,
		func(id int64) (model.Book, error) { return h.queries.GetBookByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		flashError(w, r, h.renderer, editURL, "Invalid form data")
		return
	}

	form, errMsg := h.parseBookForm(r, &book)
	if errMsg != "" {
		flashError(w, r, h.renderer, editURL, errMsg)
		return
	}

	err := h.queries.UpdateBook(r.Context(), store.UpdateBookParams{
		ID:          id,
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
		Price:       form.Price,
		AmazonLink:  form.AmazonLink,
		CoverImage:  form.CoverImage,
		BookFile:    form.BookFile,
		AudioFile:   form.AudioFile,
		IsFree:      form.IsFree,
		IsPremium:   form.IsPremium,
		IsFeatured:  form.IsFeatured,
		IsPublished: form.IsPublished,
		CategoryID:  form.CategoryID,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to update book", "error", err, "book_id", id)
		flashError(w, r, h.renderer, editURL, "Failed to update book")
		return
	}

	h.invalidateCatalog(r)
	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogBookEvent(r.Context(), "info", "Book updated", userID, clientIP(r),
		map[string]any{"book_id": id})

	flashSuccess(w, r, h.renderer, redirectAdminBooks, "Book updated")
}

// TogglePublish flips a book's published flag.
func (h *BookHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBooks, "Invalid book ID")
		return
	}

	book, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBooks, "Book", id,
		func(id int64) (model.Book, error) { return h.queries.GetBookByID(r.Context(), id) })
	if !ok {
		return
	}

	err := h.queries.UpdateBook(r.Context(), store.UpdateBookParams{
		ID:          id,
		Title:       book.Title,
		Slug:        book.Slug,
		Description: book.Description,
		Price:       book.Price,
		AmazonLink:  book.AmazonLink,
		CoverImage:  book.CoverImage,
		BookFile:    book.BookFile,
		AudioFile:   book.AudioFile,
		IsFree:      book.IsFree,
		IsPremium:   book.IsPremium,
		IsFeatured:  book.IsFeatured,
		IsPublished: !book.IsPublished,
		CategoryID:  book.CategoryID,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to toggle publish", "error", err, "book_id", id)
		flashError(w, r, h.renderer, redirectAdminBooks, "Failed to update book")
		return
	}

	h.invalidateCatalog(r)

	state := "published"
	if book.IsPublished {
		state = "unpublished"
	}
	flashSuccess(w, r, h.renderer, redirectAdminBooks, "Book "+state)
}

// Delete removes a book and its stored files.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBooks, "Invalid book ID")
		return
	}

	book, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBooks, "Book", id,
		func(id int64) (model.Book, error) { return h.queries.GetBookByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.queries.DeleteBook(r.Context(), id); err != nil {
		slog.Error("failed to delete book", "error", err, "book_id", id)
		flashError(w, r, h.renderer, redirectAdminBooks, "Failed to delete book")
		return
	}

	// Stored files are removed best-effort after the row is gone
	for _, key := range []string{book.CoverImage, book.BookFile, book.AudioFile} {
		if key == "" {
			continue
		}
		if err := h.storage.Delete(r.Context(), key); err != nil {
			slog.Error("failed to delete stored file", "error", err, "key", key)
		}
	}

	h.invalidateCatalog(r)
	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogBookEvent(r.Context(), "info", "Book deleted", userID, clientIP(r),
		map[string]any{"book_id": id, "title": book.Title})

	flashSuccess(w, r, h.renderer, redirectAdminBooks, "Book deleted")
}

// GenerateAudio synthesizes an audiobook sample from the description via
// the speech API and attaches it to the book.
func (h *BookHandler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		flashError(w, r, h.renderer, redirectAdminBooks, "Text-to-speech is not configured")
		return
	}

	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminBooks, "Invalid book ID")
		return
	}

	book, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminBooks, "Book", id,
		func(id int64) (model.Book, error) { return h.queries.GetBookByID(r.Context(), id) })
	if !ok {
		return
	}
	if book.Description == "" {
		flashError(w, r, h.renderer, redirectAdminBooks, "Book has no description to narrate")
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), book.Description)
	if err != nil {
		slog.Error("speech synthesis failed", "error", err, "book_id", id)
		flashError(w, r, h.renderer, redirectAdminBooks, "Audio generation failed")
		return
	}

	key := "audio/" + uuid.NewString() + ".mp3"
	if err := h.storage.Save(r.Context(), key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg"); err != nil {
		slog.Error("failed to store generated audio", "error", err, "book_id", id)
		flashError(w, r, h.renderer, redirectAdminBooks, "Audio generation failed")
		return
	}

	oldKey := book.AudioFile
	book.AudioFile = key
	err = h.queries.UpdateBook(r.Context(), store.UpdateBookParams{
		ID:          id,
		Title:       book.Title,
		Slug:        book.Slug,
		Description: book.Description,
		Price:       book.Price,
		AmazonLink:  book.AmazonLink,
		CoverImage:  book.CoverImage,
		BookFile:    book.BookFile,
		AudioFile:   book.AudioFile,
		IsFree:      book.IsFree,
		IsPremium:   book.IsPremium,
		IsFeatured:  book.IsFeatured,
		IsPublished: book.IsPublished,
		CategoryID:  book.CategoryID,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to attach generated audio", "error", err, "book_id", id)
		flashError(w, r, h.renderer, redirectAdminBooks, "Audio generation failed")
		return
	}
	if oldKey != "" {
		if err := h.storage.Delete(r.Context(), oldKey); err != nil {
			slog.Error("failed to delete replaced audio", "error", err, "key", oldKey)
		}
	}

	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogBookEvent(r.Context(), "info", "Book audio generated", userID, clientIP(r),
		map[string]any{"book_id": id})

	flashSuccess(w, r, h.renderer, redirectAdminBooks, "Audio generated")
}

// bookForm carries validated book form values.
type bookForm struct {
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
}

// parseBookForm validates the multipart book form and stores any
// uploaded files. existing is nil on create; on update its file keys are
// kept when no replacement was uploaded.
func (h *BookHandler) parseBookForm(r *http.Request, existing *model.Book) (bookForm, string) {
	var form bookForm

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
		return h.queries.BookSlugExists(r.Context(), form.Slug, excludeID)
	}); msg != "" {
		return form, msg
	}

	form.Description = strings.TrimSpace(r.FormValue("description"))
	form.AmazonLink = strings.TrimSpace(r.FormValue("amazon_link"))
	if form.AmazonLink != "" {
		u, err := url.Parse(form.AmazonLink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return form, "Amazon link must be an absolute http(s) URL"
		}
	}

	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return form, "Price must be a non-negative number"
		}
		form.Price = price
	}

	form.IsFree = r.FormValue("is_free") == "on"
	form.IsPremium = r.FormValue("is_premium") == "on"
	form.IsFeatured = r.FormValue("is_featured") == "on"
	form.IsPublished = r.FormValue("is_published") == "on"

	if raw := r.FormValue("category_id"); raw != "" && raw != "0" {
		catID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return form, "Invalid category"
		}
		if _, err := h.queries.GetCategoryByID(r.Context(), catID); err != nil {
			return form, "Invalid category"
		}
		form.CategoryID = util.NullInt64(catID)
	}

	if existing != nil {
		form.CoverImage = existing.CoverImage
		form.BookFile = existing.BookFile
		form.AudioFile = existing.AudioFile
	}

	if f, header, err := formFile(r, "cover_image"); err != nil {
		return form, "Invalid cover image upload"
	} else if f != nil {
		key, err := saveImageUpload(r.Context(), h.storage, f, header.Size, "covers", imaging.CoverVariants["cover"])
		if err != nil {
			return form, "Cover image rejected: " + err.Error()
		}
		form.CoverImage = key
	}

	if f, header, err := formFile(r, "book_file"); err != nil {
		return form, "Invalid book file upload"
	} else if f != nil {
		key, err := saveFileUpload(r.Context(), h.storage, f, header.Size, storage.UploadPDF, "books", ".pdf")
		if err != nil {
			return form, "Book file rejected: " + err.Error()
		}
		form.BookFile = key
	}

	if f, header, err := formFile(r, "audio_file"); err != nil {
		return form, "Invalid audio file upload"
	} else if f != nil {
		key, err := saveFileUpload(r.Context(), h.storage, f, header.Size, storage.UploadAudio, "audio", ".mp3")
		if err != nil {
			return form, "Audio file rejected: " + err.Error()
		}
		form.AudioFile = key
	}

	return form, ""
}

// invalidateCatalog drops the cached featured/category entries after a
// write.
func (h *BookHandler) invalidateCatalog(r *http.Request) {
	if err := h.catalog.Invalidate(r.Context()); err != nil {
		slog.Error("failed to invalidate catalog cache", "error", err)
	}
}
