// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/sophiabent/bookhaven/internal/geoip"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/storage"
	"github.com/sophiabent/bookhaven/internal/store"
)

// BookAPIHandler serves the authenticated book API: catalog listing,
// detail, and gated file downloads.
type BookAPIHandler struct {
	queries      *store.Queries
	storage      storage.Storage
	geo          *geoip.Lookup
	eventService *service.EventService
}

// NewBookAPIHandler creates a new BookAPIHandler.
func NewBookAPIHandler(db *sql.DB, st storage.Storage, geo *geoip.Lookup) *BookAPIHandler {
	return &BookAPIHandler{
		queries:      store.New(db),
		storage:      st,
		geo:          geo,
		eventService: service.NewEventService(db),
	}
}

// Download handles POST /api/books/{id}/download?kind=pdf|audio.
// Free books are downloadable by any authenticated user; premium books
// require a purchase grant or the admin role. Successful requests return
// a short-lived signed URL and are recorded in the audit trail.
func (h *BookAPIHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, ok := parseIDParam(r)
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = model.DownloadKindPDF
	}
	if kind != model.DownloadKindPDF && kind != model.DownloadKindAudio {
		JSONError(w, http.StatusBadRequest, "Invalid download kind")
		return
	}

	book, ok := requireEntityWithJSONError(w, "Book", id, func(id int64) (model.Book, error) {
		return h.queries.GetBookByID(r.Context(), id)
	})
	if !ok {
		return
	}
	if !book.IsPublished {
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	key := book.BookFile
	if kind == model.DownloadKindAudio {
		key = book.AudioFile
	}
	if key == "" {
		JSONError(w, http.StatusNotFound, "No file available for this book")
		return
	}

	allowed, err := h.mayDownload(r, user, &book)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if !allowed {
		JSONError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	url, err := h.storage.SignedURL(r.Context(), key, storage.DefaultSignedURLTTL)
	if err != nil {
		slog.Error("failed to sign download URL", "error", err, "book_id", book.ID, "kind", kind)
		JSONError(w, http.StatusInternalServerError, "Failed to prepare download")
		return
	}

	h.recordDownload(r, user.ID, book.ID, kind)

	writeJSON(w, http.StatusOK, map[string]any{
		"url":       url,
		"expiresIn": int(storage.DefaultSignedURLTTL.Seconds()),
	})
}

// mayDownload applies the premium gate.
func (h *BookAPIHandler) mayDownload(r *http.Request, user *model.User, book *model.Book) (bool, error) {
	if book.IsFree || user.IsAdmin() {
		return true, nil
	}
	if !book.IsPremium {
		return true, nil
	}
	return h.queries.HasBookGrant(r.Context(), user.ID, book.ID)
}

// recordDownload appends to the download audit trail: user agent,
// IP address, and GeoIP country.
func (h *BookAPIHandler) recordDownload(r *http.Request, userID, bookID int64, kind string) {
	ip := clientIP(r)
	ua := useragent.Parse(r.UserAgent())

	err := h.queries.CreateDownload(r.Context(), store.CreateDownloadParams{
		UserID:    userID,
		BookID:    bookID,
		Kind:      kind,
		IPAddress: ip,
		Country:   h.geo.LookupCountry(ip),
		Browser:   ua.Name,
		OS:        ua.OS,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to record download", "error", err, "book_id", bookID, "user_id", userID)
	}

	_ = h.eventService.LogBookEvent(r.Context(), "info", "Book downloaded", &userID, ip,
		map[string]any{"book_id": bookID, "kind": kind})
}
