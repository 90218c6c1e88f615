// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
)

// maxCommentLength bounds reader comments.
const maxCommentLength = 2000

// CommentHandler handles the authenticated comment API.
type CommentHandler struct {
	queries      *store.Queries
	eventService *service.EventService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB) *CommentHandler {
	return &CommentHandler{
		queries:      store.New(db),
		eventService: service.NewEventService(db),
	}
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		BookID  int64  `json:"book_id"`
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		JSONError(w, http.StatusBadRequest, "Comment cannot be empty")
		return
	}
	if len(content) > maxCommentLength {
		JSONError(w, http.StatusBadRequest, "Comment is too long")
		return
	}

	book, err := h.queries.GetBookByID(r.Context(), req.BookID)
	if err != nil || !book.IsPublished {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			JSONError(w, http.StatusInternalServerError, "Failed to create comment")
			return
		}
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	id, err := h.queries.CreateComment(r.Context(), book.ID, user.ID, content, time.Now())
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	comment, err := h.queries.GetCommentByID(r.Context(), id)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"comment": comment})
}

// Delete handles DELETE /api/comments/{id}. Only the comment's author
// or an admin may delete it.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, ok := parseIDParam(r)
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	comment, ok := requireEntityWithJSONError(w, "Comment", id, func(id int64) (model.Comment, error) {
		return h.queries.GetCommentByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if comment.UserID != user.ID && !user.IsAdmin() {
		JSONError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if err := h.queries.DeleteComment(r.Context(), id); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
