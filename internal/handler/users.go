// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/uikit"
)

// UserHandler handles admin user management.
type UserHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, renderer *render.Renderer) *UserHandler {
	return &UserHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
	}
}

// List renders the admin user listing with search and role filters.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	role := r.URL.Query().Get("role")
	if role != RoleAdmin && role != RoleUser {
		role = ""
	}

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		Search: search,
		Role:   role,
		Limit:  adminPageSize,
		Offset: int64((page - 1) * adminPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}
	total, err := h.queries.CountUsers(r.Context(), search, role)
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}

	pagination := uikit.BuildAdminPagination(page, int(total), adminPageSize, redirectAdminUsers, r.URL.Query())

	h.renderer.RenderPage(w, r, "admin/users", render.TemplateData{
		Title: "Users",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Users":      users,
			"Search":     search,
			"Role":       role,
			"Pagination": pagination,
		},
	})
}

// Detail renders a single user with their download history.
func (h *UserHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	user, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (model.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}

	downloads, err := h.queries.ListDownloadsByUser(r.Context(), id, recentDownloadsLimit)
	if err != nil {
		logAndInternalError(w, "failed to list user downloads", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/user_detail", render.TemplateData{
		Title: user.Name,
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Account":   user,
			"Downloads": downloads,
		},
	})
}

// Update changes a user's profile fields and role. Demoting the last admin
// is refused.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	detailURL := redirectAdminUsers + "/" + strconv.FormatInt(id, 10)

	user, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (model.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, detailURL) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		flashError(w, r, h.renderer, detailURL, "Name is required")
		return
	}

	email := normalizeEmail(r.FormValue("email"))
	if !validEmail(email) {
		flashError(w, r, h.renderer, detailURL, "A valid email address is required")
		return
	}
	if email != user.Email {
		if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
			flashError(w, r, h.renderer, detailURL, "Email address is already in use")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to check email uniqueness", "error", err)
			return
		}
	}

	role := r.FormValue("role")
	if role != RoleAdmin && role != RoleUser {
		flashError(w, r, h.renderer, detailURL, "Invalid role")
		return
	}
	if user.Role == RoleAdmin && role != RoleAdmin {
		admins, err := h.queries.CountAdmins(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to count admins", "error", err)
			return
		}
		if admins <= 1 {
			flashError(w, r, h.renderer, detailURL, "Cannot demote the last admin")
			return
		}
	}

	if _, err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:        id,
		Email:     email,
		Role:      role,
		Name:      name,
		Image:     user.Image,
		UpdatedAt: time.Now(),
	}); err != nil {
		slog.Error("failed to update user", "error", err, "target_user_id", id)
		flashError(w, r, h.renderer, detailURL, "Failed to update user")
		return
	}

	actorID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "user", "User updated by admin", actorID, clientIP(r),
		map[string]any{"target_user_id": id, "role": role})

	flashSuccess(w, r, h.renderer, detailURL, "User updated")
}

// Delete removes a user account. The last admin and the acting admin's own
// account cannot be deleted.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	actor := middleware.GetUser(r)
	if actor != nil && actor.ID == id {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot delete your own account")
		return
	}

	user, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (model.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}

	if user.Role == RoleAdmin {
		admins, err := h.queries.CountAdmins(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to count admins", "error", err)
			return
		}
		if admins <= 1 {
			flashError(w, r, h.renderer, redirectAdminUsers, "Cannot delete the last admin")
			return
		}
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		slog.Error("failed to delete user", "error", err, "target_user_id", id)
		flashError(w, r, h.renderer, redirectAdminUsers, "Failed to delete user")
		return
	}

	actorID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryUser, "User deleted by admin", actorID, clientIP(r),
		map[string]any{"target_user_id": id, "email": user.Email})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted")
}

// GrantBook gives a user download access to a premium book.
func (h *UserHandler) GrantBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	detailURL := redirectAdminUsers + "/" + strconv.FormatInt(id, 10)

	if _, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (model.User, error) { return h.queries.GetUserByID(r.Context(), id) }); !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, detailURL) {
		return
	}

	bookID, err := strconv.ParseInt(r.FormValue("book_id"), 10, 64)
	if err != nil || bookID < 1 {
		flashError(w, r, h.renderer, detailURL, "Invalid book")
		return
	}
	book, err := h.queries.GetBookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, detailURL, "Book not found")
			return
		}
		logAndInternalError(w, "failed to load book", "error", err)
		return
	}

	if err := h.queries.GrantBook(r.Context(), id, bookID, time.Now()); err != nil {
		slog.Error("failed to grant book access", "error", err, "target_user_id", id, "book_id", bookID)
		flashError(w, r, h.renderer, detailURL, "Failed to grant access")
		return
	}

	actorID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "user", "Book access granted", actorID, clientIP(r),
		map[string]any{"target_user_id": id, "book_id": bookID, "title": book.Title})

	flashSuccess(w, r, h.renderer, detailURL, "Access granted")
}
