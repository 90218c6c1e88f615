// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/auth"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
)

// recentDownloadsLimit is how many audit rows the dashboard shows.
const recentDownloadsLimit = 20

// DashboardHandler serves the reader dashboard. The access gate has
// already ensured an authenticated session.
type DashboardHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db *sql.DB, renderer *render.Renderer) *DashboardHandler {
	return &DashboardHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
	}
}

// Overview renders the dashboard landing page with recent downloads.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	downloads, err := h.queries.ListDownloadsByUser(r.Context(), user.ID, recentDownloadsLimit)
	if err != nil {
		logAndInternalError(w, "failed to load downloads", "error", err, "user_id", user.ID)
		return
	}

	h.renderer.RenderPage(w, r, "dashboard/overview", render.TemplateData{
		Title: "Dashboard",
		User:  user,
		Data: map[string]any{
			"Downloads": downloads,
		},
	})
}

// ProfileForm renders the profile page.
func (h *DashboardHandler) ProfileForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "dashboard/profile", render.TemplateData{
		Title: "Profile",
		User:  middleware.GetUser(r),
	})
}

// UpdateProfile handles the profile form submission (name, image).
func (h *DashboardHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	const profileURL = RouteDashboard + "/profile"

	if !parseFormOrRedirect(w, r, h.renderer, profileURL) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	image := strings.TrimSpace(r.FormValue("image"))
	if name == "" {
		flashError(w, r, h.renderer, profileURL, "Name is required")
		return
	}

	_, err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Name:      name,
		Image:     image,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to update profile", "error", err, "user_id", user.ID)
		flashError(w, r, h.renderer, profileURL, "Failed to update profile")
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), "info", "Profile updated", &user.ID, clientIP(r), nil)
	flashSuccess(w, r, h.renderer, profileURL, "Profile updated")
}

// ChangePassword handles the password change form. The current password
// must verify before the new one is stored.
func (h *DashboardHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	const profileURL = RouteDashboard + "/profile"

	if !parseFormOrRedirect(w, r, h.renderer, profileURL) {
		return
	}

	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	ok, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil || !ok {
		flashError(w, r, h.renderer, profileURL, "Current password is incorrect")
		return
	}
	if msg := validatePassword(newPassword); msg != "" {
		flashError(w, r, h.renderer, profileURL, msg)
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now()); err != nil {
		logAndInternalError(w, "failed to update password", "error", err, "user_id", user.ID)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), "info", "Password changed", &user.ID, clientIP(r), nil)
	flashSuccess(w, r, h.renderer, profileURL, "Password updated")
}
