// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/uikit"
)

const recentEventsLimit = 10

// AdminHandler serves the admin dashboard and the event log browser.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// adminStats aggregates the dashboard counters.
type adminStats struct {
	Users       int64
	Books       int64
	Blogs       int64
	Subscribers int64
}

// Dashboard renders the admin overview with counters and the latest events.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stats adminStats
	var err error
	if stats.Users, err = h.queries.CountUsers(ctx, "", ""); err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}
	if stats.Books, err = h.queries.CountBooks(ctx, store.ListBooksParams{}); err != nil {
		logAndInternalError(w, "failed to count books", "error", err)
		return
	}
	if stats.Blogs, err = h.queries.CountBlogs(ctx, store.ListBlogsParams{}); err != nil {
		logAndInternalError(w, "failed to count blogs", "error", err)
		return
	}
	if stats.Subscribers, err = h.queries.CountActiveSubscribers(ctx); err != nil {
		logAndInternalError(w, "failed to count subscribers", "error", err)
		return
	}

	events, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: recentEventsLimit})
	if err != nil {
		logAndInternalError(w, "failed to list recent events", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Stats":  stats,
			"Events": events,
		},
	})
}

// eventLevels and eventCategories are the filter options offered on the
// events page. Values outside these sets are treated as "all".
var (
	eventLevels = []string{
		model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError,
	}
	eventCategories = []string{
		model.EventCategoryAuth, model.EventCategoryUser, model.EventCategoryBook,
		model.EventCategoryBlog, model.EventCategoryNewsletter, model.EventCategoryContact,
		model.EventCategorySystem, model.EventCategoryCache,
	}
)

func validFilter(value string, allowed []string) string {
	for _, v := range allowed {
		if value == v {
			return value
		}
	}
	return ""
}

// Events renders the paginated event log with level and category filters.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)
	level := validFilter(strings.ToLower(r.URL.Query().Get("level")), eventLevels)
	category := validFilter(strings.ToLower(r.URL.Query().Get("category")), eventCategories)

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    adminPageSize,
		Offset:   int64((page - 1) * adminPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}
	total, err := h.queries.CountEvents(r.Context(), level, category)
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	pagination := uikit.BuildAdminPagination(page, int(total), adminPageSize, redirectAdmin+RouteEvents, r.URL.Query())

	h.renderer.RenderPage(w, r, "admin/events", render.TemplateData{
		Title: "Event Log",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Events":     events,
			"Level":      level,
			"Category":   category,
			"Levels":     eventLevels,
			"Categories": eventCategories,
			"Pagination": pagination,
		},
	})
}
