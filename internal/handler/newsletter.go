// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
)

// NewsletterHandler handles the public newsletter API.
type NewsletterHandler struct {
	queries      *store.Queries
	eventService *service.EventService
	mail         mailer.Client
	cfg          *config.Config
}

// NewNewsletterHandler creates a new NewsletterHandler.
func NewNewsletterHandler(db *sql.DB, mail mailer.Client, cfg *config.Config) *NewsletterHandler {
	return &NewsletterHandler{
		queries:      store.New(db),
		eventService: service.NewEventService(db),
		mail:         mail,
		cfg:          cfg,
	}
}

// Subscribe handles POST /api/newsletter: create or reactivate a
// subscriber and send the welcome email.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		JSONError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	now := time.Now()
	sub, err := h.queries.GetSubscriberByEmail(r.Context(), email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := h.queries.CreateSubscriber(r.Context(), email, now); err != nil {
			JSONError(w, http.StatusInternalServerError, "Subscription failed")
			return
		}
	case err != nil:
		JSONError(w, http.StatusInternalServerError, "Subscription failed")
		return
	case sub.IsActive:
		// Idempotent: already subscribed
		writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
		return
	default:
		// Soft-unsubscribed earlier: reactivate
		if err := h.queries.SetSubscriberActive(r.Context(), email, true, now); err != nil {
			JSONError(w, http.StatusInternalServerError, "Subscription failed")
			return
		}
	}

	msg := mailer.NewsletterWelcomeEmail(h.cfg.SiteName, h.unsubscribeURL(email))
	msg.To = email
	if err := h.mail.Send(r.Context(), msg); err != nil {
		slog.Error("failed to send newsletter welcome email", "error", err)
	}

	_ = h.eventService.LogNewsletterEvent(r.Context(), "info", "Subscriber added", nil, clientIP(r),
		map[string]any{"email": email})

	writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

// Unsubscribe handles DELETE /api/newsletter for the signed-in user.
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	h.deactivate(w, r, normalizeEmail(user.Email))
}

// UnsubscribeLink handles GET /api/newsletter?email=..., the tokenless
// link embedded in every campaign footer.
func (h *NewsletterHandler) UnsubscribeLink(w http.ResponseWriter, r *http.Request) {
	email := normalizeEmail(r.URL.Query().Get("email"))
	if !validEmail(email) {
		JSONError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	h.deactivate(w, r, email)
}

// deactivate soft-unsubscribes an address. Unknown addresses respond the
// same as known ones.
func (h *NewsletterHandler) deactivate(w http.ResponseWriter, r *http.Request, email string) {
	if _, err := h.queries.GetSubscriberByEmail(r.Context(), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
			return
		}
		JSONError(w, http.StatusInternalServerError, "Unsubscribe failed")
		return
	}

	if err := h.queries.SetSubscriberActive(r.Context(), email, false, time.Now()); err != nil {
		JSONError(w, http.StatusInternalServerError, "Unsubscribe failed")
		return
	}

	_ = h.eventService.LogNewsletterEvent(r.Context(), "info", "Subscriber removed", nil, clientIP(r),
		map[string]any{"email": email})

	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (h *NewsletterHandler) unsubscribeURL(email string) string {
	return h.cfg.BaseURL + "/api/newsletter?email=" + url.QueryEscape(email)
}
