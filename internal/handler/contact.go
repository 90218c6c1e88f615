// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/service"
)

// maxContactMessageLength bounds contact form messages.
const maxContactMessageLength = 5000

// ContactHandler handles the public contact form API.
type ContactHandler struct {
	eventService *service.EventService
	mail         mailer.Client
	cfg          *config.Config
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(db *sql.DB, mail mailer.Client, cfg *config.Config) *ContactHandler {
	return &ContactHandler{
		eventService: service.NewEventService(db),
		mail:         mail,
		cfg:          cfg,
	}
}

// Submit handles POST /api/contact: forwards the message to the site
// owner. Rate limiting is applied at the route level.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	message := strings.TrimSpace(req.Message)

	switch {
	case name == "":
		JSONError(w, http.StatusBadRequest, "Name is required")
		return
	case !validEmail(email):
		JSONError(w, http.StatusBadRequest, "A valid email address is required")
		return
	case message == "":
		JSONError(w, http.StatusBadRequest, "Message is required")
		return
	case len(message) > maxContactMessageLength:
		JSONError(w, http.StatusBadRequest, "Message is too long")
		return
	}

	to := h.cfg.ContactEmail
	if to == "" {
		slog.Warn("contact form submitted but no contact email is configured")
		JSONError(w, http.StatusServiceUnavailable, "Contact form is not available")
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject != "" {
		message = "Subject: " + subject + "\n\n" + message
	}

	msg := mailer.ContactNotificationEmail(h.cfg.SiteName, name, email, message)
	msg.To = to
	if err := h.mail.Send(r.Context(), msg); err != nil {
		slog.Error("failed to send contact notification", "error", err)
		JSONError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	_ = h.eventService.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryContact,
		"Contact form submitted", nil, clientIP(r), map[string]any{"from": email})

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
