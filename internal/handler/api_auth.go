// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/sophiabent/bookhaven/internal/auth"
)

// APILogin handles POST /api/auth/login for JSON clients.
func (h *AuthHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := normalizeEmail(req.Email)

	ip := clientIP(r)
	if !h.loginProtection.CheckIPRateLimit(ip) {
		JSONError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}
	if locked, _ := h.loginProtection.IsAccountLocked(email); locked {
		JSONError(w, http.StatusTooManyRequests, "Account temporarily locked")
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.loginProtection.RecordFailedAttempt(email)
		JSONError(w, http.StatusUnauthorized, genericLoginError)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.loginProtection.RecordFailedAttempt(email)
		_ = h.eventService.LogAuthEvent(r.Context(), "warning", "Failed login attempt", &user.ID, ip, nil)
		JSONError(w, http.StatusUnauthorized, genericLoginError)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)
	h.completeLogin(w, r, &user, req.Password)

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// APILogout handles POST /api/auth/logout.
func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID); userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), "info", "User logged out", &userID, clientIP(r), nil)
	}
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		JSONError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// APIMe handles GET /api/auth/me, returning the session's user.
func (h *AuthHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	user := h.sessionUser(r)
	if user == nil {
		JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
