// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sophiabent/bookhaven/internal/auth"
	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/util"
)

// googleUserInfoURL returns the signed-in user's profile.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Session keys for the OAuth handshake.
const (
	sessionKeyOAuthState    = "oauth_state"
	sessionKeyOAuthCallback = "oauth_callback"
)

// OAuthHandler implements the Google auth-code flow. The first OAuth
// login provisions a verified user account; later logins match on email.
type OAuthHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
	oauthConfig    *oauth2.Config
	userInfoURL    string
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// GoogleLogin starts the auth-code flow.
func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateToken()
	if err != nil {
		logAndInternalError(w, "failed to generate oauth state", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), sessionKeyOAuthState, state)
	if cb := r.URL.Query().Get("callbackUrl"); cb != "" {
		h.sessionManager.Put(r.Context(), sessionKeyOAuthCallback, cb)
	}

	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusSeeOther)
}

// googleUser is the subset of the userinfo response we consume.
type googleUser struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleCallback completes the auth-code flow.
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	storedState := h.sessionManager.PopString(r.Context(), sessionKeyOAuthState)
	callbackURL := h.sessionManager.PopString(r.Context(), sessionKeyOAuthCallback)

	if storedState == "" || r.URL.Query().Get("state") != storedState {
		flashError(w, r, h.renderer, RouteLogin, "Sign-in could not be verified. Please try again.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		flashError(w, r, h.renderer, RouteLogin, "Google sign-in was cancelled")
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth code exchange failed", "error", err)
		flashError(w, r, h.renderer, RouteLogin, "Google sign-in failed. Please try again.")
		return
	}

	info, err := h.fetchUserInfo(r.Context(), token)
	if err != nil {
		slog.Error("oauth userinfo fetch failed", "error", err)
		flashError(w, r, h.renderer, RouteLogin, "Google sign-in failed. Please try again.")
		return
	}
	if info.Email == "" || !info.VerifiedEmail {
		flashError(w, r, h.renderer, RouteLogin, "Your Google account has no verified email address")
		return
	}

	user, err := h.findOrProvision(r.Context(), info)
	if err != nil {
		slog.Error("oauth user provisioning failed", "error", err, "email", info.Email)
		flashError(w, r, h.renderer, RouteLogin, "Sign-in failed. Please try again.")
		return
	}

	if err := h.queries.TouchUserLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login", "error", err, "user_id", user.ID)
	}
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("failed to renew session token", "error", err)
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	_ = h.eventService.LogAuthEvent(r.Context(), "info", "User logged in via Google", &user.ID, clientIP(r), nil)

	landing := redirectDashboard
	if user.IsAdmin() {
		landing = redirectAdmin
	}
	http.Redirect(w, r, safeCallbackURL(callbackURL, landing), http.StatusSeeOther)
}

// fetchUserInfo retrieves the Google profile with the exchanged token.
func (h *OAuthHandler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUser, error) {
	var info googleUser

	client := h.oauthConfig.Client(ctx, token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return info, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return info, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decoding userinfo: %w", err)
	}
	return info, nil
}

// findOrProvision matches an existing account by email or creates a new
// verified user. OAuth accounts carry no usable password hash, so
// credentials login stays impossible until a password reset.
func (h *OAuthHandler) findOrProvision(ctx context.Context, info googleUser) (model.User, error) {
	user, err := h.queries.GetUserByEmail(ctx, normalizeEmail(info.Email))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("looking up user: %w", err)
	}

	now := time.Now()
	name := info.Name
	if name == "" {
		name = info.Email
	}

	user, err = h.queries.CreateUser(ctx, store.CreateUserParams{
		Email:           normalizeEmail(info.Email),
		PasswordHash:    "",
		Role:            RoleUser,
		Name:            name,
		Image:           info.Picture,
		EmailVerifiedAt: util.NullTime(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	_ = h.eventService.LogAuthEvent(ctx, "info", "User provisioned via Google", &user.ID, "", nil)
	return user, nil
}
