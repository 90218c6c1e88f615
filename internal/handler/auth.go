// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/sophiabent/bookhaven/internal/auth"
	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
)

// genericLoginError is shown for any bad-credentials outcome so valid
// emails cannot be probed through the login form.
const genericLoginError = "Invalid email or password"

// AuthHandler handles registration, login, email verification, and
// password reset.
type AuthHandler struct {
	db              *sql.DB
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
	mail            mailer.Client
	cfg             *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, mail mailer.Client, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:              db,
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
		mail:            mail,
		cfg:             cfg,
	}
}

// LoginForm renders the login page. Already-authenticated users are
// redirected to their landing page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if user := h.sessionUser(r); user != nil {
		http.Redirect(w, r, h.landingFor(user), http.StatusSeeOther)
		return
	}

	h.renderer.RenderPage(w, r, "auth/login", render.TemplateData{
		Title: "Sign In",
		Data: map[string]any{
			"CallbackURL":   r.URL.Query().Get("callbackUrl"),
			"GoogleEnabled": h.cfg.GoogleOAuthEnabled(),
		},
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	email := normalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	callbackURL := r.FormValue("callbackUrl")
	loginURL := loginURLWithCallback(callbackURL)

	ip := clientIP(r)
	if !h.loginProtection.CheckIPRateLimit(ip) {
		flashError(w, r, h.renderer, loginURL, "Too many login attempts. Please try again later.")
		return
	}
	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		flashError(w, r, h.renderer, loginURL,
			fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		// Record the attempt for unknown users too, keeping timing and
		// lockout behavior uniform across valid and invalid emails.
		h.loginProtection.RecordFailedAttempt(email)
		flashError(w, r, h.renderer, loginURL, genericLoginError)
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		h.loginProtection.RecordFailedAttempt(email)
		_ = h.eventService.LogAuthEvent(r.Context(), "warning", "Failed login attempt", &user.ID, ip, nil)
		flashError(w, r, h.renderer, loginURL, genericLoginError)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)
	h.completeLogin(w, r, &user, password)

	http.Redirect(w, r, safeCallbackURL(callbackURL, h.landingFor(&user)), http.StatusSeeOther)
}

// completeLogin performs the shared post-verification login steps:
// opportunistic rehash, last-login update, session rotation.
func (h *AuthHandler) completeLogin(w http.ResponseWriter, r *http.Request, user *model.User, password string) {
	if password != "" && auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash, time.Now()); err != nil {
				slog.Error("failed to rehash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.TouchUserLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login", "error", err, "user_id", user.ID)
	}

	// Rotate the session token on privilege change
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("failed to renew session token", "error", err)
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	_ = h.eventService.LogAuthEvent(r.Context(), "info", "User logged in", &user.ID, clientIP(r), nil)
}

// Logout destroys the session and redirects to the homepage.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID); userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), "info", "User logged out", &userID, clientIP(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if user := h.sessionUser(r); user != nil {
		http.Redirect(w, r, h.landingFor(user), http.StatusSeeOther)
		return
	}

	h.renderer.RenderPage(w, r, "auth/register", render.TemplateData{
		Title: "Create Account",
		Data: map[string]any{
			"GoogleEnabled": h.cfg.GoogleOAuthEnabled(),
		},
	})
}

// Register handles new account creation. A verification token is issued
// and mailed; if the mail cannot be sent the account is rolled back.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteRegister) {
		return
	}

	name := r.FormValue("name")
	email := normalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")

	if name == "" {
		flashError(w, r, h.renderer, RouteRegister, "Name is required")
		return
	}
	if !validEmail(email) {
		flashError(w, r, h.renderer, RouteRegister, "A valid email address is required")
		return
	}
	if msg := validatePassword(password); msg != "" {
		flashError(w, r, h.renderer, RouteRegister, msg)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
		flashError(w, r, h.renderer, RouteRegister, "An account with this email already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to check existing user", "error", err)
		return
	}

	user, err := h.createUserWithVerification(r.Context(), name, email, password)
	if err != nil {
		slog.Error("registration failed", "error", err, "email", email)
		flashError(w, r, h.renderer, RouteRegister, "Registration failed. Please try again.")
		return
	}

	_ = h.eventService.LogAuthEvent(r.Context(), "info", "User registered", &user.ID, clientIP(r), nil)
	flashSuccess(w, r, h.renderer, RouteLogin, "Account created. Check your email to verify your address.")
}

// createUserWithVerification creates the user and verification token in a
// transaction and sends the verification mail before committing, so a
// failed send leaves no half-registered account behind.
func (h *AuthHandler) createUserWithVerification(ctx context.Context, name, email, password string) (model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	now := time.Now()

	user, err := qtx.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return model.User{}, fmt.Errorf("generating verification token: %w", err)
	}
	if _, err := qtx.CreateVerificationToken(ctx, user.ID, token, now.Add(model.VerificationTokenTTL), now); err != nil {
		return model.User{}, fmt.Errorf("creating verification token: %w", err)
	}

	verifyURL := h.cfg.BaseURL + RouteVerifyEmail + "?token=" + url.QueryEscape(token)
	msg := mailer.VerificationEmail(h.cfg.SiteName, name, verifyURL)
	msg.To = email
	if err := h.mail.Send(ctx, msg); err != nil {
		return model.User{}, fmt.Errorf("sending verification email: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, fmt.Errorf("committing registration: %w", err)
	}
	return user, nil
}

// VerifyEmail consumes a verification token from the query string.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		flashError(w, r, h.renderer, RouteLogin, "Verification link is invalid")
		return
	}

	vt, err := h.queries.GetVerificationToken(r.Context(), token)
	if err != nil {
		flashError(w, r, h.renderer, RouteLogin, "Verification link is invalid or has expired")
		return
	}
	if vt.Expired(time.Now()) {
		_ = h.queries.DeleteVerificationToken(r.Context(), vt.ID)
		flashError(w, r, h.renderer, RouteLogin, "Verification link has expired. Please register again.")
		return
	}

	if err := h.queries.MarkUserVerified(r.Context(), vt.UserID, time.Now()); err != nil {
		logAndInternalError(w, "failed to mark user verified", "error", err, "user_id", vt.UserID)
		return
	}
	if err := h.queries.DeleteVerificationToken(r.Context(), vt.ID); err != nil {
		slog.Error("failed to delete verification token", "error", err, "token_id", vt.ID)
	}

	_ = h.eventService.LogAuthEvent(r.Context(), "info", "Email verified", &vt.UserID, clientIP(r), nil)

	if user, err := h.queries.GetUserByID(r.Context(), vt.UserID); err == nil {
		msg := mailer.WelcomeEmail(h.cfg.SiteName, user.Name, h.cfg.BaseURL+RouteDashboard)
		msg.To = user.Email
		if err := h.mail.Send(r.Context(), msg); err != nil {
			slog.Error("failed to send welcome email", "error", err, "user_id", user.ID)
		}
	}

	flashSuccess(w, r, h.renderer, RouteLogin, "Email verified. You can now sign in.")
}

// ForgotPasswordForm renders the password reset request page.
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "auth/forgot_password", render.TemplateData{
		Title: "Reset Password",
	})
}

// ForgotPassword issues a reset token. The response is identical whether
// or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteForgotPassword) {
		return
	}

	const neutral = "If an account exists for that address, a reset link has been sent."

	email := normalizeEmail(r.FormValue("email"))
	if !validEmail(email) {
		flashSuccess(w, r, h.renderer, RouteLogin, neutral)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
		now := time.Now()
		token, err := auth.GenerateToken()
		if err == nil {
			_, err = h.queries.CreatePasswordResetToken(r.Context(), email, token, now.Add(model.PasswordResetTokenTTL), now)
		}
		if err == nil {
			resetURL := h.cfg.BaseURL + RouteNewPassword + "?token=" + url.QueryEscape(token)
			msg := mailer.PasswordResetEmail(h.cfg.SiteName, resetURL)
			msg.To = email
			if err := h.mail.Send(r.Context(), msg); err != nil {
				slog.Error("failed to send password reset email", "error", err)
			}
		} else {
			slog.Error("failed to create password reset token", "error", err)
		}
	}

	flashSuccess(w, r, h.renderer, RouteLogin, neutral)
}

// NewPasswordForm renders the password reset completion page.
func (h *AuthHandler) NewPasswordForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		flashError(w, r, h.renderer, RouteLogin, "Reset link is invalid")
		return
	}

	h.renderer.RenderPage(w, r, "auth/new_password", render.TemplateData{
		Title: "Choose a New Password",
		Data:  map[string]any{"Token": token},
	})
}

// NewPassword validates the reset token and updates the password.
func (h *AuthHandler) NewPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")

	rt, err := h.queries.GetPasswordResetToken(r.Context(), token)
	if err != nil {
		flashError(w, r, h.renderer, RouteLogin, "Reset link is invalid or has expired")
		return
	}
	if rt.Expired(time.Now()) {
		_ = h.queries.DeletePasswordResetToken(r.Context(), rt.ID)
		flashError(w, r, h.renderer, RouteForgotPassword, "Reset link has expired. Please request a new one.")
		return
	}
	if msg := validatePassword(password); msg != "" {
		flashError(w, r, h.renderer, RouteNewPassword+"?token="+url.QueryEscape(token), msg)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), rt.Email)
	if err != nil {
		flashError(w, r, h.renderer, RouteLogin, "Reset link is invalid or has expired")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now()); err != nil {
		logAndInternalError(w, "failed to update password", "error", err, "user_id", user.ID)
		return
	}
	if err := h.queries.DeletePasswordResetToken(r.Context(), rt.ID); err != nil {
		slog.Error("failed to delete reset token", "error", err, "token_id", rt.ID)
	}

	_ = h.eventService.LogAuthEvent(r.Context(), "info", "Password reset completed", &user.ID, clientIP(r), nil)
	flashSuccess(w, r, h.renderer, RouteLogin, "Password updated. You can now sign in.")
}

// sessionUser resolves the session's user, or nil when unauthenticated.
func (h *AuthHandler) sessionUser(r *http.Request) *model.User {
	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	if userID <= 0 {
		return nil
	}
	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return &user
}

// landingFor returns the post-login landing page for a user.
func (h *AuthHandler) landingFor(user *model.User) string {
	if user.IsAdmin() {
		return redirectAdmin
	}
	return redirectDashboard
}

// loginURLWithCallback preserves the callback target across failed
// login attempts.
func loginURLWithCallback(callbackURL string) string {
	if callbackURL == "" {
		return RouteLogin
	}
	return RouteLogin + "?callbackUrl=" + url.QueryEscape(callbackURL)
}

// formatDuration renders a lockout duration in human terms.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
