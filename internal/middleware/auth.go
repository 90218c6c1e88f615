// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for user data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyUserID stores the signed-in user's ID in the session.
const SessionKeyUserID = "user_id"

// RouteClass is the access class a request path falls into.
type RouteClass int

// Route classes, from least to most restricted.
const (
	RoutePublic RouteClass = iota
	RoutePublicAPI
	RouteDashboard
	RouteAdmin
	RouteAPI
)

// String returns the class name for logging.
func (c RouteClass) String() string {
	switch c {
	case RoutePublicAPI:
		return "public_api"
	case RouteDashboard:
		return "dashboard"
	case RouteAdmin:
		return "admin"
	case RouteAPI:
		return "api"
	default:
		return "public"
	}
}

type prefixRule struct {
	prefix string
	class  RouteClass
}

// Classifier maps request paths to route classes by longest-prefix match.
// A prefix matches the path itself or any /-delimited extension of it, so
// "/api" covers "/api" and "/api/books" but not "/apiary". Paths matching
// no rule are public.
type Classifier struct {
	rules []prefixRule
}

// NewClassifier returns a classifier with the application's route map.
// Auth, newsletter and contact endpoints stay open so sign-in, subscribe
// and contact forms work for anonymous visitors.
func NewClassifier() *Classifier {
	c := &Classifier{}
	c.Add("/api/auth", RoutePublicAPI)
	c.Add("/api/newsletter", RoutePublicAPI)
	c.Add("/api/contact", RoutePublicAPI)
	c.Add("/dashboard", RouteDashboard)
	c.Add("/admin", RouteAdmin)
	c.Add("/api", RouteAPI)
	return c
}

// Add registers a prefix rule. Rules added earlier win ties between equal
// prefix lengths.
func (c *Classifier) Add(prefix string, class RouteClass) {
	c.rules = append(c.rules, prefixRule{prefix: prefix, class: class})
}

// Classify returns the route class for a request path.
func (c *Classifier) Classify(path string) RouteClass {
	best := RoutePublic
	bestLen := -1
	for _, rule := range c.rules {
		if !matchesPrefix(path, rule.prefix) {
			continue
		}
		// Strictly longer prefixes win; declaration order breaks ties
		if len(rule.prefix) > bestLen {
			best = rule.class
			bestLen = len(rule.prefix)
		}
	}
	return best
}

func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// Action is the outcome of an access decision.
type Action int

// Access decision actions.
const (
	ActionAllow Action = iota
	ActionRedirectLogin
	ActionReject
)

// Decision is the result of evaluating a session against a route class.
type Decision struct {
	Action  Action
	Status  int    // HTTP status for ActionReject
	Message string // JSON error message for ActionReject
}

// Reject messages match the public API contract and must not leak whether
// an account exists.
const (
	msgAuthRequired = "Authentication required"
	msgUnauthorized = "Unauthorized"
)

// Decide evaluates access for a resolved session and route class. user is
// nil for anonymous requests. Dashboard routes require any authenticated
// session; role is only enforced on admin routes.
func Decide(user *model.User, class RouteClass) Decision {
	switch class {
	case RouteDashboard:
		if user == nil {
			return Decision{Action: ActionRedirectLogin}
		}
	case RouteAdmin:
		if user == nil {
			return Decision{Action: ActionRedirectLogin}
		}
		if !user.IsAdmin() {
			return Decision{Action: ActionReject, Status: http.StatusForbidden, Message: msgUnauthorized}
		}
	case RouteAPI:
		if user == nil {
			return Decision{Action: ActionReject, Status: http.StatusUnauthorized, Message: msgAuthRequired}
		}
	}
	return Decision{Action: ActionAllow}
}

// LoginRedirectURL builds the login URL carrying the original path so the
// user lands back where they started after signing in.
func LoginRedirectURL(path string) string {
	q := url.Values{}
	q.Set("callbackUrl", path)
	return "/login?" + q.Encode()
}

// AccessGate resolves the session, classifies the path and enforces the
// access decision. Allowed requests continue with the user (when any) in
// the request context, so downstream handlers don't load it again.
func AccessGate(sm *scs.SessionManager, db *sql.DB, classifier *Classifier) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user *model.User
			if userID := sm.GetInt64(r.Context(), SessionKeyUserID); userID != 0 {
				u, err := queries.GetUserByID(r.Context(), userID)
				if err != nil {
					// Stale session (deleted user) or lookup failure:
					// treat as anonymous and drop the session
					if err != sql.ErrNoRows {
						slog.Error("resolving session user", "error", err, "user_id", userID)
					}
					_ = sm.Destroy(r.Context())
				} else {
					user = &u
				}
			}

			class := classifier.Classify(r.URL.Path)
			decision := Decide(user, class)

			switch decision.Action {
			case ActionRedirectLogin:
				http.Redirect(w, r, LoginRedirectURL(r.URL.Path), http.StatusFound)
				return
			case ActionReject:
				if decision.Status == http.StatusForbidden {
					slog.Warn("access denied",
						"status", decision.Status,
						"method", r.Method,
						"path", r.URL.Path,
						"user_id", user.ID,
						"user_role", user.Role,
						"remote_addr", r.RemoteAddr,
					)
				}
				writeGateError(w, decision.Status, decision.Message)
				return
			}

			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, *user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeGateError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID from context, or nil if not found.
// Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// GetUserEmail returns the current user's email from context, or empty string if not found.
func GetUserEmail(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.Email
	}
	return ""
}

// RequireAdminJSON rejects non-admin callers with a JSON error. Mounted on
// API subtrees that are admin-only; the access gate has already ensured a
// session exists.
func RequireAdminJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			writeGateError(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		if !user.IsAdmin() {
			writeGateError(w, http.StatusForbidden, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
