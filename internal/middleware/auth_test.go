// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", RoutePublic},
		{"/books", RoutePublic},
		{"/books/go-basics", RoutePublic},
		{"/login", RoutePublic},
		{"/api/auth", RoutePublicAPI},
		{"/api/auth/login", RoutePublicAPI},
		{"/api/auth/register", RoutePublicAPI},
		{"/api/newsletter", RoutePublicAPI},
		{"/api/contact", RoutePublicAPI},
		{"/dashboard", RouteDashboard},
		{"/dashboard/profile", RouteDashboard},
		{"/admin", RouteAdmin},
		{"/admin/books/5", RouteAdmin},
		{"/api", RouteAPI},
		{"/api/books", RouteAPI},
		{"/api/users/7", RouteAPI},
		// Prefixes are /-delimited: no partial-segment matches
		{"/apix", RoutePublic},
		{"/apix/books", RoutePublic},
		{"/dashboards", RoutePublic},
		{"/administrator", RoutePublic},
		// Unknown and garbage paths are public
		{"/no/such/page", RoutePublic},
		{"", RoutePublic},
		{"api/books", RoutePublic}, // no leading slash, matches nothing
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := c.Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifier_LongestPrefixWins(t *testing.T) {
	// /api/auth is declared before /api but both match /api/auth/login;
	// the longer prefix must win regardless of order
	c := &Classifier{}
	c.Add("/api", RouteAPI)
	c.Add("/api/auth", RoutePublicAPI)

	if got := c.Classify("/api/auth/login"); got != RoutePublicAPI {
		t.Errorf("Classify(/api/auth/login) = %v, want public_api", got)
	}
	if got := c.Classify("/api/books"); got != RouteAPI {
		t.Errorf("Classify(/api/books) = %v, want api", got)
	}
}

func TestClassifier_DeclarationOrderBreaksTies(t *testing.T) {
	c := &Classifier{}
	c.Add("/x", RouteDashboard)
	c.Add("/x", RouteAdmin)

	if got := c.Classify("/x/y"); got != RouteDashboard {
		t.Errorf("Classify(/x/y) = %v, want first-declared class", got)
	}
}

func TestClassifier_Idempotent(t *testing.T) {
	c := NewClassifier()
	paths := []string{"/", "/api/books", "/api/auth/login", "/dashboard/profile", "/admin", "/apix"}
	for _, path := range paths {
		first := c.Classify(path)
		for i := 0; i < 3; i++ {
			if got := c.Classify(path); got != first {
				t.Fatalf("Classify(%q) changed between calls: %v then %v", path, first, got)
			}
		}
	}
}

func TestDecide(t *testing.T) {
	anon := (*model.User)(nil)
	reader := &model.User{ID: 1, Role: model.RoleUser}
	admin := &model.User{ID: 2, Role: model.RoleAdmin}

	tests := []struct {
		name  string
		user  *model.User
		class RouteClass
		want  Decision
	}{
		{"public_anon", anon, RoutePublic, Decision{Action: ActionAllow}},
		{"public_user", reader, RoutePublic, Decision{Action: ActionAllow}},
		{"public_api_anon", anon, RoutePublicAPI, Decision{Action: ActionAllow}},
		{"public_api_admin", admin, RoutePublicAPI, Decision{Action: ActionAllow}},

		{"api_anon", anon, RouteAPI, Decision{Action: ActionReject, Status: 401, Message: "Authentication required"}},
		{"api_user", reader, RouteAPI, Decision{Action: ActionAllow}},
		{"api_admin", admin, RouteAPI, Decision{Action: ActionAllow}},

		{"dashboard_anon", anon, RouteDashboard, Decision{Action: ActionRedirectLogin}},
		// Any authenticated session reaches the dashboard; role is not checked
		{"dashboard_user", reader, RouteDashboard, Decision{Action: ActionAllow}},
		{"dashboard_admin", admin, RouteDashboard, Decision{Action: ActionAllow}},

		{"admin_anon", anon, RouteAdmin, Decision{Action: ActionRedirectLogin}},
		{"admin_user", reader, RouteAdmin, Decision{Action: ActionReject, Status: 403, Message: "Unauthorized"}},
		{"admin_admin", admin, RouteAdmin, Decision{Action: ActionAllow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.user, tt.class); got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoginRedirectURL(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/dashboard", "/login?callbackUrl=%2Fdashboard"},
		{"/dashboard/profile", "/login?callbackUrl=%2Fdashboard%2Fprofile"},
		{"/admin/books/5", "/login?callbackUrl=%2Fadmin%2Fbooks%2F5"},
	}

	for _, tt := range tests {
		if got := LoginRedirectURL(tt.path); got != tt.want {
			t.Errorf("LoginRedirectURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// gateEnv wires a real database, session manager and gate for HTTP tests.
type gateEnv struct {
	sm      *scs.SessionManager
	db      *sql.DB
	queries *store.Queries
	handler http.Handler
}

func newGateEnv(t *testing.T) *gateEnv {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.NewDB() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("store.Migrate() error: %v", err)
	}

	sm := scs.New() // in-memory store is enough for gate tests

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &gateEnv{
		sm:      sm,
		db:      db,
		queries: store.New(db),
		handler: sm.LoadAndSave(AccessGate(sm, db, NewClassifier())(ok)),
	}
}

func (e *gateEnv) createUser(t *testing.T, email, role string) model.User {
	t.Helper()
	now := time.Now()
	u, err := e.queries.CreateUser(context.Background(), store.CreateUserParams{
		Email: email, Role: role, Name: "Gate Test", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	return u
}

// loginCookie runs a request through the session middleware that signs the
// user in and returns the resulting session cookie.
func (e *gateEnv) loginCookie(t *testing.T, userID int64) *http.Cookie {
	t.Helper()

	login := e.sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.sm.Put(r.Context(), SessionKeyUserID, userID)
	}))

	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-login", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login produced no session cookie")
	}
	return cookies[0]
}

func (e *gateEnv) request(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body["error"]
}

func TestAccessGate_Anonymous(t *testing.T) {
	env := newGateEnv(t)

	t.Run("public_allowed", func(t *testing.T) {
		rec := env.request(t, "/books", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET /books = %d, want 200", rec.Code)
		}
	})

	t.Run("public_api_allowed", func(t *testing.T) {
		rec := env.request(t, "/api/newsletter", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET /api/newsletter = %d, want 200", rec.Code)
		}
	})

	t.Run("api_rejected_401", func(t *testing.T) {
		rec := env.request(t, "/api/books", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET /api/books = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if msg := decodeError(t, rec); msg != "Authentication required" {
			t.Errorf("error = %q, want %q", msg, "Authentication required")
		}
	})

	t.Run("dashboard_redirects_with_callback", func(t *testing.T) {
		rec := env.request(t, "/dashboard/profile", nil)
		if rec.Code != http.StatusFound {
			t.Fatalf("GET /dashboard/profile = %d, want 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login?callbackUrl=%2Fdashboard%2Fprofile" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("admin_redirects", func(t *testing.T) {
		rec := env.request(t, "/admin", nil)
		if rec.Code != http.StatusFound {
			t.Fatalf("GET /admin = %d, want 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login?callbackUrl=%2Fadmin" {
			t.Errorf("Location = %q", loc)
		}
	})
}

func TestAccessGate_AuthenticatedUser(t *testing.T) {
	env := newGateEnv(t)
	u := env.createUser(t, "reader@example.com", model.RoleUser)
	cookie := env.loginCookie(t, u.ID)

	t.Run("dashboard_allowed", func(t *testing.T) {
		rec := env.request(t, "/dashboard/profile", cookie)
		if rec.Code != http.StatusOK {
			t.Errorf("GET /dashboard/profile = %d, want 200", rec.Code)
		}
	})

	t.Run("api_allowed", func(t *testing.T) {
		rec := env.request(t, "/api/books", cookie)
		if rec.Code != http.StatusOK {
			t.Errorf("GET /api/books = %d, want 200", rec.Code)
		}
	})

	t.Run("admin_rejected_403", func(t *testing.T) {
		rec := env.request(t, "/admin/books", cookie)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("GET /admin/books = %d, want 403", rec.Code)
		}
		if msg := decodeError(t, rec); msg != "Unauthorized" {
			t.Errorf("error = %q, want %q", msg, "Unauthorized")
		}
	})
}

func TestAccessGate_Admin(t *testing.T) {
	env := newGateEnv(t)
	u := env.createUser(t, "admin@example.com", model.RoleAdmin)
	cookie := env.loginCookie(t, u.ID)

	for _, path := range []string{"/admin", "/admin/users", "/dashboard", "/api/users"} {
		rec := env.request(t, path, cookie)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestAccessGate_StaleSession(t *testing.T) {
	env := newGateEnv(t)
	u := env.createUser(t, "gone@example.com", model.RoleUser)
	cookie := env.loginCookie(t, u.ID)

	// Delete the user; the session now references a missing row
	if err := env.queries.DeleteUser(context.Background(), u.ID); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}

	rec := env.request(t, "/dashboard", cookie)
	if rec.Code != http.StatusFound {
		t.Errorf("GET /dashboard with stale session = %d, want 302", rec.Code)
	}

	rec = env.request(t, "/api/books", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/books with stale session = %d, want 401", rec.Code)
	}
}

func TestRequireAdminJSON(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdminJSON(ok)

	t.Run("no_user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("non_admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		ctx := context.WithValue(req.Context(), ContextKeyUser, model.User{ID: 1, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		ctx := context.WithValue(req.Context(), ContextKeyUser, model.User{ID: 1, Role: model.RoleAdmin})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
