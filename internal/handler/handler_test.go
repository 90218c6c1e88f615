// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/storage"
	"github.com/sophiabent/bookhaven/internal/store"
)

// testDB creates a temporary database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	return db
}

// testLocalStorage creates a local storage backend in a temp dir.
func testLocalStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()

	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080", []byte("test-signing-key"))
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}
	return st
}

func createTestUser(t *testing.T, q *store.Queries, email, role string) model.User {
	t.Helper()

	now := time.Now()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Role:         role,
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	return u
}

func createTestBook(t *testing.T, q *store.Queries, arg store.CreateBookParams) model.Book {
	t.Helper()

	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
		arg.UpdatedAt = arg.CreatedAt
	}
	id, err := q.CreateBook(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreateBook() error: %v", err)
	}
	book, err := q.GetBookByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBookByID() error: %v", err)
	}
	return book
}

// asUser attaches the user to the request context the way the access gate
// does after resolving a session.
func asUser(r *http.Request, user model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// decodeBody parses a JSON response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

// wantJSONError asserts the flat error shape used across the API.
func wantJSONError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["error"]; got != message {
		t.Errorf("error = %q, want %q", got, message)
	}
	if len(body) != 1 {
		t.Errorf("error body has extra fields: %v", body)
	}
}
