// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func sessionTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// The schema sqlite3store expects.
	if _, err := db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`); err != nil {
		t.Fatalf("create sessions table: %v", err)
	}
	return db
}

func TestNew(t *testing.T) {
	sm := New(sessionTestDB(t), true)

	if sm.Store == nil {
		t.Fatal("store not initialized")
	}
	if sm.Lifetime != 7*24*time.Hour {
		t.Errorf("Lifetime = %v, want 168h", sm.Lifetime)
	}
	if sm.IdleTimeout != 48*time.Hour {
		t.Errorf("IdleTimeout = %v, want 48h", sm.IdleTimeout)
	}
	if sm.Cookie.Name != "__bookhaven_session" {
		t.Errorf("Cookie.Name = %q", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestNewSecureCookie(t *testing.T) {
	if sm := New(sessionTestDB(t), true); sm.Cookie.Secure {
		t.Error("dev mode should not require secure cookies")
	}
	if sm := New(sessionTestDB(t), false); !sm.Cookie.Secure {
		t.Error("production must use secure cookies")
	}
}
