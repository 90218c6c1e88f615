// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophiabent/bookhaven/internal/store"
)

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartStop(t *testing.T) {
	db := testDB(t)
	s := New(db, testLogger(), nil, nil, nil, 90)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Only the jobs whose dependencies exist are registered.
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered jobs = %d, want 2 (token purge and event retention)", got)
	}
	s.Stop()
}

func TestPurgeExpiredTokens(t *testing.T) {
	db := testDB(t)
	q := store.New(db)
	ctx := context.Background()

	now := time.Now()
	userID := createUser(t, q, "reader@example.com")
	if _, err := q.CreateVerificationToken(ctx, userID, "expired-token", now.Add(-time.Hour), now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("CreateVerificationToken() error: %v", err)
	}
	if _, err := q.CreateVerificationToken(ctx, userID, "live-token", now.Add(time.Hour), now); err != nil {
		t.Fatalf("CreateVerificationToken() error: %v", err)
	}

	s := New(db, testLogger(), nil, nil, nil, 90)
	if err := s.purgeExpiredTokens(ctx); err != nil {
		t.Fatalf("purgeExpiredTokens() error: %v", err)
	}

	if _, err := q.GetVerificationToken(ctx, "expired-token"); err == nil {
		t.Error("expired token survived the purge")
	}
	if _, err := q.GetVerificationToken(ctx, "live-token"); err != nil {
		t.Errorf("live token was purged: %v", err)
	}
}

func TestPruneEventLog(t *testing.T) {
	db := testDB(t)
	q := store.New(db)
	ctx := context.Background()

	old := store.CreateEventParams{
		Level: "info", Category: "system", Message: "old",
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}
	recent := store.CreateEventParams{
		Level: "info", Category: "system", Message: "recent",
		CreatedAt: time.Now(),
	}
	if err := q.CreateEvent(ctx, old); err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}
	if err := q.CreateEvent(ctx, recent); err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}

	s := New(db, testLogger(), nil, nil, nil, 90)
	if err := s.pruneEventLog(ctx); err != nil {
		t.Fatalf("pruneEventLog() error: %v", err)
	}

	n, err := q.CountEvents(ctx, "", "")
	if err != nil {
		t.Fatalf("CountEvents() error: %v", err)
	}
	if n != 1 {
		t.Errorf("events after prune = %d, want 1", n)
	}
}

func createUser(t *testing.T, q *store.Queries, email string) int64 {
	t.Helper()

	now := time.Now()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Role:         "user",
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	return u.ID
}
