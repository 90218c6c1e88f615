// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

func eventTestService(t *testing.T) (*EventService, *store.Queries) {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewEventService(db), store.New(db)
}

func TestLogEvent(t *testing.T) {
	svc, q := eventTestService(t)
	userID := int64(7)

	err := svc.LogBookEvent(context.Background(), model.EventLevelInfo, "Book downloaded",
		&userID, "203.0.113.9", map[string]any{"slug": "the-quiet-harbor"})
	if err != nil {
		t.Fatalf("LogBookEvent() error: %v", err)
	}

	events, err := q.ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.Category != model.EventCategoryBook {
		t.Errorf("Category = %q, want book", ev.Category)
	}
	if !ev.UserID.Valid || ev.UserID.Int64 != 7 {
		t.Errorf("UserID = %+v, want 7", ev.UserID)
	}
	if ev.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q", ev.IPAddress)
	}
	if ev.Metadata != `{"slug":"the-quiet-harbor"}` {
		t.Errorf("Metadata = %q", ev.Metadata)
	}
}

func TestLogEventAnonymous(t *testing.T) {
	svc, q := eventTestService(t)

	err := svc.LogEvent(context.Background(), model.EventLevelInfo, model.EventCategoryContact,
		"Contact form submitted", nil, "203.0.113.9", nil)
	if err != nil {
		t.Fatalf("LogEvent() error: %v", err)
	}

	events, err := q.ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if events[0].UserID.Valid {
		t.Error("anonymous event should have null user")
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", events[0].Metadata)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	svc, q := eventTestService(t)
	ctx := context.Background()

	// One old, one fresh.
	if err := q.CreateEvent(ctx, store.CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem,
		Message: "stale", Metadata: "{}", CreatedAt: time.Now().Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("create old event: %v", err)
	}
	if err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySystem, "fresh", nil, "", nil); err != nil {
		t.Fatalf("create fresh event: %v", err)
	}

	n, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents() error: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d events, want 1", n)
	}

	events, err := q.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Message != "fresh" {
		t.Errorf("remaining events = %+v, want only the fresh one", events)
	}
}
