// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

func testHandler(t *testing.T) (*EventLogHandler, *store.Queries) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	inner := slog.NewTextHandler(io.Discard, nil)
	return NewEventLogHandler(inner, db), store.New(db)
}

func countEvents(t *testing.T, q *store.Queries, level, category string) int64 {
	t.Helper()
	n, err := q.CountEvents(context.Background(), level, category)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

func TestEventLogHandler_WarnWritesEvent(t *testing.T) {
	h, q := testHandler(t)
	logger := slog.New(h)

	logger.Warn("newsletter campaign dispatch failed", "campaign_id", 7)

	if got := countEvents(t, q, model.EventLevelWarning, model.EventCategoryNewsletter); got != 1 {
		t.Errorf("expected 1 warning newsletter event, got %d", got)
	}

	events, err := q.ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Message != "newsletter campaign dispatch failed" {
		t.Errorf("unexpected message %q", events[0].Message)
	}
	if events[0].Metadata != `{"campaign_id":"7"}` {
		t.Errorf("unexpected metadata %q", events[0].Metadata)
	}
}

func TestEventLogHandler_InfoSkipsEventLog(t *testing.T) {
	h, q := testHandler(t)
	logger := slog.New(h)

	logger.Info("book catalog refreshed")

	if got := countEvents(t, q, "", ""); got != 0 {
		t.Errorf("expected no events for info log, got %d", got)
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	h, q := testHandler(t)
	logger := slog.New(h)

	logger.Error("unexpected failure", "category", model.EventCategoryContact)

	if got := countEvents(t, q, model.EventLevelError, model.EventCategoryContact); got != 1 {
		t.Errorf("expected 1 error contact event, got %d", got)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login attempt rejected", model.EventCategoryAuth},
		{"book download recorded", model.EventCategoryBook},
		{"blog post not found", model.EventCategoryBlog},
		{"subscriber bounce detected", model.EventCategoryNewsletter},
		{"user account locked", model.EventCategoryUser},
		{"cache eviction storm", model.EventCategoryCache},
		{"disk nearly full", model.EventCategorySystem},
	}

	h := &EventLogHandler{}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			var r slog.Record
			r.Message = tt.message
			if got := h.extractCategory(r); got != tt.want {
				t.Errorf("extractCategory(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestAttrMetadata(t *testing.T) {
	var r slog.Record
	r.AddAttrs(
		slog.String("category", model.EventCategoryBook),
		slog.String("slug", "the-quiet-harbor"),
		slog.Int("user_id", 42),
	)

	got := attrMetadata(r)
	want := `{"slug":"the-quiet-harbor","user_id":"42"}`
	if got != want {
		t.Errorf("attrMetadata() = %s, want %s", got, want)
	}
}

func TestAttrMetadataEmpty(t *testing.T) {
	var r slog.Record
	if got := attrMetadata(r); got != "{}" {
		t.Errorf("attrMetadata() = %s, want {}", got)
	}
}
