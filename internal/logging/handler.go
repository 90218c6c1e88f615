// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging bridges slog to the event log table so warnings and
// errors show up in the admin back office, not just in stderr.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

// EventLogHandler wraps another slog.Handler and mirrors records at or
// above its threshold into the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler wraps inner so WARN and above also land in the
// event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.inner.Handle(ctx, r)
	if r.Level >= h.level {
		h.record(r)
	}
	return err
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, level: h.level}
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), queries: h.queries, level: h.level}
}

// record persists one slog record as an event row. A background context
// is used so a cancelled request cannot lose the event.
func (h *EventLogHandler) record(r slog.Record) {
	_ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  h.extractCategory(r),
		Message:   r.Message,
		UserID:    sql.NullInt64{},
		Metadata:  attrMetadata(r),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// categoryKeywords maps message substrings to event categories, checked
// in order. Used when the log call does not carry an explicit
// "category" attribute.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{model.EventCategoryAuth, []string{"auth", "login", "logout"}},
	{model.EventCategoryBook, []string{"book", "download"}},
	{model.EventCategoryBlog, []string{"blog", "post"}},
	{model.EventCategoryNewsletter, []string{"newsletter", "campaign", "subscriber"}},
	{model.EventCategoryUser, []string{"user"}},
	{model.EventCategoryCache, []string{"cache"}},
}

func (h *EventLogHandler) extractCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(msg, w) {
				return ck.category
			}
		}
	}
	return model.EventCategorySystem
}

// attrMetadata flattens the record's attributes into a JSON object of
// string values. The "category" attribute is stored in its own column
// and skipped here.
func attrMetadata(r slog.Record) string {
	attrs := make(map[string]string)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(data)
}
