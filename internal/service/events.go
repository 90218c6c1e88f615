// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds business logic that spans handlers, currently
// the audit event writer.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

// EventService writes audit events. Unlike the slog bridge it carries
// the acting user and client IP, so handlers use it for anything a
// person did.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// LogEvent records one audit event. userID may be nil for anonymous
// actions; metadata is stored as a JSON object.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	var actor sql.NullInt64
	if userID != nil {
		actor = sql.NullInt64{Int64: *userID, Valid: true}
	}

	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    actor,
		IPAddress: ipAddress,
		Metadata:  meta,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// LogAuthEvent records a login, logout, or credential change.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// LogBookEvent records catalog activity such as downloads.
func (s *EventService) LogBookEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryBook, message, userID, ipAddress, metadata)
}

// LogUserEvent records account changes.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, ipAddress, metadata)
}

// LogNewsletterEvent records subscription and campaign activity.
func (s *EventService) LogNewsletterEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryNewsletter, message, userID, ipAddress, metadata)
}

// DeleteOldEvents prunes events older than olderThan and reports how
// many rows went away. The scheduler runs this nightly.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
