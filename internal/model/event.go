// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event severities, stored as-is in the level column.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories, one per admin-facing subsystem. The event log page
// filters on these.
const (
	EventCategoryAuth       = "auth"
	EventCategoryBook       = "book"
	EventCategoryBlog       = "blog"
	EventCategoryUser       = "user"
	EventCategoryNewsletter = "newsletter"
	EventCategoryContact    = "contact"
	EventCategorySystem     = "system"
	EventCategoryCache      = "cache"
)

// Event is one audit-log row, written by services and by the slog
// bridge in internal/logging.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string // JSON object of extra attributes
	CreatedAt time.Time
}
