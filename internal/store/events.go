// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `
INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// CreateEvent appends an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress,
		arg.Metadata, arg.CreatedAt,
	)
	return err
}

// ListEventsParams filters and paginates ListEvents.
type ListEventsParams struct {
	Level    string // empty for all
	Category string // empty for all
	Limit    int64
	Offset   int64
}

const listEvents = `
SELECT id, level, category, message, user_id, ip_address, metadata, created_at
FROM events
WHERE (?1 = '' OR level = ?1)
  AND (?2 = '' OR category = ?2)
ORDER BY created_at DESC
LIMIT ?3 OFFSET ?4`

// ListEvents returns event log entries, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Level, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IPAddress, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const countEvents = `
SELECT COUNT(*) FROM events
WHERE (?1 = '' OR level = ?1)
  AND (?2 = '' OR category = ?2)`

// CountEvents returns the total matching ListEvents without pagination.
func (q *Queries) CountEvents(ctx context.Context, level, category string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents, level, category).Scan(&n)
	return n, err
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes events older than the cutoff and returns the
// number deleted. Used by the retention job.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
