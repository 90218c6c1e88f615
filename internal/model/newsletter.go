// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Subscriber is a newsletter recipient. Unsubscribing is soft: the row is
// kept with is_active=false so a later subscribe reactivates it.
type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Campaign statuses.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusSent      = "sent"
)

// Campaign is a newsletter mailing to all active subscribers.
type Campaign struct {
	ID          int64        `json:"id"`
	Subject     string       `json:"subject"`
	PreviewText string       `json:"preview_text,omitempty"`
	Content     string       `json:"content"` // Markdown, rendered per email
	Status      string       `json:"status"`
	ScheduledAt sql.NullTime `json:"scheduled_at,omitempty"`
	SentAt      sql.NullTime `json:"sent_at,omitempty"`
	Recipients  int64        `json:"recipients"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsSendable reports whether a campaign may be queued for delivery.
func (c *Campaign) IsSendable() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}
