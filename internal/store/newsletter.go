// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

const getSubscriberByEmail = `
SELECT id, email, is_active, created_at, updated_at FROM newsletter_subscribers WHERE email = ?`

// GetSubscriberByEmail returns a subscriber row, active or not.
func (q *Queries) GetSubscriberByEmail(ctx context.Context, email string) (model.Subscriber, error) {
	var s model.Subscriber
	err := q.db.QueryRowContext(ctx, getSubscriberByEmail, email).Scan(
		&s.ID, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const createSubscriber = `
INSERT INTO newsletter_subscribers (email, is_active, created_at, updated_at)
VALUES (?, 1, ?, ?)
RETURNING id, email, is_active, created_at, updated_at`

// CreateSubscriber inserts a new active subscriber.
func (q *Queries) CreateSubscriber(ctx context.Context, email string, now time.Time) (model.Subscriber, error) {
	var s model.Subscriber
	err := q.db.QueryRowContext(ctx, createSubscriber, email, now, now).Scan(
		&s.ID, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const setSubscriberActive = `
UPDATE newsletter_subscribers SET is_active = ?, updated_at = ? WHERE email = ?`

// SetSubscriberActive activates or deactivates a subscriber. Unsubscribe is
// soft so resubscribing reuses the row.
func (q *Queries) SetSubscriberActive(ctx context.Context, email string, active bool, now time.Time) error {
	_, err := q.db.ExecContext(ctx, setSubscriberActive, active, now, email)
	return err
}

const listActiveSubscribers = `
SELECT id, email, is_active, created_at, updated_at
FROM newsletter_subscribers
WHERE is_active = 1
ORDER BY id`

// ListActiveSubscribers returns all active subscribers.
func (q *Queries) ListActiveSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSubscribers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

const countActiveSubscribers = `SELECT COUNT(*) FROM newsletter_subscribers WHERE is_active = 1`

// CountActiveSubscribers returns the active subscriber count.
func (q *Queries) CountActiveSubscribers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveSubscribers).Scan(&n)
	return n, err
}

const campaignColumns = `id, subject, preview_text, content, status, scheduled_at, sent_at, recipients, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Subject, &c.PreviewText, &c.Content, &c.Status,
		&c.ScheduledAt, &c.SentAt, &c.Recipients, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getCampaignByID = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`

// GetCampaignByID returns a campaign by primary key.
func (q *Queries) GetCampaignByID(ctx context.Context, id int64) (model.Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, getCampaignByID, id))
}

// CreateCampaignParams holds the fields for CreateCampaign.
type CreateCampaignParams struct {
	Subject     string
	PreviewText string
	Content     string
	Status      string
	ScheduledAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createCampaign = `
INSERT INTO campaigns (subject, preview_text, content, status, scheduled_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + campaignColumns

// CreateCampaign inserts a campaign.
func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (model.Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, createCampaign,
		arg.Subject, arg.PreviewText, arg.Content, arg.Status, arg.ScheduledAt,
		arg.CreatedAt, arg.UpdatedAt,
	))
}

// UpdateCampaignParams holds the fields for UpdateCampaign.
type UpdateCampaignParams struct {
	ID          int64
	Subject     string
	PreviewText string
	Content     string
	Status      string
	ScheduledAt sql.NullTime
	UpdatedAt   time.Time
}

const updateCampaign = `
UPDATE campaigns SET subject = ?, preview_text = ?, content = ?, status = ?, scheduled_at = ?, updated_at = ?
WHERE id = ?`

// UpdateCampaign updates draft fields and scheduling.
func (q *Queries) UpdateCampaign(ctx context.Context, arg UpdateCampaignParams) error {
	_, err := q.db.ExecContext(ctx, updateCampaign,
		arg.Subject, arg.PreviewText, arg.Content, arg.Status, arg.ScheduledAt,
		arg.UpdatedAt, arg.ID,
	)
	return err
}

const markCampaignSending = `
UPDATE campaigns SET status = 'sending', updated_at = ?
WHERE id = ? AND status IN ('draft', 'scheduled')`

// MarkCampaignSending transitions a campaign to sending. Returns false when
// the campaign was already picked up, which keeps delivery single-shot.
func (q *Queries) MarkCampaignSending(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, markCampaignSending, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const markCampaignSent = `
UPDATE campaigns SET status = 'sent', sent_at = ?, recipients = ?, updated_at = ? WHERE id = ?`

// MarkCampaignSent records a completed delivery.
func (q *Queries) MarkCampaignSent(ctx context.Context, id, recipients int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, markCampaignSent, now, recipients, now, id)
	return err
}

const deleteCampaign = `DELETE FROM campaigns WHERE id = ?`

// DeleteCampaign removes a campaign.
func (q *Queries) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCampaign, id)
	return err
}

const listCampaigns = `
SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC LIMIT ? OFFSET ?`

// ListCampaigns returns campaigns, newest first.
func (q *Queries) ListCampaigns(ctx context.Context, limit, offset int64) ([]model.Campaign, error) {
	rows, err := q.db.QueryContext(ctx, listCampaigns, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

const countCampaigns = `SELECT COUNT(*) FROM campaigns`

// CountCampaigns returns the total number of campaigns.
func (q *Queries) CountCampaigns(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCampaigns).Scan(&n)
	return n, err
}

const listDueCampaigns = `
SELECT ` + campaignColumns + ` FROM campaigns
WHERE status = 'scheduled' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
ORDER BY scheduled_at`

// ListDueCampaigns returns scheduled campaigns whose send time has passed.
func (q *Queries) ListDueCampaigns(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	rows, err := q.db.QueryContext(ctx, listDueCampaigns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
