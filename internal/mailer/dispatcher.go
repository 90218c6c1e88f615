// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/store"
)

// Dispatcher delivers newsletter campaigns to all active subscribers in the
// background. Campaigns are queued by ID; workers claim them with a
// status-guarded update so a campaign is never sent twice.
type Dispatcher struct {
	queries  *store.Queries
	client   Client
	logger   *slog.Logger
	siteName string
	baseURL  string
	queue    chan int64
	workers  int
	wg       sync.WaitGroup
	done     chan struct{}
	mu       sync.RWMutex
	running  bool
}

// DispatcherConfig holds dispatcher configuration.
type DispatcherConfig struct {
	Workers  int // Number of concurrent campaign workers
	SiteName string
	BaseURL  string
}

// NewDispatcher creates a campaign dispatcher.
func NewDispatcher(db *sql.DB, client Client, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries:  store.New(db),
		client:   client,
		logger:   logger,
		siteName: cfg.SiteName,
		baseURL:  cfg.BaseURL,
		queue:    make(chan int64, 16),
		workers:  cfg.Workers,
		done:     make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting campaign dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for in-flight campaigns to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping campaign dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("campaign dispatcher stopped")
}

// Enqueue queues a campaign for delivery. Returns false if the queue is
// full or the dispatcher is not running.
func (d *Dispatcher) Enqueue(campaignID int64) bool {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		d.logger.Warn("dispatcher not running, cannot queue campaign", "campaign_id", campaignID)
		return false
	}

	select {
	case d.queue <- campaignID:
		return true
	default:
		d.logger.Warn("campaign queue full", "campaign_id", campaignID)
		return false
	}
}

// EnqueueDue queues every scheduled campaign whose send time has passed.
// Called periodically by the scheduler.
func (d *Dispatcher) EnqueueDue(ctx context.Context) error {
	due, err := d.queries.ListDueCampaigns(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, c := range due {
		if d.Enqueue(c.ID) {
			d.logger.Info("scheduled campaign queued", "campaign_id", c.ID, "subject", c.Subject)
		}
	}
	return nil
}

// worker processes queued campaigns.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case campaignID := <-d.queue:
			if err := d.deliver(ctx, campaignID); err != nil {
				d.logger.Error("campaign delivery failed", "worker_id", id, "campaign_id", campaignID, "error", err)
			}
		}
	}
}

// deliver claims and sends one campaign.
func (d *Dispatcher) deliver(ctx context.Context, campaignID int64) error {
	// Claim the campaign; a concurrent worker or a double-submit loses here
	claimed, err := d.queries.MarkCampaignSending(ctx, campaignID, time.Now())
	if err != nil {
		return err
	}
	if !claimed {
		d.logger.Debug("campaign already claimed", "campaign_id", campaignID)
		return nil
	}

	campaign, err := d.queries.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return err
	}

	subscribers, err := d.queries.ListActiveSubscribers(ctx)
	if err != nil {
		return err
	}

	contentHTML := string(render.Markdown(campaign.Content))

	var sent int64
	for _, sub := range subscribers {
		select {
		case <-d.done:
			// Shutdown mid-campaign: record what was delivered so far
			return d.finish(campaign, sent)
		default:
		}

		msg := CampaignEmail(d.siteName, campaign.Subject, contentHTML, d.unsubscribeURL(sub.Email))
		msg.To = sub.Email
		if err := d.client.Send(ctx, msg); err != nil {
			d.logger.Warn("campaign email failed", "campaign_id", campaign.ID, "to", sub.Email, "error", err)
			continue
		}
		sent++
	}

	if err := d.finish(campaign, sent); err != nil {
		return err
	}

	d.logger.Info("campaign sent", "campaign_id", campaign.ID, "subject", campaign.Subject, "recipients", sent)
	return nil
}

// finish marks a campaign sent with its final recipient count. Uses a
// background context so shutdown doesn't lose the status update.
func (d *Dispatcher) finish(campaign model.Campaign, recipients int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.queries.MarkCampaignSent(ctx, campaign.ID, recipients, time.Now())
}

// unsubscribeURL builds the one-click unsubscribe link for a subscriber.
func (d *Dispatcher) unsubscribeURL(email string) string {
	return d.baseURL + "/api/newsletter?email=" + url.QueryEscape(email)
}
