// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the recurring background jobs: newsletter
// campaign dispatch, token purging, event log retention, GeoIP database
// reloads, and rate limiter pruning.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sophiabent/bookhaven/internal/geoip"
	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// rateLimiterMaxEntries is the prune threshold for the global rate limiter.
const rateLimiterMaxEntries = 10000

// Scheduler owns the cron instance and the job set.
type Scheduler struct {
	queries      *store.Queries
	cron         *cron.Cron
	logger       *slog.Logger
	dispatcher   *mailer.Dispatcher
	eventService *service.EventService
	geo          *geoip.Lookup
	limiter      *middleware.GlobalRateLimiter
	retention    time.Duration
}

// New creates a scheduler. dispatcher, geo, and limiter may be nil when the
// corresponding feature is disabled; their jobs are skipped.
func New(db *sql.DB, logger *slog.Logger, dispatcher *mailer.Dispatcher, geo *geoip.Lookup,
	limiter *middleware.GlobalRateLimiter, retentionDays int) *Scheduler {
	return &Scheduler{
		queries:      store.New(db),
		cron:         cron.New(),
		logger:       logger,
		dispatcher:   dispatcher,
		eventService: service.NewEventService(db),
		geo:          geo,
		limiter:      limiter,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start registers the job set and begins ticking.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
		enabled  bool
	}{
		{"dispatch-due-campaigns", "* * * * *", s.dispatchDueCampaigns, s.dispatcher != nil},
		{"purge-expired-tokens", "30 * * * *", s.purgeExpiredTokens, true},
		{"prune-event-log", "15 3 * * *", s.pruneEventLog, s.retention > 0},
		{"reload-geoip", "45 4 * * *", s.reloadGeoIP, s.geo != nil},
		{"prune-rate-limiter", "0 * * * *", s.pruneRateLimiter, s.limiter != nil},
	}

	for _, job := range jobs {
		if !job.enabled {
			continue
		}
		name, run := job.name, job.run
		_, err := s.cron.AddFunc(job.schedule, func() { s.runJob(name, run) })
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runJob executes one job with a timeout and logs failures.
func (s *Scheduler) runJob(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

// dispatchDueCampaigns hands campaigns whose schedule has arrived to the
// delivery workers.
func (s *Scheduler) dispatchDueCampaigns(ctx context.Context) error {
	return s.dispatcher.EnqueueDue(ctx)
}

// purgeExpiredTokens drops expired verification and password reset tokens.
func (s *Scheduler) purgeExpiredTokens(ctx context.Context) error {
	n, err := s.queries.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged expired tokens", "count", n)
	}
	return nil
}

// pruneEventLog enforces the event log retention window.
func (s *Scheduler) pruneEventLog(ctx context.Context) error {
	n, err := s.eventService.DeleteOldEvents(ctx, s.retention)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned event log", "count", n, "retention", s.retention)
	}
	return nil
}

// reloadGeoIP picks up updated GeoIP database files without a restart.
func (s *Scheduler) reloadGeoIP(context.Context) error {
	if !s.geo.IsEnabled() {
		return nil
	}
	return s.geo.Reload()
}

// pruneRateLimiter bounds the per-IP limiter cache.
func (s *Scheduler) pruneRateLimiter(context.Context) error {
	if s.limiter.Prune(rateLimiterMaxEntries) {
		s.logger.Info("pruned rate limiter cache")
	}
	return nil
}
