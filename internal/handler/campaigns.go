// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/service"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/uikit"
	"github.com/sophiabent/bookhaven/internal/util"
)

// CampaignHandler handles admin newsletter campaign management.
type CampaignHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	dispatcher   *mailer.Dispatcher
	eventService *service.EventService
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(db *sql.DB, renderer *render.Renderer, dispatcher *mailer.Dispatcher) *CampaignHandler {
	return &CampaignHandler{
		queries:      store.New(db),
		renderer:     renderer,
		dispatcher:   dispatcher,
		eventService: service.NewEventService(db),
	}
}

// List renders the campaign listing with subscriber stats.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)

	campaigns, err := h.queries.ListCampaigns(r.Context(), adminPageSize, int64((page-1)*adminPageSize))
	if err != nil {
		logAndInternalError(w, "failed to list campaigns", "error", err)
		return
	}
	total, err := h.queries.CountCampaigns(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count campaigns", "error", err)
		return
	}
	subscribers, err := h.queries.CountActiveSubscribers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count subscribers", "error", err)
		return
	}

	pagination := uikit.BuildAdminPagination(page, int(total), adminPageSize, redirectAdminCampaigns, r.URL.Query())

	h.renderer.RenderPage(w, r, "admin/campaigns", render.TemplateData{
		Title: "Newsletter",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Campaigns":   campaigns,
			"Subscribers": subscribers,
			"Pagination":  pagination,
		},
	})
}

// NewForm renders the campaign creation form.
func (h *CampaignHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderPage(w, r, "admin/campaign_form", render.TemplateData{
		Title: "New Campaign",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Campaign": model.Campaign{Status: model.CampaignStatusDraft},
			"IsNew":    true,
		},
	})
}

// Create handles the campaign creation form submission.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	const newURL = redirectAdminCampaigns + RouteSuffixNew

	if !parseFormOrRedirect(w, r, h.renderer, newURL) {
		return
	}

	form, errMsg := parseCampaignForm(r)
	if errMsg != "" {
		flashError(w, r, h.renderer, newURL, errMsg)
		return
	}

	now := time.Now()
	campaign, err := h.queries.CreateCampaign(r.Context(), store.CreateCampaignParams{
		Subject:     form.Subject,
		PreviewText: form.PreviewText,
		Content:     form.Content,
		Status:      form.Status,
		ScheduledAt: form.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to create campaign", "error", err)
		flashError(w, r, h.renderer, newURL, "Failed to create campaign")
		return
	}

	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "newsletter", "Campaign created", userID, clientIP(r),
		map[string]any{"campaign_id": campaign.ID, "subject": campaign.Subject})

	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign created")
}

// EditForm renders the campaign edit form. Sent campaigns are read-only.
func (h *CampaignHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Invalid campaign ID")
		return
	}

	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (model.Campaign, error) { return h.queries.GetCampaignByID(r.Context(), id) })
	if !ok {
		return
	}

	h.renderer.RenderPage(w, r, "admin/campaign_form", render.TemplateData{
		Title: "Edit Campaign",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Campaign": campaign,
			"IsNew":    false,
			"ReadOnly": !campaign.IsSendable(),
		},
	})
}

// Update handles the campaign edit form submission. Only draft and scheduled
// campaigns can change.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Invalid campaign ID")
		return
	}
	editURL := redirectAdminCampaigns + "/" + strconv.FormatInt(id, 10) + "/edit"

	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (model.Campaign, error) { return h.queries.GetCampaignByID(r.Context(), id) })
	if !ok {
		return
	}
	if !campaign.IsSendable() {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Campaign can no longer be edited")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	form, errMsg := parseCampaignForm(r)
	if errMsg != "" {
		flashError(w, r, h.renderer, editURL, errMsg)
		return
	}

	if err := h.queries.UpdateCampaign(r.Context(), store.UpdateCampaignParams{
		ID:          id,
		Subject:     form.Subject,
		PreviewText: form.PreviewText,
		Content:     form.Content,
		Status:      form.Status,
		ScheduledAt: form.ScheduledAt,
		UpdatedAt:   time.Now(),
	}); err != nil {
		slog.Error("failed to update campaign", "error", err, "campaign_id", id)
		flashError(w, r, h.renderer, editURL, "Failed to update campaign")
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign updated")
}

// Send queues a campaign for immediate delivery.
func (h *CampaignHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Invalid campaign ID")
		return
	}

	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (model.Campaign, error) { return h.queries.GetCampaignByID(r.Context(), id) })
	if !ok {
		return
	}
	if !campaign.IsSendable() {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Campaign has already been sent")
		return
	}

	if !h.dispatcher.Enqueue(id) {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Delivery queue is full, try again shortly")
		return
	}

	userID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogEvent(r.Context(), "info", "newsletter", "Campaign queued for delivery", userID, clientIP(r),
		map[string]any{"campaign_id": id, "subject": campaign.Subject})

	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign queued for delivery")
}

// Delete removes a campaign that has not been delivered.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Invalid campaign ID")
		return
	}

	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (model.Campaign, error) { return h.queries.GetCampaignByID(r.Context(), id) })
	if !ok {
		return
	}
	if campaign.Status == model.CampaignStatusSending {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Campaign is being delivered and cannot be deleted")
		return
	}

	if err := h.queries.DeleteCampaign(r.Context(), id); err != nil {
		slog.Error("failed to delete campaign", "error", err, "campaign_id", id)
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Failed to delete campaign")
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign deleted")
}

// campaignForm carries validated campaign form values.
type campaignForm struct {
	Subject     string
	PreviewText string
	Content     string
	Status      string
	ScheduledAt sql.NullTime
}

// parseCampaignForm validates subject, content, and the optional schedule.
// A future scheduled_at sets status to scheduled, otherwise the campaign
// stays a draft.
func parseCampaignForm(r *http.Request) (campaignForm, string) {
	var form campaignForm

	form.Subject = strings.TrimSpace(r.FormValue("subject"))
	if form.Subject == "" {
		return form, "Subject is required"
	}
	form.PreviewText = strings.TrimSpace(r.FormValue("preview_text"))

	form.Content = r.FormValue("content")
	if strings.TrimSpace(form.Content) == "" {
		return form, "Content is required"
	}

	form.Status = model.CampaignStatusDraft
	if raw := strings.TrimSpace(r.FormValue("scheduled_at")); raw != "" {
		at, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
		if err != nil {
			return form, "Invalid schedule time"
		}
		if at.Before(time.Now()) {
			return form, "Schedule time must be in the future"
		}
		form.ScheduledAt = util.NullTime(at)
		form.Status = model.CampaignStatusScheduled
	}

	return form, ""
}
