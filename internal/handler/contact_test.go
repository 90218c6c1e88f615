// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/mailer"
)

// captureMailer records sent messages for assertions.
type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (c *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func TestContactSubmit(t *testing.T) {
	db := testDB(t)
	mail := &captureMailer{}
	cfg := &config.Config{SiteName: "BookHaven", ContactEmail: "owner@example.com"}
	h := NewContactHandler(db, mail, cfg)

	rec := httptest.NewRecorder()
	h.Submit(rec, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Pat Reader",
		"email":   "pat@example.com",
		"subject": "Hello",
		"message": "Love the catalog.",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}
	if len(mail.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mail.sent))
	}
	msg := mail.sent[0]
	if msg.To != "owner@example.com" {
		t.Errorf("To = %q, want owner@example.com", msg.To)
	}
	if !strings.Contains(msg.HTML, "pat@example.com") {
		t.Errorf("notification body does not mention the sender: %q", msg.HTML)
	}
}

func TestContactSubmit_Validation(t *testing.T) {
	db := testDB(t)
	cfg := &config.Config{SiteName: "BookHaven", ContactEmail: "owner@example.com"}
	h := NewContactHandler(db, &captureMailer{}, cfg)

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"missing name", map[string]string{"email": "a@b.co", "message": "hi"}, "Name is required"},
		{"bad email", map[string]string{"name": "Pat", "email": "nope", "message": "hi"}, "A valid email address is required"},
		{"missing message", map[string]string{"name": "Pat", "email": "a@b.co"}, "Message is required"},
		{"long message", map[string]string{"name": "Pat", "email": "a@b.co", "message": strings.Repeat("x", maxContactMessageLength+1)}, "Message is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Submit(rec, jsonRequest(t, http.MethodPost, "/api/contact", tt.body))
			wantJSONError(t, rec, http.StatusBadRequest, tt.message)
		})
	}
}

func TestContactSubmit_NotConfigured(t *testing.T) {
	db := testDB(t)
	h := NewContactHandler(db, &captureMailer{}, &config.Config{SiteName: "BookHaven"})

	rec := httptest.NewRecorder()
	h.Submit(rec, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Pat", "email": "a@b.co", "message": "hi",
	}))

	wantJSONError(t, rec, http.StatusServiceUnavailable, "Contact form is not available")
}
