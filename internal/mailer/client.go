// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer delivers transactional email and newsletter campaigns
// through the Resend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// resendEndpoint is the Resend send-email API endpoint.
const resendEndpoint = "https://api.resend.com/emails"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Client sends email. Implementations must be safe for concurrent use.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// ResendClient sends email through the Resend API.
type ResendClient struct {
	apiKey     string
	from       string
	httpClient *http.Client
	endpoint   string
}

// NewResendClient creates a Resend API client. from is the sender address
// in "Name <addr@domain>" form.
func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		apiKey:   apiKey,
		from:     from,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sendRequest is the Resend API request body.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse is the Resend API response body.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"` // error description on failure
}

// Send delivers a single email.
func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshaling email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr sendResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("email API returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("email API returned %d", resp.StatusCode)
	}

	return nil
}

// NoopClient drops email on the floor, logging each message. Used when no
// API key is configured so registration flows still work in development.
type NoopClient struct{}

// Send logs the message instead of delivering it.
func (NoopClient) Send(_ context.Context, msg Message) error {
	slog.Info("email delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ Client = (*ResendClient)(nil)
	_ Client = NoopClient{}
)
