// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tts generates spoken audio for book descriptions through the
// OpenAI text-to-speech HTTP API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// speechEndpoint is the OpenAI speech synthesis endpoint.
const speechEndpoint = "https://api.openai.com/v1/audio/speech"

// MaxInputLength is the API's per-request character limit.
const MaxInputLength = 4096

// Client synthesizes speech from text.
type Client struct {
	apiKey     string
	voice      string
	httpClient *http.Client
	endpoint   string
}

// New creates a TTS client. voice selects the synthesis voice ("alloy",
// "echo", "nova", ...).
func New(apiKey, voice string) *Client {
	if voice == "" {
		voice = "alloy"
	}
	return &Client{
		apiKey:   apiKey,
		voice:    voice,
		endpoint: speechEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// speechRequest is the API request body.
type speechRequest struct {
	Model  string `json:"model"`
	Input  string `json:"input"`
	Voice  string `json:"voice"`
	Format string `json:"response_format"`
}

// apiError is the API error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts text to MP3 audio. Text longer than MaxInputLength
// is truncated at the limit.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty input text")
	}
	if len(text) > MaxInputLength {
		text = text[:MaxInputLength]
	}

	body, err := json.Marshal(speechRequest{
		Model:  "tts-1",
		Input:  text,
		Voice:  c.voice,
		Format: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating speech request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling speech API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("speech API returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("speech API returned %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio response: %w", err)
	}
	return audio, nil
}
