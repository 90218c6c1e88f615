// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError_Shape(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusForbidden, "Unauthorized")

	wantJSONError(t, rec, http.StatusForbidden, "Unauthorized")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@b.co"}`, false},
		{"unknown field", `{"email":"a@b.co","extra":1}`, true},
		{"trailing object", `{"email":"a@b.co"}{"email":"c@d.co"}`, true},
		{"not JSON", `hello`, true},
		{"empty body", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := decodeJSON(rec, r, &dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeJSON(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_OversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	big := `{"email":"` + strings.Repeat("a", maxJSONBodySize) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var dst struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(rec, r, &dst); err == nil {
		t.Error("expected error for oversized body")
	}
}
