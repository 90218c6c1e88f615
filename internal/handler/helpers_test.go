// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSafeCallbackURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty falls back", "", "/dashboard"},
		{"local path", "/books/123", "/books/123"},
		{"local path with query", "/books?page=2", "/books?page=2"},
		{"absolute URL rejected", "https://evil.example.com/phish", "/dashboard"},
		{"protocol-relative rejected", "//evil.example.com", "/dashboard"},
		{"schemeless host rejected", "evil.example.com/x", "/dashboard"},
		{"relative path rejected", "books/123", "/dashboard"},
		{"javascript scheme rejected", "javascript:alert(1)", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeCallbackURL(tt.raw, "/dashboard"); got != tt.want {
				t.Errorf("safeCallbackURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseListQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/books?page=3&limit=5&category=fiction&search=sea", nil)
	q := parseListQuery(r)
	if q.Page != 3 || q.Limit != 5 || q.Offset != 10 {
		t.Errorf("got page=%d limit=%d offset=%d, want 3/5/10", q.Page, q.Limit, q.Offset)
	}
	if q.Category != "fiction" || q.Search != "sea" {
		t.Errorf("got category=%q search=%q", q.Category, q.Search)
	}

	// Defaults and clamping.
	r = httptest.NewRequest(http.MethodGet, "/api/books?page=-2&limit=9000", nil)
	q = parseListQuery(r)
	if q.Page != 1 {
		t.Errorf("page = %d, want 1", q.Page)
	}
	if q.Limit != maxPageSize {
		t.Errorf("limit = %d, want %d", q.Limit, maxPageSize)
	}
}

func TestParseBoolFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?free=true&premium=0&junk=maybe", nil)

	if v := parseBoolFilter(r, "free"); !v.Valid || !v.Bool {
		t.Errorf("free = %+v, want valid true", v)
	}
	if v := parseBoolFilter(r, "premium"); !v.Valid || v.Bool {
		t.Errorf("premium = %+v, want valid false", v)
	}
	if v := parseBoolFilter(r, "junk"); v.Valid {
		t.Errorf("junk = %+v, want invalid", v)
	}
	if v := parseBoolFilter(r, "absent"); v.Valid {
		t.Errorf("absent = %+v, want invalid", v)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "reader@example.com", "first.last+tag@sub.example.org"}
	for _, e := range valid {
		if !validEmail(e) {
			t.Errorf("validEmail(%q) = false, want true", e)
		}
	}

	invalid := []string{"", "plain", "@example.com", "a@", "Reader <reader@example.com>", "a b@example.com"}
	for _, e := range invalid {
		if validEmail(e) {
			t.Errorf("validEmail(%q) = true, want false", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if msg := validatePassword("short"); msg == "" {
		t.Error("expected error for short password")
	}
	if msg := validatePassword("long-enough-password"); msg != "" {
		t.Errorf("unexpected error: %q", msg)
	}
}

func TestNewPageMeta(t *testing.T) {
	m := newPageMeta(2, 10, 25)
	if m.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", m.TotalPages)
	}
	m = newPageMeta(1, 10, 30)
	if m.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", m.TotalPages)
	}
	m = newPageMeta(1, 10, 0)
	if m.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", m.TotalPages)
	}
}
