// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSecurityTxt(t *testing.T) {
	expires := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	got := GenerateSecurityTxt("mailto:security@bookhaven.example.com", "https://bookhaven.example.com/", expires)

	want := "Contact: mailto:security@bookhaven.example.com\n" +
		"Expires: 2027-01-15T00:00:00Z\n" +
		"Canonical: https://bookhaven.example.com/.well-known/security.txt\n"
	if got != want {
		t.Errorf("GenerateSecurityTxt() =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerateSecurityTxtDefaults(t *testing.T) {
	got := GenerateSecurityTxt("mailto:security@bookhaven.example.com", "", time.Time{})

	if strings.Contains(got, "Canonical:") {
		t.Error("empty canonical should be omitted")
	}
	if !strings.Contains(got, "Expires: ") {
		t.Error("zero expires should fall back to a default")
	}
}
