// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestLookupCountry_Disabled(t *testing.T) {
	g := NewLookup()

	// Uninitialized lookups return empty
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("uninitialized lookup = %q, want empty", got)
	}

	// Initialized with no database: private IPs still resolve to LOCAL
	if err := g.Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if g.IsEnabled() {
		t.Error("lookup enabled without database")
	}

	tests := []struct {
		ip   string
		want string
	}{
		{"192.168.1.10", "LOCAL"},
		{"10.0.0.1", "LOCAL"},
		{"127.0.0.1", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"8.8.8.8", ""}, // no database loaded
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := g.LookupCountry(tt.ip); got != tt.want {
			t.Errorf("LookupCountry(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestInit_MissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Error("expected error for missing database file")
	}
	if g.IsEnabled() {
		t.Error("lookup enabled after failed init")
	}
}
