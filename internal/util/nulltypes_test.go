// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"
	"time"
)

func TestNullTime(t *testing.T) {
	now := time.Now()
	nt := NullTime(now)
	if !nt.Valid {
		t.Error("expected valid NullTime")
	}
	if !nt.Time.Equal(now) {
		t.Errorf("expected %v, got %v", now, nt.Time)
	}
}

func TestNullInt64(t *testing.T) {
	ni := NullInt64(42)
	if !ni.Valid {
		t.Error("expected valid NullInt64")
	}
	if ni.Int64 != 42 {
		t.Errorf("expected 42, got %d", ni.Int64)
	}

	// Zero is a legitimate value, not a null marker.
	if !NullInt64(0).Valid {
		t.Error("expected NullInt64(0) to be valid")
	}
}

func TestNullString(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
	}{
		{"hello", true},
		{" ", true},
		{"", false},
	}
	for _, tt := range tests {
		ns := NullString(tt.in)
		if ns.Valid != tt.wantValid {
			t.Errorf("NullString(%q).Valid = %v, want %v", tt.in, ns.Valid, tt.wantValid)
		}
		if ns.Valid && ns.String != tt.in {
			t.Errorf("NullString(%q).String = %q", tt.in, ns.String)
		}
	}
}
