// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"covers/abc.jpg", false},
		{"books/deep/nested/file.pdf", false},
		{"file.txt", false},
		{"..", true},
		{"../secrets", true},
		{"covers/../../etc/passwd", true},
		{"covers/./../../x", true},
		{"covers/..", false}, // cleans to "."
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ContainsPathTraversal(tt.path); got != tt.want {
				t.Errorf("ContainsPathTraversal(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "covers", "abc.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(base, "covers", "abc.jpg")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSafeJoinPathRejectsEscape(t *testing.T) {
	base := t.TempDir()

	if _, err := SafeJoinPath(base, "..", "outside.txt"); err == nil {
		t.Error("expected error for path escaping base")
	}
	if _, err := SafeJoinPath(base, "covers/../../../etc/passwd"); err == nil {
		t.Error("expected error for nested traversal")
	}
}

func TestSafeJoinPathSiblingPrefix(t *testing.T) {
	base := t.TempDir()
	sibling := base + "-evil"

	_, err := SafeJoinPath(base, "../"+filepath.Base(sibling)+"/x")
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Errorf("expected escape error, got %v", err)
	}
}
