// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should never be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should never be empty")
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.2.3",
		GitCommit: "abc1234",
		BuildTime: "2026-01-30T12:00:00Z",
	}

	got := info.String()
	for _, want := range []string{"v1.2.3", "abc1234", "2026-01-30T12:00:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
