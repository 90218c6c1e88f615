// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"time"
)

// GenerateSecurityTxt renders an RFC 9116 security.txt file. Contact is
// the vulnerability reporting address (a mailto: or https: URI). A zero
// expires falls back to one year out, the longest lifetime the RFC
// recommends.
func GenerateSecurityTxt(contact, canonical string, expires time.Time) string {
	if expires.IsZero() {
		expires = time.Now().AddDate(1, 0, 0)
	}

	var sb strings.Builder
	sb.WriteString("Contact: " + contact + "\n")
	sb.WriteString("Expires: " + expires.Format(time.RFC3339) + "\n")
	if canonical != "" {
		sb.WriteString("Canonical: " + strings.TrimSuffix(canonical, "/") + "/.well-known/security.txt\n")
	}
	return sb.String()
}
