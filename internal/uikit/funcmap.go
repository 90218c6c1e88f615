// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit holds the view-layer helpers shared by every template:
// the function map, pagination building, and breadcrumb types.
package uikit

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

// Display formats used across the site and the back office.
const (
	dateFormat     = "Jan 2, 2006"
	dateTimeFormat = "Jan 2, 2006 3:04 PM"
)

// TemplateFuncs returns the helper functions available in every
// template. The renderer merges its own funcs (markdown, siteName) on
// top of these.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"truncate": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "..."
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},

		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },

		"formatDate": func(t time.Time) string {
			return t.Format(dateFormat)
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format(dateTimeFormat)
		},
		"formatDatePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(dateFormat)
		},

		"formatNumber": FormatNumber,
		"formatBytes":  FormatBytes,
		"formatPrice": func(price float64) string {
			return fmt.Sprintf("$%.2f", price)
		},

		// prettyJSON re-indents event metadata for the admin event log.
		// Invalid input is shown as-is rather than hidden.
		"prettyJSON": func(s string) string {
			var v any
			if err := json.Unmarshal([]byte(s), &v); err != nil {
				return s
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return s
			}
			return string(out)
		},
	}
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	start := 0
	if strings.HasPrefix(s, "-") {
		start = 1
	}
	if len(s)-start <= 3 {
		return s
	}

	var b strings.Builder
	b.WriteString(s[:start])
	for i := start; i < len(s); i++ {
		if i > start && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatBytes renders a byte count in binary units, as shown on the
// admin storage page.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
