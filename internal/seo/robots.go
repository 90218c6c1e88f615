// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
)

// gatedPaths are never worth crawling: auth flows, the reader dashboard,
// the admin back office and signed download endpoints.
var gatedPaths = []string{
	"/admin",
	"/dashboard",
	"/api",
	"/files",
	"/login",
	"/logout",
}

// GenerateRobots renders robots.txt. With disallowAll set every crawler
// is blocked, which is what staging deployments want. Otherwise the
// gated application paths are excluded and a sitemap reference is
// appended when siteURL is known.
func GenerateRobots(siteURL string, disallowAll bool, extraRules string) string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")

	if disallowAll {
		sb.WriteString("Disallow: /\n")
	} else {
		for _, path := range gatedPaths {
			sb.WriteString("Disallow: " + path + "\n")
		}
		sb.WriteString("Allow: /\n")
	}

	if extraRules != "" {
		sb.WriteString("\n" + extraRules)
		if !strings.HasSuffix(extraRules, "\n") {
			sb.WriteString("\n")
		}
	}

	if siteURL != "" && !disallowAll {
		sb.WriteString("\nSitemap: " + strings.TrimSuffix(siteURL, "/") + "/sitemap.xml\n")
	}

	return sb.String()
}
