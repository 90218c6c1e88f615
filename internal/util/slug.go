// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared across handlers: slug
// generation, nullable SQL wrappers, and path safety checks.
package util

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes accented characters and drops the combining
// marks, so "café" becomes "cafe" before transliteration.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a title into a URL slug: accents stripped, non-Latin
// scripts transliterated to ASCII, spaces collapsed into single hyphens,
// punctuation dropped.
func Slugify(s string) string {
	stripped, _, _ := transform.String(accentStripper, s)
	ascii := strings.ToLower(unidecode.Unidecode(stripped))

	var b strings.Builder
	b.Grow(len(ascii))
	pendingHyphen := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
		case r == ' ' || r == '-' || r == '_':
			pendingHyphen = true
		}
	}
	return b.String()
}

// IsValidSlug reports whether s is already in canonical slug form:
// lowercase alphanumerics with single interior hyphens.
func IsValidSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			prevHyphen = false
		case r == '-':
			if prevHyphen {
				return false
			}
			prevHyphen = true
		default:
			return false
		}
	}
	return true
}
