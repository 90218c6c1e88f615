// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sophiabent/bookhaven/internal/uikit"
)

// parseIDParam extracts and parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// listQuery holds the common public listing filters.
type listQuery struct {
	Page     int64
	Limit    int64
	Offset   int64
	Category string
	Search   string
}

// parseListQuery reads page/limit/category/search from the query string.
// Page defaults to 1; limit defaults to defaultPageSize and is clamped
// to [1, maxPageSize].
func parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()

	page := uikit.ParseQueryInt64(r, "page")
	if page < 1 {
		page = 1
	}
	limit := int64(uikit.ParseIntParam(r, "limit", defaultPageSize, 1, maxPageSize))

	return listQuery{
		Page:     page,
		Limit:    limit,
		Offset:   (page - 1) * limit,
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
}

// parseBoolFilter reads an optional tri-state boolean query parameter.
// Absent or unparseable values yield an invalid NullBool (no filtering).
func parseBoolFilter(r *http.Request, name string) sql.NullBool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return sql.NullBool{}
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: v, Valid: true}
}

// clientIP returns the caller's IP address. RealIP middleware has already
// folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// safeCallbackURL validates a post-login callback target. Only local
// absolute paths are allowed; anything else falls back to def.
func safeCallbackURL(raw, def string) string {
	if raw == "" {
		return def
	}
	u, err := url.Parse(raw)
	if err != nil {
		return def
	}
	if u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return def
	}
	return u.Path + formatQuery(u)
}

func formatQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
