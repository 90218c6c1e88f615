// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination drives the public catalog and blog pagers.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	HasFirst    bool
	HasLast     bool
	PrevURL     string
	NextURL     string
	FirstURL    string
	LastURL     string
	Pages       []PaginationPage
}

// PaginationPage is one slot in the pager: a numbered link, the current
// page, or an ellipsis gap.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// AdminPagination drives the back-office tables. URLs are computed by
// methods so the template stays free of string assembly.
type AdminPagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasFirst    bool
	HasPrev     bool
	HasNext     bool
	HasLast     bool
	Pages       []PaginationPage

	baseURL string
	query   string
}

// BuildPagination assembles the public pager. baseURL is the path
// without a query string; queryParams are the active filters to carry
// through page links.
func BuildPagination(currentPage int, totalItems int64, perPage int, baseURL string, queryParams url.Values) Pagination {
	totalPages := totalPages(int(totalItems), perPage)
	query := filterQuery(queryParams)
	link := func(page int) string { return pageLink(baseURL, query, page) }

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		HasFirst:    currentPage > 1,
		HasLast:     currentPage < totalPages,
		Pages:       windowPages(currentPage, totalPages, link),
	}
	if p.HasPrev {
		p.PrevURL = link(currentPage - 1)
		p.FirstURL = link(1)
	}
	if p.HasNext {
		p.NextURL = link(currentPage + 1)
		p.LastURL = link(totalPages)
	}
	return p
}

// BuildAdminPagination assembles the back-office pager.
func BuildAdminPagination(currentPage, totalItems, perPage int, baseURL string, queryParams url.Values) AdminPagination {
	total := totalPages(totalItems, perPage)
	query := filterQuery(queryParams)

	p := AdminPagination{
		CurrentPage: currentPage,
		TotalPages:  total,
		TotalItems:  int64(totalItems),
		PerPage:     perPage,
		HasFirst:    currentPage > 1,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < total,
		HasLast:     currentPage < total,
		baseURL:     baseURL,
		query:       query,
	}
	p.Pages = windowPages(currentPage, total, p.PageURL)
	return p
}

// PageURL returns the link for one page, preserving active filters.
func (p AdminPagination) PageURL(page int) string {
	return pageLink(p.baseURL, p.query, page)
}

func (p AdminPagination) FirstURL() string { return p.PageURL(1) }
func (p AdminPagination) PrevURL() string  { return p.PageURL(p.CurrentPage - 1) }
func (p AdminPagination) NextURL() string  { return p.PageURL(p.CurrentPage + 1) }
func (p AdminPagination) LastURL() string  { return p.PageURL(p.TotalPages) }

// ShouldShow reports whether the pager is worth rendering.
func (p AdminPagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// PageRange describes the rows on screen, e.g. "21-40".
func (p AdminPagination) PageRange() string {
	start := (p.CurrentPage-1)*p.PerPage + 1
	end := p.CurrentPage * p.PerPage
	if end > int(p.TotalItems) {
		end = int(p.TotalItems)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// filterQuery re-encodes the request query without the page parameter
// or empty values.
func filterQuery(q url.Values) string {
	if q == nil {
		return ""
	}
	kept := make(url.Values)
	for k, v := range q {
		if k != "page" && len(v) > 0 && v[0] != "" {
			kept[k] = v
		}
	}
	return kept.Encode()
}

func pageLink(baseURL, query string, page int) string {
	if query != "" {
		return fmt.Sprintf("%s?%s&page=%d", baseURL, query, page)
	}
	return fmt.Sprintf("%s?page=%d", baseURL, page)
}

// windowPages builds a window of up to five numbered links around the
// current page, bracketed by the first and last pages with ellipses
// over any gaps.
func windowPages(current, total int, link func(int) string) []PaginationPage {
	lo, hi := current-2, current+2
	if lo < 1 {
		lo, hi = 1, 5
	}
	if hi > total {
		hi = total
		if lo = hi - 4; lo < 1 {
			lo = 1
		}
	}

	var pages []PaginationPage
	if lo > 1 {
		pages = append(pages, PaginationPage{Number: 1, URL: link(1)})
		if lo > 2 {
			pages = append(pages, PaginationPage{IsEllipsis: true})
		}
	}
	for i := lo; i <= hi; i++ {
		pages = append(pages, PaginationPage{Number: i, URL: link(i), IsCurrent: i == current})
	}
	if hi < total {
		if hi < total-1 {
			pages = append(pages, PaginationPage{IsEllipsis: true})
		}
		pages = append(pages, PaginationPage{Number: total, URL: link(total)})
	}
	return pages
}

func totalPages(totalItems, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	n := (totalItems + perPage - 1) / perPage
	if n < 1 {
		n = 1
	}
	return n
}

// ParsePageParam reads the "page" query parameter, defaulting to 1.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParseIntParam reads an integer query parameter, returning defaultVal
// when it is missing, malformed, or outside [minVal, maxVal]. A zero
// maxVal means unbounded.
func ParseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	s := r.URL.Query().Get(param)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || (minVal > 0 && v < minVal) || (maxVal > 0 && v > maxVal) {
		return defaultVal
	}
	return v
}

// ParseQueryInt64 reads a positive int64 query parameter, returning 0
// when absent or invalid.
func ParseQueryInt64(r *http.Request, name string) int64 {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}
