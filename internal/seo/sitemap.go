// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapEntry contains data needed to add a catalog item to the sitemap.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML from the published catalog.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: siteURL,
		urls:    make([]SitemapURL, 0),
	}
}

// AddHomepage adds the homepage to the sitemap.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL,
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddStatic adds a fixed public page to the sitemap.
func (b *SitemapBuilder) AddStatic(path string, freq ChangeFreq, priority string) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + path,
		ChangeFreq: freq,
		Priority:   priority,
	})
}

// AddBook adds a book detail page to the sitemap.
func (b *SitemapBuilder) AddBook(book SitemapEntry) {
	url := SitemapURL{
		Loc:        b.siteURL + "/books/" + book.Slug,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	}
	if !book.UpdatedAt.IsZero() {
		url.LastMod = book.UpdatedAt.Format(time.RFC3339)
	}
	b.urls = append(b.urls, url)
}

// AddBooks adds multiple books to the sitemap.
func (b *SitemapBuilder) AddBooks(books []SitemapEntry) {
	for _, e := range books {
		b.AddBook(e)
	}
}

// AddBlog adds a blog post page to the sitemap.
func (b *SitemapBuilder) AddBlog(post SitemapEntry) {
	url := SitemapURL{
		Loc:        b.siteURL + "/blog/" + post.Slug,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.7",
	}
	if !post.UpdatedAt.IsZero() {
		url.LastMod = post.UpdatedAt.Format(time.RFC3339)
	}
	b.urls = append(b.urls, url)
}

// AddBlogs adds multiple blog posts to the sitemap.
func (b *SitemapBuilder) AddBlogs(posts []SitemapEntry) {
	for _, e := range posts {
		b.AddBlog(e)
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap is a convenience function to generate a sitemap from the
// published catalog.
func GenerateSitemap(siteURL string, books, blogs []SitemapEntry) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage()
	builder.AddStatic("/books", ChangeFreqDaily, "0.9")
	builder.AddStatic("/blog", ChangeFreqDaily, "0.9")
	builder.AddStatic("/contact", ChangeFreqMonthly, "0.3")
	builder.AddBooks(books)
	builder.AddBlogs(blogs)
	return builder.Build()
}
