// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the head metadata, JSON-LD structured data, and
// crawler files (robots.txt, sitemap.xml, security.txt) for the public
// site.
package seo

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
)

// descriptionLimit caps meta descriptions; search engines truncate
// around this length anyway.
const descriptionLimit = 160

// Meta is everything the base layout needs to fill the <head>.
type Meta struct {
	Title         string
	Description   string
	Keywords      string
	Canonical     string
	Robots        string
	OGTitle       string
	OGDescription string
	OGImage       string
	OGType        string
	OGSiteName    string
	OGURL         string
	TwitterCard   string
	JSONLD        template.JS
}

// PageData describes a single content page for meta building.
type PageData struct {
	Title         string
	Body          string
	FeaturedImage string
	CanonicalURL  string
	NoIndex       bool
}

// SiteConfig holds the site-wide values shared by every page's metadata.
type SiteConfig struct {
	SiteName        string
	SiteURL         string
	SiteDescription string
	DefaultOGImage  string
}

// BuildMeta assembles head metadata for page, falling back to the
// site-wide values. A nil page produces homepage metadata.
func BuildMeta(page *PageData, site *SiteConfig) *Meta {
	meta := &Meta{
		OGSiteName:  site.SiteName,
		TwitterCard: "summary_large_image",
	}

	if page == nil {
		meta.Title = site.SiteName
		meta.Description = site.SiteDescription
		meta.Canonical = site.SiteURL
		meta.OGType = "website"
		meta.OGImage = absoluteURL(site.DefaultOGImage, site.SiteURL)
		meta.Robots = "index,follow"
	} else {
		meta.Title = page.Title
		meta.Description = Excerpt(page.Body, descriptionLimit)
		meta.Canonical = page.CanonicalURL
		meta.OGType = "article"

		meta.OGImage = absoluteURL(page.FeaturedImage, site.SiteURL)
		if meta.OGImage == "" {
			meta.OGImage = absoluteURL(site.DefaultOGImage, site.SiteURL)
		}

		if page.NoIndex {
			meta.Robots = "noindex,nofollow"
		} else {
			meta.Robots = "index,follow"
		}
	}

	meta.OGTitle = meta.Title
	meta.OGDescription = meta.Description
	meta.OGURL = meta.Canonical
	return meta
}

// personSchema is a schema.org Person.
type personSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// orgSchema is a schema.org Organization.
type orgSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// offerSchema is a schema.org Offer attached to a Book.
type offerSchema struct {
	Type          string `json:"@type"`
	Price         string `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	Availability  string `json:"availability,omitempty"`
}

// bookSchema is schema.org Book structured data.
type bookSchema struct {
	Context     string       `json:"@context"`
	Type        string       `json:"@type"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	URL         string       `json:"url,omitempty"`
	Publisher   *orgSchema   `json:"publisher,omitempty"`
	Offers      *offerSchema `json:"offers,omitempty"`
}

// blogPostingSchema is schema.org BlogPosting structured data.
type blogPostingSchema struct {
	Context       string     `json:"@context"`
	Type          string     `json:"@type"`
	Headline      string     `json:"headline"`
	Description   string     `json:"description,omitempty"`
	Image         string     `json:"image,omitempty"`
	URL           string     `json:"url,omitempty"`
	DatePublished string     `json:"datePublished,omitempty"`
	DateModified  string     `json:"dateModified,omitempty"`
	Publisher     *orgSchema `json:"publisher,omitempty"`
}

// BuildBookSchema renders JSON-LD for a book detail page. Free books get
// a zero-price offer so rich results can show them as such.
func BuildBookSchema(b *model.Book, site *SiteConfig) template.JS {
	if b == nil {
		return ""
	}

	schema := bookSchema{
		Context:     "https://schema.org",
		Type:        "Book",
		Name:        b.Title,
		Description: Excerpt(b.Description, descriptionLimit),
		Image:       absoluteURL(b.CoverImage, site.SiteURL),
		URL:         site.SiteURL + "/books/" + b.Slug,
		Publisher: &orgSchema{
			Type: "Organization",
			Name: site.SiteName,
			URL:  site.SiteURL,
		},
	}

	price := b.Price
	if b.IsFree {
		price = 0
	}
	schema.Offers = &offerSchema{
		Type:          "Offer",
		Price:         fmt.Sprintf("%.2f", price),
		PriceCurrency: "USD",
		Availability:  "https://schema.org/InStock",
	}

	return marshalJSONLD(schema)
}

// BuildBlogSchema renders JSON-LD for a blog post page.
func BuildBlogSchema(b *model.Blog, site *SiteConfig) template.JS {
	if b == nil {
		return ""
	}

	schema := blogPostingSchema{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      b.Title,
		Description:   Excerpt(b.Content, descriptionLimit),
		Image:         absoluteURL(b.FeaturedImage, site.SiteURL),
		URL:           site.SiteURL + "/blog/" + b.Slug,
		DatePublished: b.CreatedAt.Format(time.RFC3339),
		Publisher: &orgSchema{
			Type: "Organization",
			Name: site.SiteName,
			URL:  site.SiteURL,
		},
	}
	if !b.UpdatedAt.IsZero() {
		schema.DateModified = b.UpdatedAt.Format(time.RFC3339)
	}

	return marshalJSONLD(schema)
}

func marshalJSONLD(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(data)
}

// Excerpt strips markup from body and truncates it at a word boundary.
func Excerpt(body string, maxLen int) string {
	text := strings.TrimSpace(stripTags(body))
	if len(text) <= maxLen {
		return text
	}

	cut := text[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

// stripTags drops HTML tags and collapses the remaining whitespace.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// absoluteURL prepends the site URL to relative paths. Already-absolute
// URLs pass through unchanged.
func absoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return strings.TrimSuffix(siteURL, "/") + url
}
