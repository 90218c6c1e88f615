// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to ISO country codes using a MaxMind
// GeoLite2-Country database. The download audit trail records the result.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Lookup wraps a maxminddb reader behind a RWMutex so the scheduler can
// swap in an updated database file while requests keep resolving.
type Lookup struct {
	mu      sync.RWMutex
	reader  *maxminddb.Reader
	path    string
	modTime time.Time
	enabled bool
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewLookup returns a disabled Lookup. Call Init to load a database.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init loads the database at path. An empty path disables lookups without
// error so deployments can run without the GeoLite2 file.
func (g *Lookup) Init(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.path = path
	if path == "" {
		g.enabled = false
		return nil
	}
	return g.open()
}

// Reload re-opens the database if the file changed on disk. The scheduler
// calls this periodically so GeoLite2 updates are picked up without a
// restart.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.path == "" {
		return nil
	}
	return g.open()
}

// open loads the database file. Caller holds the write lock.
func (g *Lookup) open() error {
	info, err := os.Stat(g.path)
	if err != nil {
		g.enabled = false
		return fmt.Errorf("stat geoip database: %w", err)
	}
	if g.reader != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	reader, err := maxminddb.Open(g.path)
	if err != nil {
		g.enabled = false
		return fmt.Errorf("open geoip database: %w", err)
	}

	if g.reader != nil {
		_ = g.reader.Close()
	}
	g.reader = reader
	g.modTime = info.ModTime()
	g.enabled = true
	return nil
}

// LookupCountry returns the two-letter ISO country code for ip, "LOCAL"
// for private and loopback addresses, or "" when the address is invalid
// or no database is loaded.
func (g *Lookup) LookupCountry(ip string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	addr := net.ParseIP(ip)
	if addr == nil {
		return ""
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
		return "LOCAL"
	}
	if !g.enabled || g.reader == nil {
		return ""
	}

	var rec countryRecord
	if err := g.reader.Lookup(addr, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// IsEnabled reports whether a database is loaded.
func (g *Lookup) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.enabled
}

// Close releases the underlying reader.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	g.enabled = false
	return err
}
