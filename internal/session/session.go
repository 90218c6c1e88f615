// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wires alexedwards/scs to the application database so
// reader and admin logins survive restarts.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

const (
	// cookieName carries the session token. The double underscore keeps
	// it sorted ahead of tracking cookies in browser dev tools.
	cookieName = "__bookhaven_session"

	// lifetime bounds how long a login lasts regardless of activity.
	lifetime = 7 * 24 * time.Hour

	// idleTimeout expires sessions that go quiet, shorter than the hard
	// lifetime so abandoned admin sessions do not linger a full week.
	idleTimeout = 48 * time.Hour
)

// New builds the session manager backed by the sessions table. Secure
// cookies are disabled in development so plain-HTTP localhost works.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = lifetime
	sm.IdleTimeout = idleTimeout
	sm.Cookie.Name = cookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	return sm
}
