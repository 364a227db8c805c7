// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the admin session manager.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Lifetime is how long an admin session stays valid.
const Lifetime = 12 * time.Hour

// New creates a session manager backed by the sessions table of db.
// Production cookies use the __Host- prefix, which requires Secure and
// Path=/.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	if isDev {
		sm.Cookie.Name = "pagetree_session"
	} else {
		sm.Cookie.Name = "__Host-pagetree_session"
		sm.Cookie.Secure = true
	}

	return sm
}
