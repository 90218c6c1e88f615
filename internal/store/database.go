// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // database/sql driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// connPragmas are applied to every pooled connection through the DSN.
// Running them with Exec would only configure whichever connection the
// pool happened to hand out.
var connPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"cache_size(-64000)",
	"temp_store(MEMORY)",
}

// NewDB opens the SQLite database at path with WAL mode and a pool
// sized for a read-heavy site.
func NewDB(path string) (*sql.DB, error) {
	var dsn strings.Builder
	dsn.WriteString("file:")
	dsn.WriteString(path)
	for i, p := range connPragmas {
		if i == 0 {
			dsn.WriteString("?")
		} else {
			dsn.WriteString("&")
		}
		dsn.WriteString("_pragma=" + p)
	}

	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL allows many readers alongside the single writer.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Migrate applies pending goose migrations from the embedded FS.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
