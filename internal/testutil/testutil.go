// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the page tree admin.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary file database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "pagetree-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates a migrated in-memory SQLite database on the cgo
// driver. The pool is limited to one connection since every connection to
// ":memory:" would otherwise see its own empty database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// Fixture holds the reference rows created by SeedFixture.
type Fixture struct {
	Admin    store.User
	Editor   store.User
	Template store.Template
	Regions  []store.Region
}

// SeedFixture creates an admin, an editor, one template and the main and
// sidebar regions.
func SeedFixture(t *testing.T, db *sql.DB) Fixture {
	t.Helper()
	ctx := context.Background()
	q := store.New(db)
	now := time.Now()

	var fx Fixture
	var err error
	fx.Admin, err = q.CreateUser(ctx, store.CreateUserParams{
		Email: "admin@example.com", PasswordHash: "x", Role: "admin", Name: "Admin", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	fx.Editor, err = q.CreateUser(ctx, store.CreateUserParams{
		Email: "editor@example.com", PasswordHash: "x", Role: "editor", Name: "Editor", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser editor: %v", err)
	}
	fx.Template, err = q.CreateTemplate(ctx, store.CreateTemplateParams{
		Title: "Standard", Path: "base.html", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	for i, key := range []string{"main", "sidebar"} {
		r, err := q.CreateRegion(ctx, store.CreateRegionParams{
			Key: key, Title: key, Inherited: key == "sidebar", Position: int64(i), CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateRegion %s: %v", key, err)
		}
		fx.Regions = append(fx.Regions, r)
	}
	return fx
}

// CreatePage inserts a page with explicit nested-set columns.
func CreatePage(t *testing.T, db *sql.DB, title string, parentID, treeID, lft, rght, level int64) store.Page {
	t.Helper()
	now := time.Now()
	p, err := store.New(db).CreatePage(context.Background(), store.CreatePageParams{
		Active:       true,
		InNavigation: true,
		Title:        title,
		Slug:         title,
		ParentID:     sql.NullInt64{Int64: parentID, Valid: parentID != 0},
		Language:     "en",
		TreeID:       treeID,
		Lft:          lft,
		Rght:         rght,
		Level:        level,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreatePage %s: %v", title, err)
	}
	return p
}
