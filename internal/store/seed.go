// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/auth"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1234"
	DefaultAdminName     = "Administrator"
)

// defaultRegions are the layout slots created on first start.
var defaultRegions = []CreateRegionParams{
	{Key: "main", Title: "Main content", Inherited: false, Position: 0},
	{Key: "sidebar", Title: "Sidebar", Inherited: true, Position: 1},
}

// Seed creates the default admin user, template and regions if the
// database is empty. It is a no-op when doSeed is false.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         "admin",
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	slog.Info("created default admin user", "id", user.ID, "email", user.Email)

	if _, err := queries.CreateTemplate(ctx, CreateTemplateParams{
		Title:     "Standard",
		Path:      "base.html",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating default template: %w", err)
	}

	for _, region := range defaultRegions {
		region.CreatedAt = now
		if _, err := queries.CreateRegion(ctx, region); err != nil {
			return fmt.Errorf("creating region %s: %w", region.Key, err)
		}
	}

	return nil
}
