// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listTemplates = `SELECT id, title, path, created_at, updated_at FROM templates ORDER BY title`

func (q *Queries) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := q.db.QueryContext(ctx, listTemplates)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Title, &t.Path, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const createTemplate = `INSERT INTO templates (title, path, created_at, updated_at) VALUES (?, ?, ?, ?)
RETURNING id, title, path, created_at, updated_at`

type CreateTemplateParams struct {
	Title     string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error) {
	var t Template
	err := q.db.QueryRowContext(ctx, createTemplate, arg.Title, arg.Path, arg.CreatedAt, arg.UpdatedAt).
		Scan(&t.ID, &t.Title, &t.Path, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const templatePathExists = `SELECT COUNT(*) FROM templates WHERE path = ?`

func (q *Queries) TemplatePathExists(ctx context.Context, path string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, templatePathExists, path).Scan(&n)
	return n, err
}

const listRegions = `SELECT id, key, title, inherited, position, created_at FROM regions ORDER BY position, key`

func (q *Queries) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := q.db.QueryContext(ctx, listRegions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Region
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.ID, &r.Key, &r.Title, &r.Inherited, &r.Position, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createRegion = `INSERT INTO regions (key, title, inherited, position, created_at) VALUES (?, ?, ?, ?, ?)
RETURNING id, key, title, inherited, position, created_at`

type CreateRegionParams struct {
	Key       string
	Title     string
	Inherited bool
	Position  int64
	CreatedAt time.Time
}

func (q *Queries) CreateRegion(ctx context.Context, arg CreateRegionParams) (Region, error) {
	var r Region
	err := q.db.QueryRowContext(ctx, createRegion, arg.Key, arg.Title, arg.Inherited, arg.Position, arg.CreatedAt).
		Scan(&r.ID, &r.Key, &r.Title, &r.Inherited, &r.Position, &r.CreatedAt)
	return r, err
}

const regionKeyExists = `SELECT COUNT(*) FROM regions WHERE key = ?`

func (q *Queries) RegionKeyExists(ctx context.Context, key string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, regionKeyExists, key).Scan(&n)
	return n, err
}
