// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const pageColumns = `id, active, in_navigation, template_id, title, slug, parent_id, language,
override_url, meta_keywords, meta_description, tree_id, lft, rght, level, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (Page, error) {
	var p Page
	err := row.Scan(
		&p.ID,
		&p.Active,
		&p.InNavigation,
		&p.TemplateID,
		&p.Title,
		&p.Slug,
		&p.ParentID,
		&p.Language,
		&p.OverrideUrl,
		&p.MetaKeywords,
		&p.MetaDescription,
		&p.TreeID,
		&p.Lft,
		&p.Rght,
		&p.Level,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	defer func() { _ = rows.Close() }()
	var items []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPage = `INSERT INTO pages (
    active, in_navigation, template_id, title, slug, parent_id, language,
    override_url, meta_keywords, meta_description, tree_id, lft, rght, level,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

type CreatePageParams struct {
	Active          bool
	InNavigation    bool
	TemplateID      sql.NullInt64
	Title           string
	Slug            string
	ParentID        sql.NullInt64
	Language        string
	OverrideUrl     string
	MetaKeywords    string
	MetaDescription string
	TreeID          int64
	Lft             int64
	Rght            int64
	Level           int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.Active,
		arg.InNavigation,
		arg.TemplateID,
		arg.Title,
		arg.Slug,
		arg.ParentID,
		arg.Language,
		arg.OverrideUrl,
		arg.MetaKeywords,
		arg.MetaDescription,
		arg.TreeID,
		arg.Lft,
		arg.Rght,
		arg.Level,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPageByID = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	row := q.db.QueryRowContext(ctx, getPageByID, id)
	return scanPage(row)
}

const updatePage = `UPDATE pages SET
    active = ?, in_navigation = ?, template_id = ?, title = ?, slug = ?, parent_id = ?,
    language = ?, override_url = ?, meta_keywords = ?, meta_description = ?, updated_at = ?
WHERE id = ?
RETURNING ` + pageColumns

type UpdatePageParams struct {
	ID              int64
	Active          bool
	InNavigation    bool
	TemplateID      sql.NullInt64
	Title           string
	Slug            string
	ParentID        sql.NullInt64
	Language        string
	OverrideUrl     string
	MetaKeywords    string
	MetaDescription string
	UpdatedAt       time.Time
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, updatePage,
		arg.Active,
		arg.InNavigation,
		arg.TemplateID,
		arg.Title,
		arg.Slug,
		arg.ParentID,
		arg.Language,
		arg.OverrideUrl,
		arg.MetaKeywords,
		arg.MetaDescription,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPage(row)
}

const deletePage = `DELETE FROM pages WHERE id = ?`

// DeletePage removes a page. Blocks and descendant pages go with it through
// ON DELETE CASCADE. Returns the number of page rows removed directly.
func (q *Queries) DeletePage(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePage, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPages = `SELECT COUNT(*) FROM pages`

func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPages).Scan(&count)
	return count, err
}

const listPagesInTreeOrder = `SELECT ` + pageColumns + ` FROM pages ORDER BY tree_id, lft, id`

func (q *Queries) ListPagesInTreeOrder(ctx context.Context) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listPagesInTreeOrder)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// PageFilter narrows the changelist. Nil pointers mean "no filter".
type PageFilter struct {
	Active       *bool
	InNavigation *bool
	Language     string
	TemplateID   *int64
	Search       string
}

// ListPagesFiltered returns pages matching filter in tree order.
func (q *Queries) ListPagesFiltered(ctx context.Context, filter PageFilter) ([]Page, error) {
	var (
		where []string
		args  []any
	)
	if filter.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *filter.Active)
	}
	if filter.InNavigation != nil {
		where = append(where, "in_navigation = ?")
		args = append(args, *filter.InNavigation)
	}
	if filter.Language != "" {
		where = append(where, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.TemplateID != nil {
		where = append(where, "template_id = ?")
		args = append(args, *filter.TemplateID)
	}
	for _, term := range strings.Fields(filter.Search) {
		like := "%" + escapeLike(term) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\' OR meta_keywords LIKE ? ESCAPE '\' OR meta_description LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}

	query := `SELECT ` + pageColumns + ` FROM pages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY tree_id, lft, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const listLanguages = `SELECT DISTINCT language FROM pages ORDER BY language`

// ListPageLanguages returns the distinct languages used by pages.
func (q *Queries) ListPageLanguages(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		items = append(items, lang)
	}
	return items, rows.Err()
}

const updatePageTreePosition = `UPDATE pages SET tree_id = ?, parent_id = ?, lft = ?, rght = ?, level = ? WHERE id = ?`

type UpdatePageTreePositionParams struct {
	TreeID   int64
	ParentID sql.NullInt64
	Lft      int64
	Rght     int64
	Level    int64
	ID       int64
}

// UpdatePageTreePositions writes the five nested-set columns for every
// entry through one prepared statement. Every entry must match exactly one
// row; the caller is expected to run this inside a transaction.
func (q *Queries) UpdatePageTreePositions(ctx context.Context, args []UpdatePageTreePositionParams) error {
	if len(args) == 0 {
		return nil
	}

	stmt, err := q.db.PrepareContext(ctx, updatePageTreePosition)
	if err != nil {
		return fmt.Errorf("preparing tree update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, arg := range args {
		result, err := stmt.ExecContext(ctx, arg.TreeID, arg.ParentID, arg.Lft, arg.Rght, arg.Level, arg.ID)
		if err != nil {
			return fmt.Errorf("updating page %d: %w", arg.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating page %d: %w", arg.ID, err)
		}
		if n != 1 {
			return fmt.Errorf("updating page %d: %w", arg.ID, sql.ErrNoRows)
		}
	}
	return nil
}
