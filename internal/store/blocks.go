// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// BlockTable names a per-type content table and its type-specific TEXT
// columns. Every block table also has id, page_id, region and ordering.
type BlockTable struct {
	Name    string
	Columns []string
}

// Validate checks that the table and column names are plain identifiers,
// since they are interpolated into SQL.
func (t BlockTable) Validate() error {
	if !identRegex.MatchString(t.Name) {
		return fmt.Errorf("invalid block table name %q", t.Name)
	}
	for _, c := range t.Columns {
		if !identRegex.MatchString(c) {
			return fmt.Errorf("invalid column %q in block table %s", c, t.Name)
		}
		switch c {
		case "id", "page_id", "region", "ordering":
			return fmt.Errorf("column %q in block table %s is reserved", c, t.Name)
		}
	}
	return nil
}

func (t BlockTable) selectColumns() string {
	cols := append([]string{"id", "page_id", "region", "ordering"}, t.Columns...)
	return strings.Join(cols, ", ")
}

// ListBlocks returns the blocks of one type owned by a page, in display order.
func (q *Queries) ListBlocks(ctx context.Context, t BlockTable, pageID int64) ([]ContentBlock, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE page_id = ? ORDER BY ordering, id", t.selectColumns(), t.Name)
	rows, err := q.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ContentBlock
	for rows.Next() {
		var b ContentBlock
		values := make([]sql.NullString, len(t.Columns))
		dest := []any{&b.ID, &b.PageID, &b.Region, &b.Ordering}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		b.Values = make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			b.Values[c] = values[i].String
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// CountBlocks returns how many blocks of one type a page owns.
func (q *Queries) CountBlocks(ctx context.Context, t BlockTable, pageID int64) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var n int64
	err := q.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE page_id = ?", t.Name), pageID).Scan(&n)
	return n, err
}

// CreateBlock inserts a block and returns its id.
func (q *Queries) CreateBlock(ctx context.Context, t BlockTable, b ContentBlock) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	cols := append([]string{"page_id", "region", "ordering"}, t.Columns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	args := []any{b.PageID, b.Region, b.Ordering}
	for _, c := range t.Columns {
		args = append(args, b.Values[c])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(cols, ", "), placeholders)
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateBlock rewrites a block owned by b.PageID. Returns sql.ErrNoRows if
// the block does not exist or belongs to another page.
func (q *Queries) UpdateBlock(ctx context.Context, t BlockTable, b ContentBlock) error {
	if err := t.Validate(); err != nil {
		return err
	}
	sets := []string{"region = ?", "ordering = ?"}
	args := []any{b.Region, b.Ordering}
	for _, c := range t.Columns {
		sets = append(sets, c+" = ?")
		args = append(args, b.Values[c])
	}
	args = append(args, b.ID, b.PageID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND page_id = ?", t.Name, strings.Join(sets, ", "))
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBlock removes a block owned by pageID. Returns sql.ErrNoRows if
// the block does not exist or belongs to another page.
func (q *Queries) DeleteBlock(ctx context.Context, t BlockTable, pageID, id int64) error {
	if err := t.Validate(); err != nil {
		return err
	}
	result, err := q.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ? AND page_id = ?", t.Name), id, pageID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
