// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createPageHistory = `INSERT INTO page_history (page_id, page_title, user_id, action, message, batch, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreatePageHistoryParams struct {
	PageID    int64
	PageTitle string
	UserID    sql.NullInt64
	Action    string
	Message   string
	Batch     string
	CreatedAt time.Time
}

func (q *Queries) CreatePageHistory(ctx context.Context, arg CreatePageHistoryParams) error {
	_, err := q.db.ExecContext(ctx, createPageHistory,
		arg.PageID,
		arg.PageTitle,
		arg.UserID,
		arg.Action,
		arg.Message,
		arg.Batch,
		arg.CreatedAt,
	)
	return err
}

const listPageHistory = `SELECT id, page_id, page_title, user_id, action, message, batch, created_at
FROM page_history WHERE page_id = ? ORDER BY created_at DESC, id DESC`

func (q *Queries) ListPageHistory(ctx context.Context, pageID int64) ([]PageHistory, error) {
	rows, err := q.db.QueryContext(ctx, listPageHistory, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []PageHistory
	for rows.Next() {
		var h PageHistory
		if err := rows.Scan(&h.ID, &h.PageID, &h.PageTitle, &h.UserID, &h.Action, &h.Message, &h.Batch, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
