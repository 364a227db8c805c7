// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	Name         string       `json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	Metadata  string        `json:"metadata"`
	IpAddress string        `json:"ip_address"`
	CreatedAt time.Time     `json:"created_at"`
}

type Template struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Region struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Inherited bool      `json:"inherited"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Page struct {
	ID              int64         `json:"id"`
	Active          bool          `json:"active"`
	InNavigation    bool          `json:"in_navigation"`
	TemplateID      sql.NullInt64 `json:"template_id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	ParentID        sql.NullInt64 `json:"parent_id"`
	Language        string        `json:"language"`
	OverrideUrl     string        `json:"override_url"`
	MetaKeywords    string        `json:"meta_keywords"`
	MetaDescription string        `json:"meta_description"`
	TreeID          int64         `json:"tree_id"`
	Lft             int64         `json:"lft"`
	Rght            int64         `json:"rght"`
	Level           int64         `json:"level"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type PageHistory struct {
	ID        int64         `json:"id"`
	PageID    int64         `json:"page_id"`
	PageTitle string        `json:"page_title"`
	UserID    sql.NullInt64 `json:"user_id"`
	Action    string        `json:"action"`
	Message   string        `json:"message"`
	Batch     string        `json:"batch"`
	CreatedAt time.Time     `json:"created_at"`
}

// ContentBlock is one row of a per-type content table. Values holds the
// type-specific columns keyed by column name.
type ContentBlock struct {
	ID       int64             `json:"id"`
	PageID   int64             `json:"page_id"`
	Region   string            `json:"region"`
	Ordering int64             `json:"ordering"`
	Values   map[string]string `json:"values"`
}
