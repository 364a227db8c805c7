// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// NullInt64FromValue creates a valid sql.NullInt64 from an int64 value.
func NullInt64FromValue(val int64) sql.NullInt64 {
	return sql.NullInt64{Int64: val, Valid: true}
}

// NullInt64FromID maps a tree payload parent id to a column value: 0 means
// "no parent".
func NullInt64FromID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// ParseOptionalID parses an optional foreign key from a form value. An empty
// string yields an invalid NullInt64; anything that is not a positive
// integer is an error.
func ParseOptionalID(s string) (sql.NullInt64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}, nil
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val <= 0 {
		return sql.NullInt64{}, fmt.Errorf("invalid id %q", s)
	}
	return sql.NullInt64{Int64: val, Valid: true}, nil
}

// FormatNullInt64 renders a nullable id for an HTML form value.
func FormatNullInt64(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}
