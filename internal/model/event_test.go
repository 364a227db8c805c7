// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestHistoryActionLabel(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{HistoryActionAdd, "Added"},
		{HistoryActionChange, "Changed"},
		{HistoryActionDelete, "Deleted"},
		{HistoryActionMove, "Moved"},
		{"other", "other"},
	}
	for _, tt := range tests {
		if got := HistoryActionLabel(tt.action); got != tt.want {
			t.Errorf("HistoryActionLabel(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}
