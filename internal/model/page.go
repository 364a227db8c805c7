// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Languages a page can be written in. The first entry is the default.
var Languages = []Choice{
	{Value: "en", Label: "English"},
	{Value: "de", Label: "German"},
	{Value: "fr", Label: "French"},
	{Value: "ru", Label: "Russian"},
}

// DefaultLanguage is used when a page form leaves the language empty.
const DefaultLanguage = "en"

// Choice is one option of a select field.
type Choice struct {
	Value string
	Label string
}

// IsValidLanguage reports whether code is one of Languages.
func IsValidLanguage(code string) bool {
	for _, l := range Languages {
		if l.Value == code {
			return true
		}
	}
	return false
}

// Page history actions
const (
	HistoryActionAdd    = "add"
	HistoryActionChange = "change"
	HistoryActionDelete = "delete"
	HistoryActionMove   = "move"
)

// HistoryActionLabel returns the human label for a history action.
func HistoryActionLabel(action string) string {
	switch action {
	case HistoryActionAdd:
		return "Added"
	case HistoryActionChange:
		return "Changed"
	case HistoryActionDelete:
		return "Deleted"
	case HistoryActionMove:
		return "Moved"
	default:
		return action
	}
}
