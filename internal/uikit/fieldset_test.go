// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostProcessFieldsets_DropsBookkeepingAndAppendsExtras(t *testing.T) {
	declared := []FieldGroup{
		Fields("title", "slug"),
		Fields("id", "DELETE"),
	}
	available := []string{"title", "slug", "id", "DELETE", "ORDER", "extra_field"}

	got := PostProcessFieldsets(declared, available)

	assert.Equal(t, []FieldGroup{
		Fields("title", "slug"),
		Fields("extra_field"),
	}, got)
}

func TestPostProcessFieldsets_FirstOccurrenceWins(t *testing.T) {
	declared := []FieldGroup{
		Leaf("region"),
		Fields("text", "region"),
		Row(Fields("ordering"), Leaf("text")),
	}
	available := []string{"region", "text", "ordering"}

	got := PostProcessFieldsets(declared, available)

	assert.Equal(t, []FieldGroup{
		Leaf("region"),
		Fields("text"),
		Row(Fields("ordering")),
	}, got)

	var names []string
	for _, g := range got {
		names = append(names, g.Names()...)
	}
	assert.Equal(t, []string{"region", "text", "ordering"}, names)
}

func TestPostProcessFieldsets_DropsUnavailable(t *testing.T) {
	declared := []FieldGroup{
		Fields("missing", "other_missing"),
		Leaf("also_missing"),
		Leaf("alt_text"),
	}
	got := PostProcessFieldsets(declared, []string{"alt_text"})
	assert.Equal(t, []FieldGroup{Leaf("alt_text")}, got)
}

func TestPostProcessFieldsets_Empty(t *testing.T) {
	assert.Empty(t, PostProcessFieldsets(nil, nil))
	assert.Empty(t, PostProcessFieldsets([]FieldGroup{Fields("id", "ORDER")}, []string{"id", "ORDER", "DELETE"}))
	assert.Equal(t,
		[]FieldGroup{Fields("b"), Fields("a")},
		PostProcessFieldsets(nil, []string{"b", "a", "b"}))
}

func TestFieldGroupAccessors(t *testing.T) {
	leaf := Leaf("title")
	assert.False(t, leaf.IsRow())
	assert.Equal(t, "title", leaf.Name())
	assert.Nil(t, leaf.Children())

	row := Row()
	assert.True(t, row.IsRow(), "an empty row is still a row")
	assert.Empty(t, row.Names())
}
