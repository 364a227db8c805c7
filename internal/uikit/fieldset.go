// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// FieldGroup is one entry of a fieldset layout: either a single field name
// (a leaf) or a row of nested groups rendered on one line.
type FieldGroup struct {
	name string
	row  []FieldGroup
}

// Leaf returns a group naming one field.
func Leaf(name string) FieldGroup {
	return FieldGroup{name: name}
}

// Row returns a group laying out groups side by side.
func Row(groups ...FieldGroup) FieldGroup {
	if groups == nil {
		groups = []FieldGroup{}
	}
	return FieldGroup{row: groups}
}

// Fields is shorthand for a row of leaves.
func Fields(names ...string) FieldGroup {
	groups := make([]FieldGroup, len(names))
	for i, n := range names {
		groups[i] = Leaf(n)
	}
	return Row(groups...)
}

// IsRow reports whether g is a row.
func (g FieldGroup) IsRow() bool { return g.row != nil }

// Name returns the field name of a leaf, or "" for a row.
func (g FieldGroup) Name() string { return g.name }

// Children returns the groups of a row, or nil for a leaf.
func (g FieldGroup) Children() []FieldGroup { return g.row }

// Names flattens g into field names in layout order.
func (g FieldGroup) Names() []string {
	if !g.IsRow() {
		return []string{g.name}
	}
	var out []string
	for _, c := range g.row {
		out = append(out, c.Names()...)
	}
	return out
}

// hiddenFields are form-set bookkeeping fields never shown in a layout.
var hiddenFields = map[string]bool{"id": true, "DELETE": true, "ORDER": true}

// PostProcessFieldsets fits a declared layout to the fields a form actually
// has. Bookkeeping fields (id, DELETE, ORDER) and names the form lacks are
// dropped, a name is kept only at its first occurrence, rows left empty are
// removed, and available fields the layout never mentions are appended at
// the end, one row each, in the order of available.
func PostProcessFieldsets(declared []FieldGroup, available []string) []FieldGroup {
	include := make(map[string]bool, len(available))
	for _, name := range available {
		if !hiddenFields[name] {
			include[name] = true
		}
	}

	var filter func(groups []FieldGroup) []FieldGroup
	filter = func(groups []FieldGroup) []FieldGroup {
		out := []FieldGroup{}
		for _, g := range groups {
			if g.IsRow() {
				if sub := filter(g.row); len(sub) > 0 {
					out = append(out, Row(sub...))
				}
				continue
			}
			if include[g.name] {
				out = append(out, g)
				delete(include, g.name)
			}
		}
		return out
	}

	result := filter(declared)
	for _, name := range available {
		if include[name] {
			result = append(result, Row(Leaf(name)))
			delete(include, name)
		}
	}
	return result
}
