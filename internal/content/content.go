// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content defines the content block types a page can hold. The set
// of types is fixed at startup: each type names its table, its form fields
// and how submitted values are cleaned before they are stored.
package content

import (
	"fmt"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// Names of the fields every content type has.
const (
	FieldRegion   = "region"
	FieldOrdering = "ordering"
)

// Widget kinds understood by the admin templates.
const (
	WidgetText     = "text"
	WidgetTextarea = "textarea"
	WidgetRichText = "richtext"
	WidgetSelect   = "select"
	WidgetNumber   = "number"
)

// Field describes one form field of a content type.
type Field struct {
	Name      string
	Label     string
	Widget    string
	Required  bool
	MaxLength int
	Choices   []model.Choice
	Default   string
}

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

// CleanFunc validates the type-specific values of one block and returns the
// column values to store.
type CleanFunc func(values map[string]string) (map[string]string, FieldErrors)

// Type is one registered content type.
type Type struct {
	// Name is the type name, e.g. "RichTextContent". Its lower-cased form
	// is the form-set prefix.
	Name string
	// VerboseName is the human name, e.g. "rich text".
	VerboseName string
	Table       store.BlockTable
	// Fields are the type-specific form fields, without region and ordering.
	Fields []Field
	// Fieldsets is the declared admin layout of the inline form.
	Fieldsets []uikit.FieldGroup
	Clean     CleanFunc
}

// Prefix returns the form-set prefix of the type.
func (t Type) Prefix() string {
	return strings.ToLower(t.Name)
}

// CompactName returns the verbose name with spaces removed, used as an
// identifier by the admin scripts.
func (t Type) CompactName() string {
	return strings.ReplaceAll(t.VerboseName, " ", "")
}

// FieldNames lists every form field of a block of this type, common fields
// first.
func (t Type) FieldNames() []string {
	names := []string{FieldRegion, FieldOrdering}
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Field returns the type-specific field with the given name.
func (t Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Registry is the ordered set of content types.
type Registry struct {
	types []Type
}

// NewRegistry checks types and returns a registry holding them in order.
func NewRegistry(types ...Type) (*Registry, error) {
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if t.Name == "" || t.VerboseName == "" {
			return nil, fmt.Errorf("content type %q: name and verbose name are required", t.Name)
		}
		if seen[t.Prefix()] {
			return nil, fmt.Errorf("content type %s registered twice", t.Name)
		}
		seen[t.Prefix()] = true
		if t.Clean == nil {
			return nil, fmt.Errorf("content type %s has no clean function", t.Name)
		}
		if err := t.Table.Validate(); err != nil {
			return nil, fmt.Errorf("content type %s: %w", t.Name, err)
		}
	}
	return &Registry{types: types}, nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []Type {
	out := make([]Type, len(r.types))
	copy(out, r.types)
	return out
}

// Lookup finds a type by its form-set prefix.
func (r *Registry) Lookup(prefix string) (Type, bool) {
	for _, t := range r.types {
		if t.Prefix() == prefix {
			return t, true
		}
	}
	return Type{}, false
}

// Default returns the registry with the built-in content types.
func Default() *Registry {
	r, err := NewRegistry(RichText(), Markdown(), Image())
	if err != nil {
		panic(err)
	}
	return r
}

func required(values map[string]string, errs FieldErrors, name string) string {
	v := strings.TrimSpace(values[name])
	if v == "" {
		errs[name] = "This field is required."
	}
	return v
}

func maxLength(errs FieldErrors, name, value string, n int) {
	if n > 0 && len([]rune(value)) > n {
		errs[name] = fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", n, len([]rune(value)))
	}
}
