// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// Management form keys, relative to the form-set prefix.
const (
	TotalFormsKey   = "TOTAL_FORMS"
	InitialFormsKey = "INITIAL_FORMS"
	deleteKey       = "DELETE"
	idKey           = "id"
)

// MaxForms caps TOTAL_FORMS so a crafted request cannot allocate without bound.
const MaxForms = 1000

// ExtraForms is the number of blank forms offered after the existing blocks.
const ExtraForms = 1

// ErrManagementForm is the non-form error of a form-set whose management
// data is missing or inconsistent.
const ErrManagementForm = "ManagementForm data is missing or has been tampered with"

// BlockForm is one inline form of a form-set.
type BlockForm struct {
	Prefix     string
	Index      int
	ID         int64
	FormValues map[string]string
	Errors     map[string]string
	Delete     bool

	initial  bool
	blank    bool
	block    store.ContentBlock
	original store.ContentBlock
}

// Name returns the full input name of a field of this form.
func (f *BlockForm) Name(field string) string {
	return fmt.Sprintf("%s-%d-%s", f.Prefix, f.Index, field)
}

// Value returns the current value of a field.
func (f *BlockForm) Value(field string) string {
	return f.FormValues[field]
}

// IsInitial reports whether the form edits an existing block.
func (f *BlockForm) IsInitial() bool { return f.initial }

// FormSet is the inline form-set of one content type.
type FormSet struct {
	Type          content.Type
	Prefix        string
	Forms         []*BlockForm
	NonFormErrors []string
	Regions       []model.Choice
	InitialForms  int

	bound bool
}

// regionChoices turns regions into select options.
func regionChoices(regions []store.Region) []model.Choice {
	out := make([]model.Choice, 0, len(regions))
	for _, r := range regions {
		out = append(out, model.Choice{Value: r.Key, Label: r.Title})
	}
	return out
}

// NewFormSet returns an unbound form-set pre-filled with the page's blocks
// of type t plus ExtraForms blank forms.
func NewFormSet(t content.Type, regions []store.Region, blocks []store.ContentBlock) *FormSet {
	fs := &FormSet{
		Type:         t,
		Prefix:       t.Prefix(),
		Regions:      regionChoices(regions),
		InitialForms: len(blocks),
	}
	for i, b := range blocks {
		f := fs.newForm(i)
		f.ID = b.ID
		f.initial = true
		f.FormValues[content.FieldRegion] = b.Region
		f.FormValues[content.FieldOrdering] = strconv.FormatInt(b.Ordering, 10)
		for _, field := range t.Fields {
			f.FormValues[field.Name] = b.Values[field.Name]
		}
		fs.Forms = append(fs.Forms, f)
	}
	for i := 0; i < ExtraForms; i++ {
		f := fs.newForm(len(blocks) + i)
		if len(fs.Regions) > 0 {
			f.FormValues[content.FieldRegion] = fs.Regions[0].Value
		}
		for _, field := range t.Fields {
			if field.Default != "" {
				f.FormValues[field.Name] = field.Default
			}
		}
		fs.Forms = append(fs.Forms, f)
	}
	return fs
}

func (fs *FormSet) newForm(index int) *BlockForm {
	return &BlockForm{
		Prefix:     fs.Prefix,
		Index:      index,
		FormValues: make(map[string]string),
		Errors:     make(map[string]string),
	}
}

func (fs *FormSet) key(name string) string {
	return fs.Prefix + "-" + name
}

// BindFormSet binds submitted values to the form-set of type t. existing
// holds the blocks of that type the page owns; initial forms may only
// reference those.
func BindFormSet(t content.Type, regions []store.Region, existing []store.ContentBlock, values url.Values) *FormSet {
	fs := &FormSet{
		Type:    t,
		Prefix:  t.Prefix(),
		Regions: regionChoices(regions),
		bound:   true,
	}

	total, errTotal := strconv.Atoi(values.Get(fs.key(TotalFormsKey)))
	initial, errInitial := strconv.Atoi(values.Get(fs.key(InitialFormsKey)))
	if errTotal != nil || errInitial != nil || total < 0 || initial < 0 || initial > total || total > MaxForms {
		fs.NonFormErrors = append(fs.NonFormErrors, ErrManagementForm)
		return fs
	}
	fs.InitialForms = initial

	owned := make(map[int64]store.ContentBlock, len(existing))
	for _, b := range existing {
		owned[b.ID] = b
	}
	seen := make(map[int64]bool)

	for i := 0; i < total; i++ {
		f := fs.newForm(i)
		f.initial = i < initial
		for _, name := range t.FieldNames() {
			f.FormValues[name] = values.Get(f.Name(name))
		}
		f.Delete = isChecked(values.Get(f.Name(deleteKey)))
		fs.Forms = append(fs.Forms, f)

		if f.initial {
			id, err := strconv.ParseInt(values.Get(f.Name(idKey)), 10, 64)
			original, ok := owned[id]
			if err != nil || !ok {
				f.Errors[idKey] = "Select a valid choice. That choice is not one of the available choices."
				continue
			}
			if seen[id] {
				f.Errors[idKey] = "Please correct the duplicate data for id, which must be unique."
				continue
			}
			seen[id] = true
			f.ID = id
			f.original = original
			if f.Delete {
				continue
			}
		} else {
			f.blank = f.isBlank(t)
			if f.blank || f.Delete {
				continue
			}
		}
		fs.clean(f)
	}
	return fs
}

// isBlank reports whether an extra form was left untouched: no
// type-specific field and no ordering was filled in.
func (f *BlockForm) isBlank(t content.Type) bool {
	if strings.TrimSpace(f.FormValues[content.FieldOrdering]) != "" {
		return false
	}
	for _, field := range t.Fields {
		v := strings.TrimSpace(f.FormValues[field.Name])
		if v != "" && v != field.Default {
			return false
		}
	}
	return true
}

func (fs *FormSet) clean(f *BlockForm) {
	block := store.ContentBlock{ID: f.ID, Region: strings.TrimSpace(f.FormValues[content.FieldRegion])}

	switch {
	case block.Region == "":
		f.Errors[content.FieldRegion] = "This field is required."
	case !fs.hasRegion(block.Region):
		f.Errors[content.FieldRegion] = "Select a valid choice. " + block.Region + " is not one of the available choices."
	}

	if raw := strings.TrimSpace(f.FormValues[content.FieldOrdering]); raw == "" {
		block.Ordering = int64(f.Index)
	} else if n, err := strconv.ParseInt(raw, 10, 64); err != nil {
		f.Errors[content.FieldOrdering] = "Enter a whole number."
	} else {
		block.Ordering = n
	}

	cleaned, errs := fs.Type.Clean(f.FormValues)
	for k, v := range errs {
		f.Errors[k] = v
	}
	block.Values = cleaned
	f.block = block
}

func (fs *FormSet) hasRegion(key string) bool {
	for _, r := range fs.Regions {
		if r.Value == key {
			return true
		}
	}
	return false
}

// IsBound reports whether the form-set holds submitted data.
func (fs *FormSet) IsBound() bool { return fs.bound }

// TotalForms is the value of the TOTAL_FORMS management field.
func (fs *FormSet) TotalForms() int { return len(fs.Forms) }

// ManagementName returns the input name of a management field.
func (fs *FormSet) ManagementName(key string) string { return fs.key(key) }

// Valid reports whether a bound form-set and all its forms are free of
// errors.
func (fs *FormSet) Valid() bool {
	if !fs.bound || len(fs.NonFormErrors) > 0 {
		return false
	}
	for _, f := range fs.Forms {
		if len(f.Errors) > 0 {
			return false
		}
	}
	return true
}

// Field returns the form field description of name, including the common
// region and ordering fields.
func (fs *FormSet) Field(name string) content.Field {
	switch name {
	case content.FieldRegion:
		return content.Field{Name: name, Label: "Region", Widget: content.WidgetSelect, Required: true, Choices: fs.Regions}
	case content.FieldOrdering:
		return content.Field{Name: name, Label: "Ordering", Widget: content.WidgetNumber}
	}
	if f, ok := fs.Type.Field(name); ok {
		return f
	}
	return content.Field{Name: name, Label: name, Widget: content.WidgetText}
}

// Layout returns the field layout of one inline form: the declared
// fieldsets of the type fitted to the fields the form actually has.
func (fs *FormSet) Layout() []uikit.FieldGroup {
	available := append(fs.Type.FieldNames(), idKey, deleteKey)
	return uikit.PostProcessFieldsets(fs.Type.Fieldsets, available)
}

// ErrorMessages flattens every error of the form-set for display.
func (fs *FormSet) ErrorMessages() []string {
	out := append([]string(nil), fs.NonFormErrors...)
	for _, f := range fs.Forms {
		for _, name := range append(fs.Type.FieldNames(), idKey) {
			if msg, ok := f.Errors[name]; ok {
				out = append(out, fmt.Sprintf("%s #%d, %s: %s", fs.Type.VerboseName, f.Index+1, name, msg))
			}
		}
	}
	return out
}

// Save writes the form-set for pageID: deleted forms remove their block,
// initial forms update it and filled extra forms create one. The form-set
// must be valid; q is normally bound to a transaction.
func (fs *FormSet) Save(ctx context.Context, q *store.Queries, pageID int64) error {
	if !fs.Valid() {
		return fmt.Errorf("saving invalid %s form-set", fs.Prefix)
	}
	for _, f := range fs.Forms {
		switch {
		case f.initial && f.Delete:
			if err := q.DeleteBlock(ctx, fs.Type.Table, pageID, f.ID); err != nil {
				return fmt.Errorf("deleting %s %d: %w", fs.Prefix, f.ID, err)
			}
		case f.initial:
			b := f.block
			b.PageID = pageID
			if err := q.UpdateBlock(ctx, fs.Type.Table, b); err != nil {
				return fmt.Errorf("updating %s %d: %w", fs.Prefix, f.ID, err)
			}
		case f.blank || f.Delete:
		default:
			b := f.block
			b.PageID = pageID
			id, err := q.CreateBlock(ctx, fs.Type.Table, b)
			if err != nil {
				return fmt.Errorf("creating %s: %w", fs.Prefix, err)
			}
			f.ID = id
		}
	}
	return nil
}

// HasChanges reports whether saving the form-set would write anything:
// a deletion, a new block or an edited block.
func (fs *FormSet) HasChanges() bool {
	for _, f := range fs.Forms {
		switch {
		case f.Delete && f.initial:
			return true
		case f.Delete || f.blank:
		case !f.initial:
			return true
		case f.block.Region != f.original.Region || f.block.Ordering != f.original.Ordering:
			return true
		default:
			for k, v := range f.block.Values {
				if f.original.Values[k] != v {
					return true
				}
			}
		}
	}
	return false
}

// AllValid reports whether every form-set is valid.
func AllValid(sets []*FormSet) bool {
	valid := true
	for _, fs := range sets {
		if !fs.Valid() {
			valid = false
		}
	}
	return valid
}
