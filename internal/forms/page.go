// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forms binds and validates the admin page form and the inline
// content block form-sets.
package forms

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// Page form field names.
const (
	FieldActive          = "active"
	FieldInNavigation    = "in_navigation"
	FieldTemplate        = "template"
	FieldTitle           = "title"
	FieldSlug            = "slug"
	FieldParent          = "parent"
	FieldLanguage        = "language"
	FieldOverrideURL     = "override_url"
	FieldMetaKeywords    = "meta_keywords"
	FieldMetaDescription = "meta_description"
)

// PageFieldNames lists every page form field in declaration order.
var PageFieldNames = []string{
	FieldActive, FieldInNavigation, FieldTemplate, FieldTitle, FieldSlug,
	FieldParent, FieldLanguage, FieldOverrideURL, FieldMetaKeywords, FieldMetaDescription,
}

// SettingsFieldNames are the fields shown in the settings fieldset of the
// change view: everything except active, template, title and in_navigation.
var SettingsFieldNames = []string{
	FieldSlug, FieldParent, FieldLanguage, FieldOverrideURL, FieldMetaKeywords, FieldMetaDescription,
}

// Fieldset is a titled group of fields in the add view.
type Fieldset struct {
	Title     string
	Collapsed bool
	Fields    []uikit.FieldGroup
}

// AddFieldsets is the layout of the add view.
var AddFieldsets = []Fieldset{
	{
		Fields: []uikit.FieldGroup{
			uikit.Fields(FieldActive, FieldInNavigation),
			uikit.Leaf(FieldTemplate),
			uikit.Leaf(FieldTitle),
			uikit.Leaf(FieldSlug),
			uikit.Leaf(FieldParent),
			uikit.Leaf(FieldLanguage),
		},
	},
	{
		Title:     "Other options",
		Collapsed: true,
		Fields: []uikit.FieldGroup{
			uikit.Leaf(FieldOverrideURL),
			uikit.Leaf(FieldMetaKeywords),
			uikit.Leaf(FieldMetaDescription),
		},
	},
}

const (
	maxTitleLength       = 100
	maxOverrideURLLength = 200
	maxMetaLength        = 255
)

// ParentChoice is one option of the parent select.
type ParentChoice struct {
	ID    int64
	Title string
	Level int64
}

// PageChoices holds the select options the page form validates against.
type PageChoices struct {
	Templates []store.Template
	Parents   []ParentChoice
}

// PageData is the cleaned content of a valid page form.
type PageData struct {
	Active          bool
	InNavigation    bool
	TemplateID      sql.NullInt64
	Title           string
	Slug            string
	ParentID        sql.NullInt64
	Language        string
	OverrideURL     string
	MetaKeywords    string
	MetaDescription string
}

// PageForm is the primary form of the add and change views.
type PageForm struct {
	Choices    PageChoices
	FormValues map[string]string
	Errors     map[string]string
	Data       PageData
	bound      bool
}

// NewPageForm returns an unbound form. page may be nil for the add view.
func NewPageForm(choices PageChoices, page *store.Page) *PageForm {
	f := &PageForm{
		Choices:    choices,
		FormValues: make(map[string]string),
		Errors:     make(map[string]string),
	}
	if page == nil {
		f.FormValues[FieldActive] = "on"
		f.FormValues[FieldInNavigation] = "on"
		f.FormValues[FieldLanguage] = model.DefaultLanguage
		if len(choices.Templates) > 0 {
			f.FormValues[FieldTemplate] = strconv.FormatInt(choices.Templates[0].ID, 10)
		}
		return f
	}

	f.FormValues[FieldActive] = checkboxValue(page.Active)
	f.FormValues[FieldInNavigation] = checkboxValue(page.InNavigation)
	f.FormValues[FieldTemplate] = util.FormatNullInt64(page.TemplateID)
	f.FormValues[FieldTitle] = page.Title
	f.FormValues[FieldSlug] = page.Slug
	f.FormValues[FieldParent] = util.FormatNullInt64(page.ParentID)
	f.FormValues[FieldLanguage] = page.Language
	f.FormValues[FieldOverrideURL] = page.OverrideUrl
	f.FormValues[FieldMetaKeywords] = page.MetaKeywords
	f.FormValues[FieldMetaDescription] = page.MetaDescription
	return f
}

func checkboxValue(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// BindPageForm binds values to a page form and validates it.
func BindPageForm(choices PageChoices, values url.Values) *PageForm {
	f := &PageForm{
		Choices:    choices,
		FormValues: make(map[string]string, len(PageFieldNames)),
		Errors:     make(map[string]string),
		bound:      true,
	}
	for _, name := range PageFieldNames {
		f.FormValues[name] = strings.TrimSpace(values.Get(name))
	}
	f.validate()
	return f
}

func (f *PageForm) validate() {
	v := f.FormValues
	d := &f.Data

	d.Active = isChecked(v[FieldActive])
	d.InNavigation = isChecked(v[FieldInNavigation])

	d.Title = v[FieldTitle]
	switch {
	case d.Title == "":
		f.Errors[FieldTitle] = "Title is required"
	case len([]rune(d.Title)) > maxTitleLength:
		f.Errors[FieldTitle] = fmt.Sprintf("Title must be at most %d characters", maxTitleLength)
	}

	// The slug is pre-populated from the title when left empty.
	d.Slug = v[FieldSlug]
	if d.Slug == "" && d.Title != "" {
		d.Slug = util.Slugify(d.Title)
		v[FieldSlug] = d.Slug
	}
	switch {
	case d.Slug == "":
		f.Errors[FieldSlug] = "Slug is required"
	case !util.IsValidSlug(d.Slug):
		f.Errors[FieldSlug] = "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}

	templateID, err := util.ParseOptionalID(v[FieldTemplate])
	switch {
	case err != nil || (templateID.Valid && !f.hasTemplate(templateID.Int64)):
		f.Errors[FieldTemplate] = "Select a valid template"
	case !templateID.Valid && len(f.Choices.Templates) > 0:
		f.Errors[FieldTemplate] = "Template is required"
	}
	d.TemplateID = templateID

	parentID, err := util.ParseOptionalID(v[FieldParent])
	if err != nil || (parentID.Valid && !f.hasParent(parentID.Int64)) {
		f.Errors[FieldParent] = "Select a valid parent page"
	}
	d.ParentID = parentID

	d.Language = v[FieldLanguage]
	if d.Language == "" {
		d.Language = model.DefaultLanguage
	}
	if !model.IsValidLanguage(d.Language) {
		f.Errors[FieldLanguage] = "Select a valid language"
	}

	d.OverrideURL = v[FieldOverrideURL]
	switch {
	case len(d.OverrideURL) > maxOverrideURLLength:
		f.Errors[FieldOverrideURL] = fmt.Sprintf("Override URL must be at most %d characters", maxOverrideURLLength)
	case d.OverrideURL != "" && !isOverrideURL(d.OverrideURL):
		f.Errors[FieldOverrideURL] = "Override URL must be an absolute path or an http(s) URL"
	}

	d.MetaKeywords = v[FieldMetaKeywords]
	if len([]rune(d.MetaKeywords)) > maxMetaLength {
		f.Errors[FieldMetaKeywords] = fmt.Sprintf("Meta keywords must be at most %d characters", maxMetaLength)
	}
	d.MetaDescription = v[FieldMetaDescription]
	if len([]rune(d.MetaDescription)) > maxMetaLength {
		f.Errors[FieldMetaDescription] = fmt.Sprintf("Meta description must be at most %d characters", maxMetaLength)
	}
}

func isOverrideURL(s string) bool {
	if strings.HasPrefix(s, "/") {
		return !strings.HasPrefix(s, "//")
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (f *PageForm) hasTemplate(id int64) bool {
	for _, t := range f.Choices.Templates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (f *PageForm) hasParent(id int64) bool {
	for _, p := range f.Choices.Parents {
		if p.ID == id {
			return true
		}
	}
	return false
}

// IsBound reports whether the form holds submitted data.
func (f *PageForm) IsBound() bool { return f.bound }

// Valid reports whether a bound form has no errors.
func (f *PageForm) Valid() bool {
	return f.bound && len(f.Errors) == 0
}

// Checked reports whether a checkbox field is set, for rendering.
func (f *PageForm) Checked(name string) bool {
	return isChecked(f.FormValues[name])
}

// SettingsFieldset is the presentation-only settings block of the change
// view. Its values are saved through the page form.
type SettingsFieldset struct {
	*PageForm
	Fields []string
}

// NewSettingsFieldset returns the fieldset filled from page.
func NewSettingsFieldset(choices PageChoices, page *store.Page) *SettingsFieldset {
	return &SettingsFieldset{PageForm: NewPageForm(choices, page), Fields: SettingsFieldNames}
}

// BindSettingsFieldset binds submitted values so the fieldset re-renders
// them with its own errors.
func BindSettingsFieldset(choices PageChoices, values url.Values) *SettingsFieldset {
	s := &SettingsFieldset{PageForm: BindPageForm(choices, values), Fields: SettingsFieldNames}
	for name := range s.Errors {
		if !isSettingsField(name) {
			delete(s.Errors, name)
		}
	}
	return s
}

func isSettingsField(name string) bool {
	for _, f := range SettingsFieldNames {
		if f == name {
			return true
		}
	}
	return false
}
