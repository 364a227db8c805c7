// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var regionKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RegionData is the cleaned content of a valid region form.
type RegionData struct {
	Key       string
	Title     string
	Inherited bool
	Position  int64
}

// RegionForm adds a region.
type RegionForm struct {
	FormValues map[string]string
	Errors     map[string]string
	Data       RegionData
}

// BindRegionForm binds and validates a submitted region form.
func BindRegionForm(values url.Values) *RegionForm {
	f := &RegionForm{FormValues: make(map[string]string), Errors: make(map[string]string)}
	for _, name := range []string{"key", "title", "inherited", "position"} {
		f.FormValues[name] = strings.TrimSpace(values.Get(name))
	}
	v := f.FormValues

	f.Data.Key = v["key"]
	switch {
	case f.Data.Key == "":
		f.Errors["key"] = "Key is required"
	case len(f.Data.Key) > 20 || !regionKeyRegex.MatchString(f.Data.Key):
		f.Errors["key"] = "Key must be up to 20 lowercase letters, digits or underscores, starting with a letter"
	}

	f.Data.Title = v["title"]
	if f.Data.Title == "" {
		f.Errors["title"] = "Title is required"
	}

	f.Data.Inherited = isChecked(v["inherited"])

	if v["position"] != "" {
		n, err := strconv.ParseInt(v["position"], 10, 64)
		if err != nil {
			f.Errors["position"] = "Enter a whole number."
		}
		f.Data.Position = n
	}
	return f
}

// Valid reports whether the form has no errors.
func (f *RegionForm) Valid() bool { return len(f.Errors) == 0 }

// TemplateData is the cleaned content of a valid template form.
type TemplateData struct {
	Title string
	Path  string
}

// TemplateForm adds a page template.
type TemplateForm struct {
	FormValues map[string]string
	Errors     map[string]string
	Data       TemplateData
}

// BindTemplateForm binds and validates a submitted template form. The path
// is relative to the site template directory.
func BindTemplateForm(values url.Values) *TemplateForm {
	f := &TemplateForm{FormValues: make(map[string]string), Errors: make(map[string]string)}
	f.FormValues["title"] = strings.TrimSpace(values.Get("title"))
	f.FormValues["path"] = strings.TrimSpace(values.Get("path"))

	f.Data.Title = f.FormValues["title"]
	if f.Data.Title == "" {
		f.Errors["title"] = "Title is required"
	}

	f.Data.Path = f.FormValues["path"]
	switch {
	case f.Data.Path == "":
		f.Errors["path"] = "Path is required"
	case strings.HasPrefix(f.Data.Path, "/") || strings.Contains(f.Data.Path, ".."):
		f.Errors["path"] = "Path must be relative and stay inside the template directory"
	case !strings.HasSuffix(f.Data.Path, ".html"):
		f.Errors["path"] = "Path must name an .html file"
	}
	return f
}

// Valid reports whether the form has no errors.
func (f *TemplateForm) Valid() bool { return len(f.Errors) == 0 }
