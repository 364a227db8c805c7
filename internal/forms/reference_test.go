// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"net/url"
	"testing"
)

func TestBindRegionForm(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		wantError string
	}{
		{"valid", url.Values{"key": {"footer"}, "title": {"Footer"}, "inherited": {"on"}, "position": {"3"}}, ""},
		{"missing key", url.Values{"title": {"Footer"}}, "key"},
		{"bad key", url.Values{"key": {"Foot er"}, "title": {"Footer"}}, "key"},
		{"missing title", url.Values{"key": {"footer"}}, "title"},
		{"bad position", url.Values{"key": {"footer"}, "title": {"Footer"}, "position": {"x"}}, "position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BindRegionForm(tt.values)
			if tt.wantError == "" {
				if !f.Valid() {
					t.Fatalf("unexpected errors: %v", f.Errors)
				}
				if !f.Data.Inherited || f.Data.Position != 3 {
					t.Errorf("Data = %+v", f.Data)
				}
				return
			}
			if _, ok := f.Errors[tt.wantError]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantError, f.Errors)
			}
		})
	}
}

func TestBindTemplateForm(t *testing.T) {
	for _, path := range []string{"", "/etc/passwd.html", "../x.html", "base.txt"} {
		f := BindTemplateForm(url.Values{"title": {"T"}, "path": {path}})
		if _, ok := f.Errors["path"]; !ok {
			t.Errorf("path %q should be rejected", path)
		}
	}

	f := BindTemplateForm(url.Values{"title": {"Two columns"}, "path": {"pages/two_columns.html"}})
	if !f.Valid() {
		t.Fatalf("unexpected errors: %v", f.Errors)
	}
}
