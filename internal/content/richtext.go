// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// htmlSanitizer allows the tags a rich text editor produces and strips
// scripts, event handlers and the like.
var htmlSanitizer = bluemonday.UGCPolicy()

// RichText is a block of sanitized HTML.
func RichText() Type {
	return Type{
		Name:        "RichTextContent",
		VerboseName: "rich text",
		Table:       store.BlockTable{Name: "page_richtextcontent", Columns: []string{"text"}},
		Fields: []Field{
			{Name: "text", Label: "Text", Widget: WidgetRichText, Required: true},
		},
		Fieldsets: []uikit.FieldGroup{
			uikit.Fields("region", "ordering"),
			uikit.Leaf("text"),
		},
		Clean: cleanRichText,
	}
}

func cleanRichText(values map[string]string) (map[string]string, FieldErrors) {
	errs := FieldErrors{}
	text := htmlSanitizer.Sanitize(values["text"])
	if strings.TrimSpace(text) == "" {
		errs["text"] = "This field is required."
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return map[string]string{"text": text}, nil
}
