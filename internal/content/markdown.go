// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown is a block written in markdown. The rendered HTML is stored
// next to the source so the frontend never renders on request.
func Markdown() Type {
	return Type{
		Name:        "MarkdownContent",
		VerboseName: "markdown",
		Table:       store.BlockTable{Name: "page_markdowncontent", Columns: []string{"markdown", "rendered"}},
		Fields: []Field{
			{Name: "markdown", Label: "Markdown", Widget: WidgetTextarea, Required: true},
		},
		Fieldsets: []uikit.FieldGroup{
			uikit.Fields("region", "ordering"),
			uikit.Leaf("markdown"),
		},
		Clean: cleanMarkdown,
	}
}

// RenderMarkdown converts markdown source into sanitized HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

func cleanMarkdown(values map[string]string) (map[string]string, FieldErrors) {
	errs := FieldErrors{}
	source := required(values, errs, "markdown")
	if len(errs) > 0 {
		return nil, errs
	}
	rendered, err := RenderMarkdown(source)
	if err != nil {
		errs["markdown"] = "Could not render markdown: " + err.Error()
		return nil, errs
	}
	return map[string]string{"markdown": source, "rendered": rendered}, nil
}
