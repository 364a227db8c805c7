// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	types := r.Types()
	require.Len(t, types, 3)

	assert.Equal(t, "richtextcontent", types[0].Prefix())
	assert.Equal(t, "markdowncontent", types[1].Prefix())
	assert.Equal(t, "imagecontent", types[2].Prefix())

	assert.Equal(t, "richtext", types[0].CompactName())
	assert.Equal(t, []string{"region", "ordering", "image_url", "alt_text", "position"}, types[2].FieldNames())

	got, ok := r.Lookup("markdowncontent")
	require.True(t, ok)
	assert.Equal(t, "MarkdownContent", got.Name)

	_, ok = r.Lookup("MarkdownContent")
	assert.False(t, ok, "lookup is by prefix")
}

func TestNewRegistry_Rejects(t *testing.T) {
	valid := RichText()

	_, err := NewRegistry(valid, valid)
	assert.Error(t, err, "duplicate type")

	noClean := RichText()
	noClean.Clean = nil
	_, err = NewRegistry(noClean)
	assert.Error(t, err)

	badTable := Markdown()
	badTable.Table = store.BlockTable{Name: "bad name"}
	_, err = NewRegistry(badTable)
	assert.Error(t, err)

	unnamed := Image()
	unnamed.VerboseName = ""
	_, err = NewRegistry(unnamed)
	assert.Error(t, err)
}

func TestTypesReturnsCopy(t *testing.T) {
	r := Default()
	types := r.Types()
	types[0].Name = "Changed"
	assert.Equal(t, "RichTextContent", r.Types()[0].Name)
}

func TestCleanRichText(t *testing.T) {
	out, errs := RichText().Clean(map[string]string{
		"text": `<p onclick="steal()">Hello <script>alert(1)</script><b>world</b></p>`,
	})
	require.Empty(t, errs)
	assert.Equal(t, `<p>Hello <b>world</b></p>`, out["text"])

	_, errs = RichText().Clean(map[string]string{"text": "<script>x</script>"})
	assert.Contains(t, errs, "text", "text that sanitizes to nothing is empty")
}

func TestCleanMarkdown(t *testing.T) {
	out, errs := Markdown().Clean(map[string]string{"markdown": "# Title\n\nSome *text*."})
	require.Empty(t, errs)
	assert.Equal(t, "# Title\n\nSome *text*.", out["markdown"])
	assert.Contains(t, out["rendered"], "<h1>Title</h1>")
	assert.Contains(t, out["rendered"], "<em>text</em>")

	_, errs = Markdown().Clean(map[string]string{"markdown": "   "})
	assert.Equal(t, "This field is required.", errs["markdown"])
}

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	html, err := RenderMarkdown("[x](javascript:alert(1))")
	require.NoError(t, err)
	assert.NotContains(t, html, "javascript:")
}

func TestCleanImage(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr []string
	}{
		{"absolute url", map[string]string{"image_url": "https://example.com/a.png"}, nil},
		{"site path", map[string]string{"image_url": "/media/a.png", "position": "left"}, nil},
		{"missing url", map[string]string{}, []string{"image_url"}},
		{"relative path", map[string]string{"image_url": "a.png"}, []string{"image_url"}},
		{"protocol relative", map[string]string{"image_url": "//evil.example/a.png"}, []string{"image_url"}},
		{"other scheme", map[string]string{"image_url": "javascript:alert(1)"}, []string{"image_url"}},
		{"bad position", map[string]string{"image_url": "/a.png", "position": "top"}, []string{"position"}},
		{"long alt", map[string]string{"image_url": "/a.png", "alt_text": strings.Repeat("a", 256)}, []string{"alt_text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errs := Image().Clean(tt.values)
			if len(tt.wantErr) == 0 {
				require.Empty(t, errs)
				assert.NotEmpty(t, out["position"])
				return
			}
			for _, f := range tt.wantErr {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestCleanImage_DefaultPosition(t *testing.T) {
	out, errs := Image().Clean(map[string]string{"image_url": "/a.png", "alt_text": "  An image "})
	require.Empty(t, errs)
	assert.Equal(t, ImagePositionBlock, out["position"])
	assert.Equal(t, "An image", out["alt_text"])
}
