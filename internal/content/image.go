// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"net/url"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// Image positions
const (
	ImagePositionBlock = "block"
	ImagePositionLeft  = "left"
	ImagePositionRight = "right"
)

var imagePositions = []model.Choice{
	{Value: ImagePositionBlock, Label: "Block"},
	{Value: ImagePositionLeft, Label: "Left"},
	{Value: ImagePositionRight, Label: "Right"},
}

// Image references an image by URL with alternative text and a float
// position.
func Image() Type {
	return Type{
		Name:        "ImageContent",
		VerboseName: "image",
		Table:       store.BlockTable{Name: "page_imagecontent", Columns: []string{"image_url", "alt_text", "position"}},
		Fields: []Field{
			{Name: "image_url", Label: "Image URL", Widget: WidgetText, Required: true, MaxLength: 500},
			{Name: "alt_text", Label: "Alternative text", Widget: WidgetText, MaxLength: 255},
			{Name: "position", Label: "Position", Widget: WidgetSelect, Choices: imagePositions, Default: ImagePositionBlock},
		},
		Fieldsets: []uikit.FieldGroup{
			uikit.Fields("region", "ordering"),
			uikit.Leaf("image_url"),
			uikit.Fields("alt_text", "position"),
		},
		Clean: cleanImage,
	}
}

func cleanImage(values map[string]string) (map[string]string, FieldErrors) {
	errs := FieldErrors{}

	src := required(values, errs, "image_url")
	maxLength(errs, "image_url", src, 500)
	if _, bad := errs["image_url"]; !bad && !isImageURL(src) {
		errs["image_url"] = "Enter an http(s) URL or an absolute path."
	}

	alt := strings.TrimSpace(values["alt_text"])
	maxLength(errs, "alt_text", alt, 255)

	pos := strings.TrimSpace(values["position"])
	if pos == "" {
		pos = ImagePositionBlock
	}
	if !validChoice(imagePositions, pos) {
		errs["position"] = "Select a valid choice. " + pos + " is not one of the available choices."
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return map[string]string{"image_url": src, "alt_text": alt, "position": pos}, nil
}

func isImageURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "":
		return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//")
	default:
		return false
	}
}

func validChoice(choices []model.Choice, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}
