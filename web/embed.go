// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the admin templates and the admin media files.
package web

import "embed"

// Templates holds layouts/, partials/, admin/ and auth/.
//
//go:embed all:templates
var Templates embed.FS

// Static holds the admin media served below the admin media path.
//
//go:embed all:static/dist
var Static embed.FS
