// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRegions(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.ListRegions, getRequest("/admin/regions/"), &e.fx.Admin, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>sidebar</td>")
}

func TestNewRegionForm(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.NewRegionForm, getRequest("/admin/regions/add/"), &e.fx.Admin, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="position" id="id_position" value="0"`)
}

func TestCreateRegion(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// Warm the cache so the create has to invalidate it.
	before, err := e.reference.Regions(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)

	rec := e.serve(e.referenceHandler.CreateRegion, postRequest("/admin/regions/add/", url.Values{
		"key": {"footer"}, "title": {"Footer"}, "position": {"5"},
	}), &e.fx.Admin, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/regions/", rec.Header().Get("Location"))

	after, err := e.reference.Regions(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 3)
}

func TestCreateRegion_Duplicate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.CreateRegion, postRequest("/admin/regions/add/", url.Values{
		"key": {"main"}, "title": {"Main again"}, "position": {"0"},
	}), &e.fx.Admin, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A region with this key already exists")
}

func TestCreateRegion_Invalid(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.CreateRegion, postRequest("/admin/regions/add/", url.Values{
		"key": {"Bad Key"}, "position": {"x"},
	}), &e.fx.Admin, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Title is required")
	assert.Contains(t, body, "Enter a whole number.")
}

func TestCreateTemplate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.CreateTemplate, postRequest("/admin/templates/add/", url.Values{
		"title": {"Two columns"}, "path": {"two_columns.html"},
	}), &e.fx.Admin, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	templates, err := e.reference.Templates(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}

func TestCreateTemplate_Duplicate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.CreateTemplate, postRequest("/admin/templates/add/", url.Values{
		"title": {"Copy"}, "path": {e.fx.Template.Path},
	}), &e.fx.Admin, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A template with this path already exists")
}

func TestListTemplates(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.referenceHandler.ListTemplates, getRequest("/admin/templates/"), &e.fx.Admin, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<code>base.html</code>")
}
