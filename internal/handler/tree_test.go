// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
)

func TestSaveTree_SingleTuple(t *testing.T) {
	e := newTestEnv(t)
	// Tree 1 is free: p1 to p4 hold trees 2 to 5 and p5 sits in tree 6.
	for i, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		testutil.CreatePage(t, e.db, title, 0, int64(i+2), 1, 2, 0)
	}

	rec := e.serve(e.pagesHandler.SaveTree, postRequest("/admin/pages/save-pagetree/", url.Values{"tree": {"[[1,0,1,2,0,5]]"}}), &e.fx.Editor, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	ctx := context.Background()
	p, err := e.pages.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.TreeID)
	assert.Equal(t, int64(1), p.Lft)
	assert.Equal(t, int64(2), p.Rght)
	assert.NoError(t, e.pages.Verify(ctx))
}

func TestSaveTree_PartialClashWithStoredTree(t *testing.T) {
	e := newTestEnv(t)
	a := e.createPage(t, "a", 0)
	b := e.createPage(t, "b", 0)
	e.createPage(t, "c", a.ID)
	payload := fmt.Sprintf("[[1,0,1,2,0,%d]]", b.ID)

	rec := e.serve(e.pagesHandler.SaveTree, postRequest("/admin/pages/save-pagetree/", url.Values{"tree": {payload}}), &e.fx.Editor, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ctx := context.Background()
	stored, err := e.pages.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TreeID)
	assert.NoError(t, e.pages.Verify(ctx))
}

func TestSaveTree_EmptyTree(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.pagesHandler.SaveTree, postRequest("/admin/pages/save-pagetree/", url.Values{"tree": {"[]"}}), &e.fx.Editor, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSaveTree_MoveLogsTreeEvent(t *testing.T) {
	e := newTestEnv(t)
	a := e.createPage(t, "a", 0)
	b := e.createPage(t, "b", 0)
	payload := fmt.Sprintf("[[1,0,1,4,0,%d],[1,%d,2,3,1,%d]]", a.ID, a.ID, b.ID)

	rec := e.serve(e.pagesHandler.SaveTree, postRequest("/admin/pages/save-pagetree/", url.Values{"tree": {payload}}), &e.fx.Editor, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	ctx := context.Background()
	moved, err := e.pages.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ParentID.Int64)
	assert.NoError(t, e.pages.Verify(ctx))

	events, err := e.events.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryTree, events[0].Category)
	assert.Contains(t, events[0].Metadata, `"positions":2`)
}

func TestSaveTree_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not json"},
		{"missing", ""},
		{"short tuple", "[[1,0,1,2,0]]"},
		{"bad level", "[[1,0,1,2,1,1]]"},
		{"unknown page", "[[1,0,1,2,0,999]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.createPage(t, "a", 0)

			rec := e.serve(e.pagesHandler.SaveTree, postRequest("/admin/pages/save-pagetree/", url.Values{"tree": {tt.payload}}), &e.fx.Editor, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEqual(t, "OK", rec.Body.String())
		})
	}
}

func TestDeleteAJAX(t *testing.T) {
	e := newTestEnv(t)
	root := e.createPage(t, "root", 0)
	child := e.createPage(t, "child", root.ID)

	rec := e.serve(e.pagesHandler.DeleteAJAX, postRequest("/admin/pages/delete-page-ajax/", url.Values{"page-id": {strconv.FormatInt(root.ID, 10)}}), &e.fx.Editor, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	_, err := e.pages.Get(context.Background(), child.ID)
	assert.ErrorIs(t, err, service.ErrPageNotFound)
}

func TestDeleteAJAX_Errors(t *testing.T) {
	tests := []struct {
		name   string
		pageID string
		want   int
	}{
		{"unknown page", "999", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
		{"missing", "", http.StatusBadRequest},
		{"negative", "-3", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)

			rec := e.serve(e.pagesHandler.DeleteAJAX, postRequest("/admin/pages/delete-page-ajax/", url.Values{"page-id": {tt.pageID}}), &e.fx.Editor, nil)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
