// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
	"github.com/olegiv/ocms-pagetree/internal/tree"
)

func setupPageService(t *testing.T) (*PageService, *sql.DB, testutil.Fixture) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	fx := testutil.SeedFixture(t, db)
	return NewPageService(db, content.Default()), db, fx
}

func pageData(title string, parentID int64) forms.PageData {
	return forms.PageData{
		Active:       true,
		InNavigation: true,
		Title:        title,
		Slug:         title,
		ParentID:     sql.NullInt64{Int64: parentID, Valid: parentID != 0},
		Language:     model.DefaultLanguage,
	}
}

func mustCreate(t *testing.T, s *PageService, title string, parentID int64) store.Page {
	t.Helper()
	p, err := s.Create(context.Background(), pageData(title, parentID), 0)
	require.NoError(t, err)
	return p
}

// position fetches the stored (tree, parent, lft, rght, level) of a page.
func position(t *testing.T, s *PageService, id int64) [5]int64 {
	t.Helper()
	p, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return [5]int64{p.TreeID, p.ParentID.Int64, p.Lft, p.Rght, p.Level}
}

func TestCreate_AppendsAsLastChild(t *testing.T) {
	s, _, fx := setupPageService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "a", 0)
	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID))

	b := mustCreate(t, s, "b", a.ID)
	c := mustCreate(t, s, "c", 0)
	d, err := s.Create(ctx, pageData("d", a.ID), fx.Admin.ID)
	require.NoError(t, err)

	assert.Equal(t, [5]int64{1, 0, 1, 6, 0}, position(t, s, a.ID))
	assert.Equal(t, [5]int64{1, a.ID, 2, 3, 1}, position(t, s, b.ID))
	assert.Equal(t, [5]int64{1, a.ID, 4, 5, 1}, position(t, s, d.ID))
	assert.Equal(t, [5]int64{2, 0, 1, 2, 0}, position(t, s, c.ID))

	history, err := s.History(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.HistoryActionAdd, history[0].Action)
	assert.Equal(t, fx.Admin.ID, history[0].UserID.Int64)
}

func TestUpdate_MovesSubtree(t *testing.T) {
	s, _, _ := setupPageService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", a.ID)
	e := mustCreate(t, s, "e", b.ID)
	c := mustCreate(t, s, "c", 0)

	d := pageData("b", c.ID)
	_, err := s.Update(ctx, b.ID, d, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID))
	assert.Equal(t, [5]int64{2, 0, 1, 6, 0}, position(t, s, c.ID))
	assert.Equal(t, [5]int64{2, c.ID, 2, 5, 1}, position(t, s, b.ID))
	assert.Equal(t, [5]int64{2, b.ID, 3, 4, 2}, position(t, s, e.ID))

	history, err := s.History(ctx, b.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, model.HistoryActionChange, history[0].Action)
	assert.Equal(t, "Changed parent.", history[0].Message)
}

func TestUpdate_RejectsCycle(t *testing.T) {
	s, _, _ := setupPageService(t)
	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", a.ID)

	_, err := s.Update(context.Background(), a.ID, pageData("a", b.ID), nil, 0)
	assert.ErrorIs(t, err, tree.ErrCyclicParent)
	assert.Equal(t, [5]int64{1, 0, 1, 4, 0}, position(t, s, a.ID))
}

func TestUpdate_NotFound(t *testing.T) {
	s, _, _ := setupPageService(t)
	_, err := s.Update(context.Background(), 404, pageData("x", 0), nil, 0)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestUpdate_SavesFormSets(t *testing.T) {
	s, _, fx := setupPageService(t)
	ctx := context.Background()
	page := mustCreate(t, s, "home", 0)

	values := url.Values{
		"richtextcontent-TOTAL_FORMS":   {"1"},
		"richtextcontent-INITIAL_FORMS": {"0"},
		"richtextcontent-0-region":      {"main"},
		"richtextcontent-0-text":        {"<p>hello</p>"},
	}
	fs := forms.BindFormSet(content.RichText(), fx.Regions, nil, values)
	require.True(t, fs.Valid(), "errors: %v", fs.ErrorMessages())

	d := pageData("Home", 0)
	d.Slug = "home"
	_, err := s.Update(ctx, page.ID, d, []*forms.FormSet{fs}, fx.Editor.ID)
	require.NoError(t, err)

	blocks, err := s.Blocks(ctx, page.ID)
	require.NoError(t, err)
	assert.Len(t, blocks, len(content.Default().Types()), "one entry per registered type")
	require.Len(t, blocks["richtextcontent"], 1)
	assert.Equal(t, "<p>hello</p>", blocks["richtextcontent"][0].Values["text"])
	assert.Empty(t, blocks["markdowncontent"])

	history, err := s.History(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed title, rich text.", history[0].Message)
}

func TestUpdate_InvalidFormSetPersistsNothing(t *testing.T) {
	s, _, fx := setupPageService(t)
	ctx := context.Background()
	page := mustCreate(t, s, "home", 0)

	invalid := forms.BindFormSet(content.Image(), fx.Regions, nil, url.Values{})
	_, err := s.Update(ctx, page.ID, pageData("renamed", 0), []*forms.FormSet{invalid}, 0)
	require.Error(t, err)

	got, err := s.Get(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "home", got.Title)
}

func TestParentChoices_ExcludesSubtree(t *testing.T) {
	s, _, _ := setupPageService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", a.ID)
	mustCreate(t, s, "e", b.ID)
	c := mustCreate(t, s, "c", 0)

	choices, err := s.ParentChoices(ctx, b.ID)
	require.NoError(t, err)
	var ids []int64
	for _, ch := range choices {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []int64{a.ID, c.ID}, ids)

	all, err := s.ParentChoices(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, int64(2), all[2].Level)
}

func TestSaveTree_SingleTuple(t *testing.T) {
	s, db, _ := setupPageService(t)
	// Tree 1 is free: p1 to p4 hold trees 2 to 5 and p5 sits in tree 6.
	for i, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		testutil.CreatePage(t, db, title, 0, int64(i+2), 1, 2, 0)
	}
	ctx := context.Background()

	positions, err := tree.ParsePayload([]byte(`[[1,0,1,2,0,5]]`))
	require.NoError(t, err)
	_, err = s.SaveTree(ctx, positions, 0)
	require.NoError(t, err)

	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, 5))
	assert.NoError(t, s.Verify(ctx))
}

func TestSaveTree_PartialMustFitStoredPages(t *testing.T) {
	tests := []struct {
		name string
		// pos builds the payload from the ids of a, b and c.
		pos func(a, b, c int64) []tree.Position
	}{
		{"into occupied tree", func(a, b, c int64) []tree.Position {
			return []tree.Position{{TreeID: 1, ParentID: 0, Left: 1, Right: 2, Level: 0, PageID: b}}
		}},
		{"parent shrunk away from child", func(a, b, c int64) []tree.Position {
			return []tree.Position{{TreeID: 1, ParentID: 0, Left: 1, Right: 2, Level: 0, PageID: a}}
		}},
		{"child moved out of parent bounds", func(a, b, c int64) []tree.Position {
			return []tree.Position{{TreeID: 1, ParentID: a, Left: 5, Right: 6, Level: 1, PageID: c}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := setupPageService(t)
			ctx := context.Background()
			a := mustCreate(t, s, "a", 0)
			b := mustCreate(t, s, "b", 0)
			c := mustCreate(t, s, "c", a.ID)

			_, err := s.SaveTree(ctx, tt.pos(a.ID, b.ID, c.ID), 0)
			assert.ErrorIs(t, err, tree.ErrInvalidPosition)
			assert.Equal(t, [5]int64{1, 0, 1, 4, 0}, position(t, s, a.ID), "no row may change")
			assert.Equal(t, [5]int64{2, 0, 1, 2, 0}, position(t, s, b.ID), "no row may change")
			assert.Equal(t, [5]int64{1, a.ID, 2, 3, 1}, position(t, s, c.ID), "no row may change")
			assert.NoError(t, s.Verify(ctx))
		})
	}
}

func TestSaveTree_PartialIntoFreeTree(t *testing.T) {
	s, _, _ := setupPageService(t)
	ctx := context.Background()
	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", 0)

	_, err := s.SaveTree(ctx, []tree.Position{
		{TreeID: 3, ParentID: 0, Left: 1, Right: 2, Level: 0, PageID: b.ID},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID))
	assert.Equal(t, [5]int64{3, 0, 1, 2, 0}, position(t, s, b.ID))
	assert.NoError(t, s.Verify(ctx))
}

func TestSaveTree_Empty(t *testing.T) {
	s, _, _ := setupPageService(t)
	a := mustCreate(t, s, "a", 0)

	batch, err := s.SaveTree(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID))
}

func TestSaveTree_MoveRecordsBatch(t *testing.T) {
	s, _, fx := setupPageService(t)
	ctx := context.Background()
	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", 0)

	batch, err := s.SaveTree(ctx, []tree.Position{
		{TreeID: 1, ParentID: 0, Left: 1, Right: 4, Level: 0, PageID: a.ID},
		{TreeID: 1, ParentID: a.ID, Left: 2, Right: 3, Level: 1, PageID: b.ID},
	}, fx.Admin.ID)
	require.NoError(t, err)
	require.NotEmpty(t, batch)

	assert.Equal(t, [5]int64{1, a.ID, 2, 3, 1}, position(t, s, b.ID))
	assert.NoError(t, s.Verify(ctx))

	history, err := s.History(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryActionMove, history[0].Action)
	assert.Equal(t, batch, history[0].Batch)

	history, err = s.History(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "a root that stays a root has no move entry")
}

func TestSaveTree_Invalid(t *testing.T) {
	s, _, _ := setupPageService(t)
	a := mustCreate(t, s, "a", 0)

	_, err := s.SaveTree(context.Background(), []tree.Position{
		{TreeID: 1, ParentID: 0, Left: 1, Right: 2, Level: 1, PageID: a.ID},
	}, 0)
	assert.ErrorIs(t, err, tree.ErrInvalidPosition)
	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID))
}

func TestSaveTree_UnknownPageRollsBack(t *testing.T) {
	s, _, _ := setupPageService(t)
	a := mustCreate(t, s, "a", 0)

	_, err := s.SaveTree(context.Background(), []tree.Position{
		{TreeID: 7, ParentID: 0, Left: 1, Right: 2, Level: 0, PageID: a.ID},
		{TreeID: 8, ParentID: 0, Left: 1, Right: 2, Level: 0, PageID: 999},
	}, 0)
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, a.ID), "no row may change")
}

func TestDelete_RemovesSubtreeAndBlocks(t *testing.T) {
	s, db, _ := setupPageService(t)
	ctx := context.Background()
	q := store.New(db)
	rt := content.RichText()

	a := mustCreate(t, s, "a", 0)
	b := mustCreate(t, s, "b", a.ID)
	e := mustCreate(t, s, "e", b.ID)
	c := mustCreate(t, s, "c", a.ID)

	_, err := q.CreateBlock(ctx, rt.Table, store.ContentBlock{PageID: b.ID, Region: "main", Values: map[string]string{"text": "x"}})
	require.NoError(t, err)
	_, err = q.CreateBlock(ctx, rt.Table, store.ContentBlock{PageID: e.ID, Region: "main", Values: map[string]string{"text": "y"}})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, b.ID, removed[0].ID)
	assert.Equal(t, e.ID, removed[1].ID)

	for _, id := range []int64{b.ID, e.ID} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrPageNotFound)
		n, err := q.CountBlocks(ctx, rt.Table, id)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	assert.Equal(t, [5]int64{1, 0, 1, 4, 0}, position(t, s, a.ID))
	assert.Equal(t, [5]int64{1, a.ID, 2, 3, 1}, position(t, s, c.ID))

	history, err := s.History(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryActionDelete, history[0].Action)
}

func TestDelete_RootRenumbersTrees(t *testing.T) {
	s, _, _ := setupPageService(t)
	a := mustCreate(t, s, "a", 0)
	c := mustCreate(t, s, "c", 0)

	_, err := s.Delete(context.Background(), a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, [5]int64{1, 0, 1, 2, 0}, position(t, s, c.ID))
}

func TestDelete_NotFound(t *testing.T) {
	s, _, _ := setupPageService(t)
	_, err := s.Delete(context.Background(), 42, 0)
	assert.True(t, errors.Is(err, ErrPageNotFound))
}

func TestVerify(t *testing.T) {
	s, db, _ := setupPageService(t)
	ctx := context.Background()
	a := mustCreate(t, s, "a", 0)
	mustCreate(t, s, "b", a.ID)
	require.NoError(t, s.Verify(ctx))

	// A second root sharing tree 1 breaks the encoding.
	testutil.CreatePage(t, db, "stray", 0, 1, 5, 6, 0)
	assert.ErrorIs(t, s.Verify(ctx), tree.ErrInvalidPosition)
}

func TestSubtree(t *testing.T) {
	s, _, _ := setupPageService(t)
	ctx := context.Background()
	root := mustCreate(t, s, "root", 0)
	child := mustCreate(t, s, "child", root.ID)
	grandchild := mustCreate(t, s, "grandchild", child.ID)
	mustCreate(t, s, "other", 0)

	pages, err := s.Subtree(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, child.ID, pages[0].ID)
	assert.Equal(t, grandchild.ID, pages[1].ID)

	_, err = s.Subtree(ctx, 999)
	assert.ErrorIs(t, err, ErrPageNotFound)
}
