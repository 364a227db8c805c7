// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/tree"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// ErrPageNotFound is returned when an operation names a page that does not
// exist.
var ErrPageNotFound = errors.New("page not found")

// PageService runs the page operations that touch the nested-set columns,
// the content blocks and the page history together. Every write runs in a
// single transaction.
type PageService struct {
	db       *sql.DB
	queries  *store.Queries
	registry *content.Registry
	now      func() time.Time
}

// NewPageService creates a PageService over db for the content types in
// registry.
func NewPageService(db *sql.DB, registry *content.Registry) *PageService {
	return &PageService{
		db:       db,
		queries:  store.New(db),
		registry: registry,
		now:      time.Now,
	}
}

// Registry returns the content types pages are edited with.
func (s *PageService) Registry() *content.Registry {
	return s.registry
}

func (s *PageService) inTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func notFound(id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	return fmt.Errorf("loading page %d: %w", id, err)
}

// Get returns the page with id.
func (s *PageService) Get(ctx context.Context, id int64) (store.Page, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		return store.Page{}, notFound(id, err)
	}
	return p, nil
}

// List returns pages matching filter in tree order.
func (s *PageService) List(ctx context.Context, filter store.PageFilter) ([]store.Page, error) {
	return s.queries.ListPagesFiltered(ctx, filter)
}

// Count returns the total number of pages.
func (s *PageService) Count(ctx context.Context) (int64, error) {
	return s.queries.CountPages(ctx)
}

// Languages returns the languages pages use, for the changelist filter.
func (s *PageService) Languages(ctx context.Context) ([]string, error) {
	return s.queries.ListPageLanguages(ctx)
}

// ParentChoices lists every page that may become the parent of excludeID:
// all pages except excludeID and its subtree. excludeID 0 lists all pages.
func (s *PageService) ParentChoices(ctx context.Context, excludeID int64) ([]forms.ParentChoice, error) {
	pages, err := s.queries.ListPagesInTreeOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	nodes := nodesOf(pages)

	out := make([]forms.ParentChoice, 0, len(pages))
	for _, p := range pages {
		if excludeID != 0 && (p.ID == excludeID || tree.IsDescendant(nodes, excludeID, p.ID)) {
			continue
		}
		out = append(out, forms.ParentChoice{ID: p.ID, Title: p.Title, Level: p.Level})
	}
	return out, nil
}

// Subtree returns page id followed by its descendants in tree order.
func (s *PageService) Subtree(ctx context.Context, id int64) ([]store.Page, error) {
	pages, err := s.queries.ListPagesInTreeOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	nodes := nodesOf(pages)

	var out []store.Page
	found := false
	for _, p := range pages {
		switch {
		case p.ID == id:
			out = append([]store.Page{p}, out...)
			found = true
		case tree.IsDescendant(nodes, id, p.ID):
			out = append(out, p)
		}
	}
	if !found {
		return nil, fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	return out, nil
}

// Blocks returns the content blocks of pageID keyed by content type prefix.
// Every registered type has an entry, possibly empty.
func (s *PageService) Blocks(ctx context.Context, pageID int64) (map[string][]store.ContentBlock, error) {
	out := make(map[string][]store.ContentBlock)
	for _, t := range s.registry.Types() {
		blocks, err := s.queries.ListBlocks(ctx, t.Table, pageID)
		if err != nil {
			return nil, fmt.Errorf("listing %s blocks: %w", t.Prefix(), err)
		}
		out[t.Prefix()] = blocks
	}
	return out, nil
}

// History returns the audit trail of a page, newest first.
func (s *PageService) History(ctx context.Context, pageID int64) ([]store.PageHistory, error) {
	return s.queries.ListPageHistory(ctx, pageID)
}

// Create inserts a page as the last child of its parent, or as a new tree
// after the existing ones when it has no parent.
func (s *PageService) Create(ctx context.Context, d forms.PageData, userID int64) (store.Page, error) {
	var created store.Page
	err := s.inTx(ctx, func(q *store.Queries) error {
		pages, err := q.ListPagesInTreeOrder(ctx)
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}

		now := s.now()
		created, err = q.CreatePage(ctx, store.CreatePageParams{
			Active:          d.Active,
			InNavigation:    d.InNavigation,
			TemplateID:      d.TemplateID,
			Title:           d.Title,
			Slug:            d.Slug,
			ParentID:        d.ParentID,
			Language:        d.Language,
			OverrideUrl:     d.OverrideURL,
			MetaKeywords:    d.MetaKeywords,
			MetaDescription: d.MetaDescription,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("creating page: %w", err)
		}

		pages = append(pages, created)
		if err := renumber(ctx, q, pages, nodesOf(pages)); err != nil {
			return err
		}

		return q.CreatePageHistory(ctx, store.CreatePageHistoryParams{
			PageID:    created.ID,
			PageTitle: created.Title,
			UserID:    util.NullInt64FromID(userID),
			Action:    model.HistoryActionAdd,
			Message:   "Added.",
			CreatedAt: now,
		})
	})
	if err != nil {
		return store.Page{}, err
	}
	return s.Get(ctx, created.ID)
}

// Update saves the page form data and every content form-set of page id in
// one transaction. A changed parent moves the page with its subtree to the
// last child position of the new parent. All sets must be valid.
func (s *PageService) Update(ctx context.Context, id int64, d forms.PageData, sets []*forms.FormSet, userID int64) (store.Page, error) {
	if !forms.AllValid(sets) {
		return store.Page{}, errors.New("updating page with invalid content form-sets")
	}

	err := s.inTx(ctx, func(q *store.Queries) error {
		current, err := q.GetPageByID(ctx, id)
		if err != nil {
			return notFound(id, err)
		}

		pages, err := q.ListPagesInTreeOrder(ctx)
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}
		nodes := nodesOf(pages)
		moved := current.ParentID != d.ParentID
		if moved {
			nodes, err = tree.Move(nodes, id, d.ParentID.Int64)
			if err != nil {
				return fmt.Errorf("moving page %d: %w", id, err)
			}
		}

		now := s.now()
		updated, err := q.UpdatePage(ctx, store.UpdatePageParams{
			ID:              id,
			Active:          d.Active,
			InNavigation:    d.InNavigation,
			TemplateID:      d.TemplateID,
			Title:           d.Title,
			Slug:            d.Slug,
			ParentID:        d.ParentID,
			Language:        d.Language,
			OverrideUrl:     d.OverrideURL,
			MetaKeywords:    d.MetaKeywords,
			MetaDescription: d.MetaDescription,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("updating page %d: %w", id, err)
		}

		if moved {
			if err := renumber(ctx, q, pages, nodes); err != nil {
				return err
			}
		}

		for _, fs := range sets {
			if err := fs.Save(ctx, q, id); err != nil {
				return err
			}
		}

		return q.CreatePageHistory(ctx, store.CreatePageHistoryParams{
			PageID:    id,
			PageTitle: updated.Title,
			UserID:    util.NullInt64FromID(userID),
			Action:    model.HistoryActionChange,
			Message:   changeMessage(current, d, sets),
			CreatedAt: now,
		})
	})
	if err != nil {
		return store.Page{}, err
	}
	return s.Get(ctx, id)
}

// changeMessage describes an update the way the history view lists it.
func changeMessage(old store.Page, d forms.PageData, sets []*forms.FormSet) string {
	var changed []string
	check := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	check(forms.FieldActive, old.Active != d.Active)
	check(forms.FieldInNavigation, old.InNavigation != d.InNavigation)
	check(forms.FieldTemplate, old.TemplateID != d.TemplateID)
	check(forms.FieldTitle, old.Title != d.Title)
	check(forms.FieldSlug, old.Slug != d.Slug)
	check(forms.FieldParent, old.ParentID != d.ParentID)
	check(forms.FieldLanguage, old.Language != d.Language)
	check(forms.FieldOverrideURL, old.OverrideUrl != d.OverrideURL)
	check(forms.FieldMetaKeywords, old.MetaKeywords != d.MetaKeywords)
	check(forms.FieldMetaDescription, old.MetaDescription != d.MetaDescription)
	for _, fs := range sets {
		check(fs.Type.VerboseName, fs.HasChanges())
	}

	if len(changed) == 0 {
		return "No fields changed."
	}
	return "Changed " + strings.Join(changed, ", ") + "."
}

// SaveTree writes a nested-set encoding submitted by the tree editor.
// positions must pass tree.Validate, both alone and laid over the stored
// pages they leave out; otherwise the error wraps tree.ErrInvalidPosition.
// A page id that matches no row fails with ErrPageNotFound. Nothing is
// written on failure. It returns the batch id recorded
// in the history of every page whose parent changed.
func (s *PageService) SaveTree(ctx context.Context, positions []tree.Position, userID int64) (string, error) {
	if err := tree.Validate(positions); err != nil {
		return "", err
	}
	if len(positions) == 0 {
		return "", nil
	}

	batch := uuid.NewString()
	err := s.inTx(ctx, func(q *store.Queries) error {
		pages, err := q.ListPagesInTreeOrder(ctx)
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}
		byID := make(map[int64]store.Page, len(pages))
		for _, p := range pages {
			byID[p.ID] = p
		}

		params := make([]store.UpdatePageTreePositionParams, 0, len(positions))
		for _, pos := range positions {
			if _, ok := byID[pos.PageID]; !ok {
				return fmt.Errorf("page %d: %w", pos.PageID, ErrPageNotFound)
			}
			params = append(params, positionParams(pos))
		}
		if err := validateMerged(pages, positions); err != nil {
			return err
		}
		if err := q.UpdatePageTreePositions(ctx, params); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %v", ErrPageNotFound, err)
			}
			return fmt.Errorf("saving tree: %w", err)
		}

		now := s.now()
		for _, pos := range positions {
			old := byID[pos.PageID]
			if old.ParentID.Int64 == pos.ParentID {
				continue
			}
			err := q.CreatePageHistory(ctx, store.CreatePageHistoryParams{
				PageID:    old.ID,
				PageTitle: old.Title,
				UserID:    util.NullInt64FromID(userID),
				Action:    model.HistoryActionMove,
				Message:   moveMessage(old.ParentID.Int64, pos.ParentID),
				Batch:     batch,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("recording move of page %d: %w", old.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return batch, nil
}

// validateMerged checks the forest that results from laying positions over
// the stored rows of pages. Pages left out of positions keep their stored
// encoding, so a partial save must still fit around them.
func validateMerged(pages []store.Page, positions []tree.Position) error {
	submitted := make(map[int64]tree.Position, len(positions))
	for _, pos := range positions {
		submitted[pos.PageID] = pos
	}

	merged := make([]tree.Position, 0, len(pages))
	for _, p := range pages {
		if pos, ok := submitted[p.ID]; ok {
			merged = append(merged, pos)
			continue
		}
		merged = append(merged, storedPosition(p))
	}
	if err := tree.Validate(merged); err != nil {
		return fmt.Errorf("saved tree would not fit stored pages: %w", err)
	}
	return nil
}

func storedPosition(p store.Page) tree.Position {
	return tree.Position{
		TreeID:   p.TreeID,
		ParentID: p.ParentID.Int64,
		Left:     p.Lft,
		Right:    p.Rght,
		Level:    p.Level,
		PageID:   p.ID,
	}
}

func moveMessage(from, to int64) string {
	describe := func(id int64) string {
		if id == 0 {
			return "top level"
		}
		return fmt.Sprintf("page %d", id)
	}
	return fmt.Sprintf("Moved from %s to %s.", describe(from), describe(to))
}

// Delete removes page id together with its subtree and content blocks, then
// renumbers the remaining forest. It returns the pages removed, the page
// itself first.
func (s *PageService) Delete(ctx context.Context, id int64, userID int64) ([]store.Page, error) {
	var removed []store.Page
	err := s.inTx(ctx, func(q *store.Queries) error {
		pages, err := q.ListPagesInTreeOrder(ctx)
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}
		nodes := nodesOf(pages)

		var remaining []store.Page
		for _, p := range pages {
			switch {
			case p.ID == id:
				removed = append([]store.Page{p}, removed...)
			case tree.IsDescendant(nodes, id, p.ID):
				removed = append(removed, p)
			default:
				remaining = append(remaining, p)
			}
		}
		if len(removed) == 0 || removed[0].ID != id {
			return fmt.Errorf("page %d: %w", id, ErrPageNotFound)
		}

		now := s.now()
		for _, p := range removed {
			msg := "Deleted."
			if p.ID != id {
				msg = fmt.Sprintf("Deleted with ancestor page %d.", id)
			}
			err := q.CreatePageHistory(ctx, store.CreatePageHistoryParams{
				PageID:    p.ID,
				PageTitle: p.Title,
				UserID:    util.NullInt64FromID(userID),
				Action:    model.HistoryActionDelete,
				Message:   msg,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("recording delete of page %d: %w", p.ID, err)
			}
		}

		n, err := q.DeletePage(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting page %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("page %d: %w", id, ErrPageNotFound)
		}

		return renumber(ctx, q, remaining, tree.Remove(nodes, id))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Verify checks the stored encoding of the whole forest. An error wraps
// tree.ErrInvalidPosition when the rows are inconsistent.
func (s *PageService) Verify(ctx context.Context) error {
	pages, err := s.queries.ListPagesInTreeOrder(ctx)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	positions := make([]tree.Position, 0, len(pages))
	for _, p := range pages {
		positions = append(positions, storedPosition(p))
	}
	return tree.Validate(positions)
}

// nodesOf reduces pages, given in tree order, to parent pointers in
// sibling order.
func nodesOf(pages []store.Page) []tree.Node {
	nodes := make([]tree.Node, 0, len(pages))
	for _, p := range pages {
		nodes = append(nodes, tree.Node{ID: p.ID, ParentID: p.ParentID.Int64})
	}
	return nodes
}

func positionParams(pos tree.Position) store.UpdatePageTreePositionParams {
	return store.UpdatePageTreePositionParams{
		TreeID:   pos.TreeID,
		ParentID: util.NullInt64FromID(pos.ParentID),
		Lft:      pos.Left,
		Rght:     pos.Right,
		Level:    pos.Level,
		ID:       pos.PageID,
	}
}

// renumber rebuilds the encoding of nodes and writes the rows of pages
// whose stored position differs from it.
func renumber(ctx context.Context, q *store.Queries, pages []store.Page, nodes []tree.Node) error {
	positions, err := tree.Rebuild(nodes)
	if err != nil {
		return fmt.Errorf("rebuilding tree: %w", err)
	}

	current := make(map[int64]store.Page, len(pages))
	for _, p := range pages {
		current[p.ID] = p
	}

	var params []store.UpdatePageTreePositionParams
	for _, pos := range positions {
		p, ok := current[pos.PageID]
		if ok && p.TreeID == pos.TreeID && p.ParentID.Int64 == pos.ParentID &&
			p.Lft == pos.Left && p.Rght == pos.Right && p.Level == pos.Level {
			continue
		}
		params = append(params, positionParams(pos))
	}
	if err := q.UpdatePageTreePositions(ctx, params); err != nil {
		return fmt.Errorf("renumbering tree: %w", err)
	}
	return nil
}
