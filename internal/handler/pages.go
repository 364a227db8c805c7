// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/tree"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// Changelist query parameters.
const (
	paramActive       = "active"
	paramInNavigation = "in_navigation"
	paramLanguage     = "language"
	paramTemplate     = "template"
	paramSearch       = "q"
	// paramError marks a changelist request that was already redirected
	// once because of an incorrect lookup.
	paramError = "e"
)

// errIncorrectLookup is returned for changelist parameters that name an
// unknown filter or carry a malformed value.
var errIncorrectLookup = errors.New("incorrect lookup parameters")

// editMainFields is the top block of the change view. The remaining page
// fields live in the settings fieldset.
var editMainFields = []uikit.FieldGroup{
	uikit.Fields(forms.FieldActive, forms.FieldInNavigation),
	uikit.Leaf(forms.FieldTemplate),
	uikit.Leaf(forms.FieldTitle),
}

// PagesHandler handles the page admin: changelist, add, change, history
// and delete views.
type PagesHandler struct {
	queries      *store.Queries
	pages        *service.PageService
	reference    *service.ReferenceService
	eventService *service.EventService
	renderer     *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(db *sql.DB, pages *service.PageService, reference *service.ReferenceService, events *service.EventService, renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{
		queries:      store.New(db),
		pages:        pages,
		reference:    reference,
		eventService: events,
		renderer:     renderer,
	}
}

// PageRow is one line of the changelist.
type PageRow struct {
	Page          store.Page
	TemplateTitle string
}

// PagesListData holds data for the changelist template.
type PagesListData struct {
	Rows       []PageRow
	TotalCount int64
	Templates  []store.Template
	Languages  []string
	// Filtered disables the tree editor: a filtered list is not a whole
	// tree and cannot be saved back.
	Filtered     bool
	Active       string
	InNavigation string
	Language     string
	Template     string
	Search       string
}

// parseChangelistFilter turns the changelist query into a page filter.
// Unknown parameters and malformed values wrap errIncorrectLookup.
func parseChangelistFilter(query url.Values) (store.PageFilter, error) {
	var f store.PageFilter
	for key, values := range query {
		if key == paramError {
			continue
		}
		if len(values) != 1 {
			return f, fmt.Errorf("%w: %s given %d times", errIncorrectLookup, key, len(values))
		}
		v := values[0]
		switch key {
		case paramActive, paramInNavigation:
			b, err := parseBoolParam(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s=%q", errIncorrectLookup, key, v)
			}
			if key == paramActive {
				f.Active = &b
			} else {
				f.InNavigation = &b
			}
		case paramLanguage:
			if !model.IsValidLanguage(v) {
				return f, fmt.Errorf("%w: %s=%q", errIncorrectLookup, key, v)
			}
			f.Language = v
		case paramTemplate:
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				return f, fmt.Errorf("%w: %s=%q", errIncorrectLookup, key, v)
			}
			f.TemplateID = &id
		case paramSearch:
			f.Search = strings.TrimSpace(v)
		default:
			return f, fmt.Errorf("%w: unknown parameter %q", errIncorrectLookup, key)
		}
	}
	return f, nil
}

func parseBoolParam(v string) (bool, error) {
	switch v {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

func isFiltered(f store.PageFilter) bool {
	return f.Active != nil || f.InNavigation != nil || f.Language != "" || f.TemplateID != nil || f.Search != ""
}

// List handles GET /admin/pages/ - the changelist in tree order.
// An incorrect lookup redirects once to ?e=1; a second failure renders the
// invalid setup page instead of redirecting again.
func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := parseChangelistFilter(query)
	if err != nil {
		if query.Has(paramError) {
			slog.Warn("changelist lookup failed after redirect", "error", err, "query", r.URL.RawQuery)
			renderOrError(w, r, h.renderer, tmplInvalidSetup, render.TemplateData{Title: "Database error"})
			return
		}
		http.Redirect(w, r, r.URL.Path+"?"+paramError+"=1", http.StatusFound)
		return
	}

	ctx := r.Context()
	pages, err := h.pages.List(ctx, filter)
	if err != nil {
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}
	templates, err := h.reference.Templates(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list templates", "error", err)
		return
	}
	languages, err := h.pages.Languages(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list languages", "error", err)
		return
	}
	total, err := h.pages.Count(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count pages", "error", err)
		return
	}

	titles := make(map[int64]string, len(templates))
	for _, t := range templates {
		titles[t.ID] = t.Title
	}
	rows := make([]PageRow, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, PageRow{Page: p, TemplateTitle: titles[p.TemplateID.Int64]})
	}

	renderOrError(w, r, h.renderer, tmplPagesList, render.TemplateData{
		Title: "Select page to change",
		Data: PagesListData{
			Rows:         rows,
			TotalCount:   total,
			Templates:    templates,
			Languages:    languages,
			Filtered:     isFiltered(filter),
			Active:       query.Get(paramActive),
			InNavigation: query.Get(paramInNavigation),
			Language:     query.Get(paramLanguage),
			Template:     query.Get(paramTemplate),
			Search:       query.Get(paramSearch),
		},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Pages", redirectAdminPages),
	})
}

// pageChoices loads the select options of the page form. excludeID drops
// a page and its subtree from the parent choices.
func (h *PagesHandler) pageChoices(ctx context.Context, excludeID int64) (forms.PageChoices, error) {
	templates, err := h.reference.Templates(ctx)
	if err != nil {
		return forms.PageChoices{}, fmt.Errorf("listing templates: %w", err)
	}
	parents, err := h.pages.ParentChoices(ctx, excludeID)
	if err != nil {
		return forms.PageChoices{}, err
	}
	return forms.PageChoices{Templates: templates, Parents: parents}, nil
}

// PageAddData holds data for the add view template.
type PageAddData struct {
	Form      *forms.PageForm
	Fieldsets []forms.Fieldset
	Available []string
}

func (h *PagesHandler) renderAdd(w http.ResponseWriter, r *http.Request, form *forms.PageForm) {
	renderOrError(w, r, h.renderer, tmplPagesAdd, render.TemplateData{
		Title: "Add page",
		Data: PageAddData{
			Form:      form,
			Fieldsets: forms.AddFieldsets,
			Available: forms.PageFieldNames,
		},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Pages", redirectAdminPages, "Add page", redirectAdminPagesAdd),
	})
}

// AddForm handles GET /admin/pages/add/. A parent query parameter
// preselects the parent page.
func (h *PagesHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	choices, err := h.pageChoices(r.Context(), 0)
	if err != nil {
		logAndInternalError(w, "failed to load page choices", "error", err)
		return
	}
	form := forms.NewPageForm(choices, nil)
	if parent := r.URL.Query().Get(forms.FieldParent); parent != "" {
		form.FormValues[forms.FieldParent] = parent
	}
	h.renderAdd(w, r, form)
}

// Add handles POST /admin/pages/add/.
func (h *PagesHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPagesAdd) {
		return
	}

	ctx := r.Context()
	choices, err := h.pageChoices(ctx, 0)
	if err != nil {
		logAndInternalError(w, "failed to load page choices", "error", err)
		return
	}

	form := forms.BindPageForm(choices, r.PostForm)
	if !form.Valid() {
		h.renderAdd(w, r, form)
		return
	}

	page, err := h.pages.Create(ctx, form.Data, middleware.GetUserID(r))
	if err != nil {
		logAndInternalError(w, "failed to create page", "error", err)
		return
	}

	slog.Info("page created", "page_id", page.ID, "slug", page.Slug, "created_by", middleware.GetUserID(r))
	_ = h.eventService.LogPageEvent(ctx, model.EventLevelInfo, "Page created", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"page_id": page.ID, "title": page.Title})

	msg := fmt.Sprintf("The page \"%s\" was added successfully.", page.Title)
	switch {
	case r.PostForm.Has("_continue"):
		flashSuccess(w, r, h.renderer, pageURL(page.ID), msg+" You may edit it again below.")
	case r.PostForm.Has("_addanother"):
		flashSuccess(w, r, h.renderer, redirectAdminPagesAdd, msg+" You may add another page below.")
	default:
		flashSuccess(w, r, h.renderer, redirectAdminPages, msg)
	}
}

// ContentTypeChoice is one entry of the "add new item" menu of the change
// view: the verbose name and the same name without spaces.
type ContentTypeChoice struct {
	VerboseName string
	Key         string
}

// PageEditData holds data for the change view template.
type PageEditData struct {
	Page         store.Page
	Form         *forms.PageForm
	MainFields   []uikit.FieldGroup
	Settings     *forms.SettingsFieldset
	FormSets     []*forms.FormSet
	ContentTypes []ContentTypeChoice
	Errors       []string
}

// editContext is what both change view methods need besides the page.
type editContext struct {
	choices forms.PageChoices
	regions []store.Region
	blocks  map[string][]store.ContentBlock
}

func (h *PagesHandler) loadEditContext(ctx context.Context, id int64) (editContext, error) {
	choices, err := h.pageChoices(ctx, id)
	if err != nil {
		return editContext{}, err
	}
	regions, err := h.reference.Regions(ctx)
	if err != nil {
		return editContext{}, fmt.Errorf("listing regions: %w", err)
	}
	blocks, err := h.pages.Blocks(ctx, id)
	if err != nil {
		return editContext{}, err
	}
	return editContext{choices: choices, regions: regions, blocks: blocks}, nil
}

// loadPage fetches the page named by the {id} parameter. On failure it
// redirects to the changelist and returns false.
func (h *PagesHandler) loadPage(w http.ResponseWriter, r *http.Request) (store.Page, bool) {
	id, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminPages, "Invalid page ID")
		return store.Page{}, false
	}
	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, redirectAdminPages, "Page not found")
		} else {
			slog.Error("failed to get page", "error", err, "page_id", id)
			flashError(w, r, h.renderer, redirectAdminPages, "Error loading page")
		}
		return store.Page{}, false
	}
	return page, true
}

func (h *PagesHandler) renderEdit(w http.ResponseWriter, r *http.Request, page store.Page, form *forms.PageForm, settings *forms.SettingsFieldset, sets []*forms.FormSet) {
	types := h.pages.Registry().Types()
	contentTypes := make([]ContentTypeChoice, 0, len(types))
	for _, t := range types {
		contentTypes = append(contentTypes, ContentTypeChoice{VerboseName: t.VerboseName, Key: t.CompactName()})
	}

	var errs []string
	if form.IsBound() {
		for _, name := range forms.PageFieldNames {
			if msg, ok := form.Errors[name]; ok {
				errs = append(errs, name+": "+msg)
			}
		}
		for _, fs := range sets {
			errs = append(errs, fs.ErrorMessages()...)
		}
	}

	renderOrError(w, r, h.renderer, tmplPagesEdit, render.TemplateData{
		Title: "Change page",
		Data: PageEditData{
			Page:         page,
			Form:         form,
			MainFields:   editMainFields,
			Settings:     settings,
			FormSets:     sets,
			ContentTypes: contentTypes,
			Errors:       errs,
		},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Pages", redirectAdminPages, page.Title, pageURL(page.ID)),
	})
}

// ChangeForm handles GET /admin/pages/{id} - the page form, one inline
// form-set per content type and the settings fieldset.
func (h *PagesHandler) ChangeForm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	ec, err := h.loadEditContext(r.Context(), page.ID)
	if err != nil {
		logAndInternalError(w, "failed to load page editor", "error", err, "page_id", page.ID)
		return
	}

	types := h.pages.Registry().Types()
	sets := make([]*forms.FormSet, 0, len(types))
	for _, t := range types {
		sets = append(sets, forms.NewFormSet(t, ec.regions, ec.blocks[t.Prefix()]))
	}

	h.renderEdit(w, r, page,
		forms.NewPageForm(ec.choices, &page),
		forms.NewSettingsFieldset(ec.choices, &page),
		sets)
}

// Change handles POST /admin/pages/{id}. The page form and every form-set
// are saved together only when all of them are valid; otherwise the view
// is rendered again with every error and the submitted input.
func (h *PagesHandler) Change(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, pageURL(page.ID)) {
		return
	}

	ctx := r.Context()
	ec, err := h.loadEditContext(ctx, page.ID)
	if err != nil {
		logAndInternalError(w, "failed to load page editor", "error", err, "page_id", page.ID)
		return
	}

	form := forms.BindPageForm(ec.choices, r.PostForm)
	types := h.pages.Registry().Types()
	sets := make([]*forms.FormSet, 0, len(types))
	for _, t := range types {
		sets = append(sets, forms.BindFormSet(t, ec.regions, ec.blocks[t.Prefix()], r.PostForm))
	}
	settings := forms.BindSettingsFieldset(ec.choices, r.PostForm)

	if form.Valid() && forms.AllValid(sets) {
		updated, err := h.pages.Update(ctx, page.ID, form.Data, sets, middleware.GetUserID(r))
		switch {
		case err == nil:
			slog.Info("page updated", "page_id", updated.ID, "slug", updated.Slug, "updated_by", middleware.GetUserID(r))
			_ = h.eventService.LogPageEvent(ctx, model.EventLevelInfo, "Page updated", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
				map[string]any{"page_id": updated.ID, "title": updated.Title})
			flashSuccess(w, r, h.renderer, r.URL.Path, fmt.Sprintf("The page \"%s\" was changed successfully.", updated.Title))
			return
		case errors.Is(err, tree.ErrCyclicParent), errors.Is(err, tree.ErrUnknownNode):
			// The parent choices changed between render and submit.
			form.Errors[forms.FieldParent] = "Select a valid parent page"
			settings.Errors[forms.FieldParent] = form.Errors[forms.FieldParent]
		case errors.Is(err, service.ErrPageNotFound):
			flashError(w, r, h.renderer, redirectAdminPages, "Page not found")
			return
		default:
			logAndInternalError(w, "failed to update page", "error", err, "page_id", page.ID)
			return
		}
	}

	h.renderEdit(w, r, page, form, settings, sets)
}

// HistoryEntry is one line of the history view.
type HistoryEntry struct {
	store.PageHistory
	UserName string
}

// PageHistoryData holds data for the history view template.
type PageHistoryData struct {
	Page    store.Page
	Entries []HistoryEntry
}

// History handles GET /admin/pages/{id}/history/.
func (h *PagesHandler) History(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	history, err := h.pages.History(ctx, page.ID)
	if err != nil {
		logAndInternalError(w, "failed to list page history", "error", err, "page_id", page.ID)
		return
	}

	names := make(map[int64]string)
	entries := make([]HistoryEntry, 0, len(history))
	for _, e := range history {
		entry := HistoryEntry{PageHistory: e}
		if e.UserID.Valid {
			name, ok := names[e.UserID.Int64]
			if !ok {
				if u, err := h.queries.GetUserByID(ctx, e.UserID.Int64); err == nil {
					name = u.Name
				}
				names[e.UserID.Int64] = name
			}
			entry.UserName = name
		}
		entries = append(entries, entry)
	}

	renderOrError(w, r, h.renderer, tmplPagesHistory, render.TemplateData{
		Title: "Change history: " + page.Title,
		Data:  PageHistoryData{Page: page, Entries: entries},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Pages", redirectAdminPages,
			page.Title, pageURL(page.ID), "History", ""),
	})
}

// PageDeleteData holds data for the delete confirmation template.
type PageDeleteData struct {
	Page        store.Page
	Descendants []store.Page
}

// DeleteConfirm handles GET /admin/pages/{id}/delete/.
func (h *PagesHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	subtree, err := h.pages.Subtree(r.Context(), page.ID)
	if err != nil {
		logAndInternalError(w, "failed to load subtree", "error", err, "page_id", page.ID)
		return
	}

	renderOrError(w, r, h.renderer, tmplPagesDelete, render.TemplateData{
		Title: "Are you sure?",
		Data:  PageDeleteData{Page: page, Descendants: subtree[1:]},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Pages", redirectAdminPages,
			page.Title, pageURL(page.ID), "Delete", ""),
	})
}

// Delete handles POST /admin/pages/{id}/delete/.
func (h *PagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadPage(w, r)
	if !ok {
		return
	}

	removed, err := h.deletePage(r, page.ID)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, redirectAdminPages, "Page not found")
			return
		}
		logAndInternalError(w, "failed to delete page", "error", err, "page_id", page.ID)
		return
	}

	msg := fmt.Sprintf("The page \"%s\" was deleted successfully.", page.Title)
	if n := len(removed) - 1; n > 0 {
		msg += fmt.Sprintf(" %d subpage(s) were deleted with it.", n)
	}
	flashSuccess(w, r, h.renderer, redirectAdminPages, msg)
}

// deletePage removes a page with its subtree and records the deletion.
func (h *PagesHandler) deletePage(r *http.Request, id int64) ([]store.Page, error) {
	ctx := r.Context()
	removed, err := h.pages.Delete(ctx, id, middleware.GetUserID(r))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(removed))
	for _, p := range removed {
		ids = append(ids, p.ID)
	}
	slog.Info("page deleted", "page_id", id, "removed", len(removed), "deleted_by", middleware.GetUserID(r))
	_ = h.eventService.LogPageEvent(ctx, model.EventLevelInfo, "Page deleted", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"page_id": id, "title": removed[0].Title, "removed_ids": ids})
	return removed, nil
}
