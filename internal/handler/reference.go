// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// ReferenceHandler handles the region and template admin.
type ReferenceHandler struct {
	reference    *service.ReferenceService
	eventService *service.EventService
	renderer     *render.Renderer
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(reference *service.ReferenceService, events *service.EventService, renderer *render.Renderer) *ReferenceHandler {
	return &ReferenceHandler{
		reference:    reference,
		eventService: events,
		renderer:     renderer,
	}
}

// RegionsListData holds data for the regions list template.
type RegionsListData struct {
	Regions []store.Region
}

// RegionFormData holds data for the region form template.
type RegionFormData struct {
	Form *forms.RegionForm
}

// TemplatesListData holds data for the templates list template.
type TemplatesListData struct {
	Templates []store.Template
}

// TemplateFormData holds data for the template form template.
type TemplateFormData struct {
	Form *forms.TemplateForm
}

// ListRegions handles GET /admin/regions/.
func (h *ReferenceHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.reference.Regions(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list regions", "error", err)
		return
	}
	renderOrError(w, r, h.renderer, tmplRegionsList, render.TemplateData{
		Title:       "Regions",
		Data:        RegionsListData{Regions: regions},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Regions", redirectAdminRegions),
	})
}

func (h *ReferenceHandler) renderRegionForm(w http.ResponseWriter, r *http.Request, form *forms.RegionForm) {
	renderOrError(w, r, h.renderer, tmplRegionsForm, render.TemplateData{
		Title:       "Add region",
		Data:        RegionFormData{Form: form},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Regions", redirectAdminRegions, "Add region", ""),
	})
}

// NewRegionForm handles GET /admin/regions/add/.
func (h *ReferenceHandler) NewRegionForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegionForm(w, r, &forms.RegionForm{
		FormValues: map[string]string{"position": "0"},
		Errors:     map[string]string{},
	})
}

// CreateRegion handles POST /admin/regions/add/.
func (h *ReferenceHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminRegions) {
		return
	}

	form := forms.BindRegionForm(r.PostForm)
	if !form.Valid() {
		h.renderRegionForm(w, r, form)
		return
	}

	region, err := h.reference.CreateRegion(r.Context(), form.Data)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			form.Errors["key"] = "A region with this key already exists"
			h.renderRegionForm(w, r, form)
			return
		}
		logAndInternalError(w, "failed to create region", "error", err)
		return
	}

	slog.Info("region created", "region_id", region.ID, "key", region.Key, "created_by", middleware.GetUserID(r))
	_ = h.eventService.LogSystemEvent(r.Context(), model.EventLevelInfo, "Region created", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"region_id": region.ID, "key": region.Key})
	flashSuccess(w, r, h.renderer, redirectAdminRegions, fmt.Sprintf("The region \"%s\" was added successfully.", region.Title))
}

// ListTemplates handles GET /admin/templates/.
func (h *ReferenceHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.reference.Templates(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list templates", "error", err)
		return
	}
	renderOrError(w, r, h.renderer, tmplTemplatesList, render.TemplateData{
		Title:       "Templates",
		Data:        TemplatesListData{Templates: templates},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Templates", redirectAdminTemplates),
	})
}

func (h *ReferenceHandler) renderTemplateForm(w http.ResponseWriter, r *http.Request, form *forms.TemplateForm) {
	renderOrError(w, r, h.renderer, tmplTemplatesForm, render.TemplateData{
		Title:       "Add template",
		Data:        TemplateFormData{Form: form},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Templates", redirectAdminTemplates, "Add template", ""),
	})
}

// NewTemplateForm handles GET /admin/templates/add/.
func (h *ReferenceHandler) NewTemplateForm(w http.ResponseWriter, r *http.Request) {
	h.renderTemplateForm(w, r, &forms.TemplateForm{
		FormValues: map[string]string{},
		Errors:     map[string]string{},
	})
}

// CreateTemplate handles POST /admin/templates/add/.
func (h *ReferenceHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminTemplates) {
		return
	}

	form := forms.BindTemplateForm(r.PostForm)
	if !form.Valid() {
		h.renderTemplateForm(w, r, form)
		return
	}

	tmpl, err := h.reference.CreateTemplate(r.Context(), form.Data)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			form.Errors["path"] = "A template with this path already exists"
			h.renderTemplateForm(w, r, form)
			return
		}
		logAndInternalError(w, "failed to create template", "error", err)
		return
	}

	slog.Info("template created", "template_id", tmpl.ID, "path", tmpl.Path, "created_by", middleware.GetUserID(r))
	_ = h.eventService.LogSystemEvent(r.Context(), model.EventLevelInfo, "Template created", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"template_id": tmpl.ID, "path": tmpl.Path})
	flashSuccess(w, r, h.renderer, redirectAdminTemplates, fmt.Sprintf("The template \"%s\" was added successfully.", tmpl.Title))
}
