// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-pagetree/internal/cache"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	renderer     *render.Renderer
	cache        *cache.ReferenceCache
	backend      string
	eventService *service.EventService
}

// NewCacheHandler creates a new CacheHandler. backend names the cache
// backend in use ("memory" or "redis").
func NewCacheHandler(renderer *render.Renderer, rc *cache.ReferenceCache, backend string, events *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer:     renderer,
		cache:        rc,
		backend:      backend,
		eventService: events,
	}
}

// CacheStatsData holds data for the cache stats template.
type CacheStatsData struct {
	Backend  string
	Stats    cache.Stats
	HasStats bool
}

// Stats handles GET /admin/cache/.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.cache.Stats()
	renderOrError(w, r, h.renderer, tmplCacheStats, render.TemplateData{
		Title:       "Cache",
		Data:        CacheStatsData{Backend: h.backend, Stats: stats, HasStats: ok},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Cache", redirectAdminCache),
	})
}

// Clear handles POST /admin/cache/clear/.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		slog.Error("failed to clear cache", "error", err)
		flashError(w, r, h.renderer, redirectAdminCache, "Error clearing cache")
		return
	}

	slog.Info("cache cleared", "backend", h.backend, "cleared_by", middleware.GetUserID(r))
	_ = h.eventService.LogCacheEvent(r.Context(), model.EventLevelInfo, "Cache cleared", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"backend": h.backend})
	flashSuccess(w, r, h.renderer, redirectAdminCache, "Cache cleared")
}
