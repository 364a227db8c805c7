// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/tree"
)

// Form fields of the tree editor endpoints.
const (
	fieldTree   = "tree"
	fieldPageID = "page-id"
)

// maxTreePayload bounds the body of a tree save.
const maxTreePayload = 4 << 20

// SaveTree handles POST /admin/pages/save-pagetree/. The tree field holds
// a JSON array of [tree_id, parent_id, left, right, level, page_id]
// tuples describing the whole forest. Every tuple is validated before
// anything is written, and all rows are updated in one transaction.
func (h *PagesHandler) SaveTree(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTreePayload)
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form data")
		return
	}

	positions, err := tree.ParsePayload([]byte(r.PostForm.Get(fieldTree)))
	if err != nil {
		slog.Info("rejected tree payload", "error", err)
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	batch, err := h.pages.SaveTree(ctx, positions, middleware.GetUserID(r))
	switch {
	case err == nil:
	case errors.Is(err, tree.ErrInvalidPosition), errors.Is(err, service.ErrPageNotFound):
		slog.Info("rejected tree payload", "error", err)
		writeText(w, http.StatusBadRequest, err.Error())
		return
	default:
		logAndInternalError(w, "failed to save page tree", "error", err)
		return
	}

	if len(positions) > 0 {
		slog.Info("page tree saved", "positions", len(positions), "batch", batch, "saved_by", middleware.GetUserID(r))
		_ = h.eventService.LogTreeEvent(ctx, model.EventLevelInfo, "Page tree saved", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
			map[string]any{"positions": len(positions), "batch": batch})
	}
	writeText(w, http.StatusOK, "OK")
}

// DeleteAJAX handles POST /admin/pages/delete-page-ajax/. The page named
// by the page-id field is removed with its subtree and content blocks.
func (h *PagesHandler) DeleteAJAX(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form data")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get(fieldPageID)), 10, 64)
	if err != nil || id <= 0 {
		writeText(w, http.StatusBadRequest, "invalid page id")
		return
	}

	if _, err := h.deletePage(r, id); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			writeText(w, http.StatusNotFound, "page not found")
			return
		}
		logAndInternalError(w, "failed to delete page", "error", err, "page_id", id)
		return
	}
	writeText(w, http.StatusOK, "OK")
}
