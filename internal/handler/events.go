// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/uikit"
)

// eventsListLimit is how many events the event log page shows.
const eventsListLimit = 200

// EventsHandler shows the event log.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{events: events, renderer: renderer}
}

// EventRow is one line of the event log.
type EventRow struct {
	store.Event
	MetadataPretty string
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events []EventRow
}

// formatMetadata indents the JSON metadata of an event for display.
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(metadata), "", "  "); err != nil {
		return metadata
	}
	return buf.String()
}

// List handles GET /admin/events/.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Recent(r.Context(), eventsListLimit)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, EventRow{Event: e, MetadataPretty: formatMetadata(e.Metadata)})
	}

	renderOrError(w, r, h.renderer, tmplEventsList, render.TemplateData{
		Title:       "Event log",
		Data:        EventsListData{Events: rows},
		Breadcrumbs: uikit.Crumbs("Home", redirectAdmin, "Event log", ""),
	})
}
