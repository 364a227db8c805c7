// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/version"
)

func TestEventsList(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.events.LogTreeEvent(ctx, model.EventLevelInfo, "Page tree saved", nil, "10.0.0.1",
		map[string]any{"positions": 3}))

	h := NewEventsHandler(e.events, e.renderer)
	rec := e.serve(h.List, getRequest("/admin/events/"), &e.fx.Admin, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Page tree saved")
	assert.Contains(t, body, "10.0.0.1")
	assert.Contains(t, body, "&#34;positions&#34;: 3")
}

func TestFormatMetadata(t *testing.T) {
	assert.Empty(t, formatMetadata(""))
	assert.Empty(t, formatMetadata("{}"))
	assert.Equal(t, "{\n  \"a\": 1\n}", formatMetadata(`{"a":1}`))
	assert.Equal(t, "not json", formatMetadata("not json"))
}

func TestCacheStatsAndClear(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.reference.Templates(ctx)
	require.NoError(t, err)

	h := NewCacheHandler(e.renderer, e.refCache, "memory", e.events)

	rec := e.serve(h.Stats, getRequest("/admin/cache/"), &e.fx.Admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>memory</strong>")
	assert.Contains(t, rec.Body.String(), "<th>Misses</th><td>1</td>")

	rec = e.serve(h.Clear, postRequest("/admin/cache/clear/", url.Values{}), &e.fx.Admin, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/cache/", rec.Header().Get("Location"))

	stats, ok := e.refCache.Stats()
	require.True(t, ok)
	assert.Zero(t, stats.Items)

	events, err := e.events.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryCache, events[0].Category)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	h := NewHealthHandler(e.db, version.Info{Version: "v1.2.3"})

	rec := httptest.NewRecorder()
	h.Liveness(rec, getRequest("/health/live"))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "v1.2.3", body["version"])

	rec = httptest.NewRecorder()
	h.Readiness(rec, getRequest("/health/ready"))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, e.db.Close())
	rec = httptest.NewRecorder()
	h.Readiness(rec, getRequest("/health/ready"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
