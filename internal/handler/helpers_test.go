// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/cache"
	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/session"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
	"github.com/olegiv/ocms-pagetree/web"
)

// testEnv wires the handlers against a migrated database.
type testEnv struct {
	db        *sql.DB
	fx        testutil.Fixture
	sm        *scs.SessionManager
	renderer  *render.Renderer
	events    *service.EventService
	pages     *service.PageService
	reference *service.ReferenceService
	refCache  *cache.ReferenceCache

	pagesHandler     *PagesHandler
	referenceHandler *ReferenceHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	e := &testEnv{db: db, fx: testutil.SeedFixture(t, db)}
	e.sm = session.New(db, true)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	e.renderer, err = render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: e.sm,
		AdminMedia:     "/media/sys/feincms/",
		IsDev:          true,
	})
	require.NoError(t, err)

	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: 100})
	t.Cleanup(func() { _ = backend.Close() })
	e.refCache = cache.NewReferenceCache(backend, store.New(db), time.Minute)

	e.events = service.NewEventService(db)
	e.pages = service.NewPageService(db, content.Default())
	e.reference = service.NewReferenceService(db, e.refCache)

	e.pagesHandler = NewPagesHandler(db, e.pages, e.reference, e.events, e.renderer)
	e.referenceHandler = NewReferenceHandler(e.reference, e.events, e.renderer)
	return e
}

// serve runs h with a loaded session, the given user and chi URL params.
func (e *testEnv) serve(h http.HandlerFunc, req *http.Request, user *store.User, params map[string]string) *httptest.ResponseRecorder {
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	if user != nil {
		req = middleware.WithUser(req, *user)
	}
	rec := httptest.NewRecorder()
	e.sm.LoadAndSave(h).ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createPage(t *testing.T, title string, parentID int64) store.Page {
	t.Helper()
	p, err := e.pages.Create(context.Background(), forms.PageData{
		Active:       true,
		InNavigation: true,
		TemplateID:   sql.NullInt64{Int64: e.fx.Template.ID, Valid: true},
		Title:        title,
		Slug:         strings.ToLower(title),
		ParentID:     sql.NullInt64{Int64: parentID, Valid: parentID != 0},
		Language:     "en",
	}, e.fx.Admin.ID)
	require.NoError(t, err)
	return p
}

func getRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func postRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// emptyFormSets returns management data for every content type with no
// forms.
func emptyFormSets() url.Values {
	values := url.Values{}
	for _, t := range content.Default().Types() {
		values.Set(t.Prefix()+"-"+forms.TotalFormsKey, "0")
		values.Set(t.Prefix()+"-"+forms.InitialFormsKey, "0")
	}
	return values
}
