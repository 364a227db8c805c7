// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixAdd is the add view of an admin model.
	RouteSuffixAdd = "/add/"
	// RouteSuffixHistory is the history view of one object.
	RouteSuffixHistory = "/history/"
	// RouteSuffixDelete is the delete confirmation of one object.
	RouteSuffixDelete = "/delete/"
	// RouteSaveTree is the tree persistence endpoint, below RoutePages.
	RouteSaveTree = "/save-pagetree/"
	// RouteDeleteAJAX is the AJAX delete endpoint, below RoutePages.
	RouteDeleteAJAX = "/delete-page-ajax/"

	// RouteLogin is the login route, below /admin.
	RouteLogin = "/login/"
	// RouteLogout is the logout route, below /admin.
	RouteLogout = "/logout/"

	// RoutePages is the pages admin route.
	RoutePages = "/pages"
	// RouteRegions is the regions admin route.
	RouteRegions = "/regions"
	// RouteTemplates is the templates admin route.
	RouteTemplates = "/templates"
	// RouteEvents is the event log route.
	RouteEvents = "/events/"
	// RouteCache is the cache admin route.
	RouteCache = "/cache"
	// RouteSuffixClear is the cache clear action.
	RouteSuffixClear = "/clear/"
)

// Redirect targets.
const (
	redirectAdmin          = "/admin/"
	redirectLogin          = "/admin/login/"
	redirectAdminPages     = "/admin/pages/"
	redirectAdminPagesAdd  = "/admin/pages/add/"
	redirectAdminRegions   = "/admin/regions/"
	redirectAdminTemplates = "/admin/templates/"
	redirectAdminCache     = "/admin/cache/"
)

// Flash message types.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
	flashTypeInfo    = "info"
)

// Template names.
const (
	tmplPagesList     = "admin/pages_list"
	tmplPagesAdd      = "admin/pages_add"
	tmplPagesEdit     = "admin/pages_edit"
	tmplPagesHistory  = "admin/pages_history"
	tmplPagesDelete   = "admin/pages_delete"
	tmplInvalidSetup  = "admin/invalid_setup"
	tmplRegionsList   = "admin/regions_list"
	tmplRegionsForm   = "admin/regions_form"
	tmplTemplatesList = "admin/templates_list"
	tmplTemplatesForm = "admin/templates_form"
	tmplEventsList    = "admin/events_list"
	tmplCacheStats    = "admin/cache_stats"
	tmplLogin         = "auth/login"
)

// pageURL returns the change view URL of a page.
func pageURL(id int64) string {
	return redirectAdminPages + formatID(id)
}
