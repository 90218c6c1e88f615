// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the public site, the
// reader dashboard, the admin back office, and the JSON API.
package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/{id}/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/{id}/delete"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteVerifyEmail is the email verification route.
	RouteVerifyEmail = "/verify-email"
	// RouteForgotPassword is the password reset request route.
	RouteForgotPassword = "/forgot-password"
	// RouteNewPassword is the password reset completion route.
	RouteNewPassword = "/new-password"

	// RouteBooks is the public books route.
	RouteBooks = "/books"
	// RouteBlog is the public blog route.
	RouteBlog = "/blog"
	// RouteDashboard is the reader dashboard route.
	RouteDashboard = "/dashboard"
	// RouteAdmin is the admin back office route.
	RouteAdmin = "/admin"

	// Admin subtree routes, relative to RouteAdmin.
	RouteUsers          = "/users"
	RouteCategories     = "/categories"
	RouteBlogCategories = "/blog-categories"
	RouteCampaigns      = "/campaigns"
	RouteEvents         = "/events"
)

// Redirect targets.
const (
	redirectLogin           = "/login"
	redirectDashboard       = "/dashboard"
	redirectAdmin           = "/admin"
	redirectAdminBooks      = "/admin/books"
	redirectAdminBlogs      = "/admin/blogs"
	redirectAdminCategories = "/admin/categories"
	redirectAdminUsers      = "/admin/users"
	redirectAdminCampaigns  = "/admin/campaigns"
)

// User roles, re-exported for handler convenience.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = "user_id"

// Listing bounds for paginated endpoints.
const (
	defaultPageSize = 12
	maxPageSize     = 100
)
