// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sophiabent/bookhaven/internal/render"
)

// flashError flashes message and 303-redirects to url.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	renderer.SetFlash(r, message, "error")
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashSuccess flashes message and 303-redirects to url.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	renderer.SetFlash(r, message, "success")
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// parseFormOrRedirect parses the form, bouncing back to redirectURL
// with a flash when the body is malformed. Reports whether the handler
// may continue.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndInternalError logs at error level and answers with a plain 500.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// requireEntityWithRedirect loads a row by ID for an HTML handler. A
// missing row or query failure flashes an error and redirects; the
// false return means the response is already written.
func requireEntityWithRedirect[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	redirectURL string,
	entityName string,
	id int64,
	queryFn func(id int64) (T, error),
) (T, bool) {
	entity, err := queryFn(id)
	if err == nil {
		return entity, true
	}

	if errors.Is(err, sql.ErrNoRows) {
		flashError(w, r, renderer, redirectURL, entityName+" not found")
	} else {
		slog.Error("failed to get "+entityName, "error", err, entityName+"_id", id)
		flashError(w, r, renderer, redirectURL, "Error loading "+entityName)
	}
	var zero T
	return zero, false
}

// requireEntityWithJSONError is the API counterpart of
// requireEntityWithRedirect: failures become JSON error responses.
func requireEntityWithJSONError[T any](
	w http.ResponseWriter,
	entityName string,
	id int64,
	queryFn func(id int64) (T, error),
) (T, bool) {
	entity, err := queryFn(id)
	if err == nil {
		return entity, true
	}

	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, http.StatusNotFound, entityName+" not found")
	} else {
		slog.Error("failed to get "+entityName, "error", err, entityName+"_id", id)
		JSONError(w, http.StatusInternalServerError, "Internal server error")
	}
	var zero T
	return zero, false
}
