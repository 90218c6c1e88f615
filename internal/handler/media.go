// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sophiabent/bookhaven/internal/storage"
)

// publicMediaPrefixes are the storage key prefixes reachable without
// authentication. Book and audio files stay behind signed URLs.
var publicMediaPrefixes = []string{"covers/", "featured/"}

// MediaHandler streams public images (covers, featured images) from the
// storage backend.
type MediaHandler struct {
	storage storage.Storage
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(st storage.Storage) *MediaHandler {
	return &MediaHandler{storage: st}
}

// Serve handles GET /media/*.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || key != path.Clean(key) || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	allowed := false
	for _, prefix := range publicMediaPrefixes {
		if strings.HasPrefix(key, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		http.NotFound(w, r)
		return
	}

	obj, err := h.storage.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to open media object", "error", err, "key", key)
		return
	}
	defer obj.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.Copy(w, obj)
}
