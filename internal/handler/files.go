// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/sophiabent/bookhaven/internal/storage"
)

// FileHandler serves files from local storage against signed download
// tokens. When S3 storage is configured downloads are presigned directly
// against the bucket and this handler is not mounted.
type FileHandler struct {
	local *storage.LocalStorage
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(local *storage.LocalStorage) *FileHandler {
	return &FileHandler{local: local}
}

// Download handles GET /files/download?token=... The token itself is the
// authorization; the route is public.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		JSONError(w, http.StatusBadRequest, "Missing download token")
		return
	}

	key, err := h.local.VerifyToken(token)
	if err != nil {
		JSONError(w, http.StatusForbidden, "Invalid or expired download link")
		return
	}

	f, err := h.local.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "File not found")
			return
		}
		slog.Error("failed to open stored file", "error", err, "key", key)
		JSONError(w, http.StatusInternalServerError, "Failed to serve file")
		return
	}
	defer func() { _ = f.Close() }()

	filename := path.Base(key)
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, f); err != nil {
		slog.Error("failed to stream file", "error", err, "key", key)
	}
}
