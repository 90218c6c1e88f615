// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage abstracts where uploaded files live: local disk for
// development and S3-compatible object storage for production. Book and
// audio files are private and only reachable through expiring signed URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultSignedURLTTL is how long a download link stays valid.
const DefaultSignedURLTTL = time.Hour

// Storage errors.
var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrInvalidToken = errors.New("storage: invalid or expired token")
)

// Storage stores and retrieves uploaded objects by key. Keys are
// slash-separated paths like "books/pdf/clean-code.pdf".
type Storage interface {
	// Save writes an object. An existing object under the same key is
	// replaced.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a reader for an object. The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// SignedURL returns an expiring URL granting read access to a private
	// object.
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
