// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sophiabent/bookhaven/internal/util"
)

// LocalStorage keeps objects on the local filesystem. Signed URLs are
// served by the application itself: the URL carries a short-lived JWT
// naming the object key, verified on download.
type LocalStorage struct {
	baseDir    string
	baseURL    string // e.g. "http://localhost:8080"
	signingKey []byte
}

// NewLocalStorage creates a local storage rooted at baseDir. The directory
// is created if missing.
func NewLocalStorage(baseDir, baseURL string, signingKey []byte) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &LocalStorage{
		baseDir:    baseDir,
		baseURL:    baseURL,
		signingKey: signingKey,
	}, nil
}

// objectPath resolves a key to a filesystem path, rejecting traversal.
func (s *LocalStorage) objectPath(key string) (string, error) {
	if util.ContainsPathTraversal(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return util.SafeJoinPath(s.baseDir, filepath.FromSlash(key))
}

// Save writes an object to disk.
func (s *LocalStorage) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating object dir: %w", err)
	}

	// Write to a temp file first so a failed upload never leaves a
	// truncated object behind
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing object: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Open returns a reader for an object.
func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes an object.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// downloadClaims is the JWT payload for a signed download URL.
type downloadClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// SignedURL returns an application-served download URL carrying a token
// that expires after the given duration.
func (s *LocalStorage) SignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultSignedURLTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, downloadClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expires)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing download token: %w", err)
	}
	return s.baseURL + "/files/download?token=" + url.QueryEscape(signed), nil
}

// VerifyToken validates a download token and returns the object key it
// grants access to.
func (s *LocalStorage) VerifyToken(tokenString string) (string, error) {
	var claims downloadClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid || claims.Key == "" {
		return "", ErrInvalidToken
	}
	return claims.Key, nil
}

var _ Storage = (*LocalStorage)(nil)
