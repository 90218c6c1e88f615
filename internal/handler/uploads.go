// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/sophiabent/bookhaven/internal/imaging"
	"github.com/sophiabent/bookhaven/internal/storage"
)

// maxUploadMemory is the in-memory buffer for multipart parsing; larger
// files spill to temp files.
const maxUploadMemory = 10 << 20

// formFile opens an optional multipart file field. Returns (nil, nil, nil)
// when the field is absent or empty.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if header.Size == 0 {
		_ = f.Close()
		return nil, nil, nil
	}
	return f, header, nil
}

// saveImageUpload validates and normalizes an uploaded image, producing
// a primary variant stored under keyPrefix. Returns the storage key.
func saveImageUpload(ctx context.Context, st storage.Storage, f multipart.File, size int64, keyPrefix string, variant imaging.VariantConfig) (string, error) {
	defer func() { _ = f.Close() }()

	reader, _, err := storage.ValidateUpload(f, size, storage.UploadImage)
	if err != nil {
		return "", err
	}

	img, err := imaging.Process(reader)
	if err != nil {
		return "", fmt.Errorf("processing image: %w", err)
	}

	data, _, _, err := img.Variant(variant)
	if err != nil {
		return "", fmt.Errorf("resizing image: %w", err)
	}
	if data == nil {
		// Source already smaller than the target: keep it as-is
		if data, err = img.Encode(variant.Quality); err != nil {
			return "", fmt.Errorf("encoding image: %w", err)
		}
	}

	key := keyPrefix + "/" + uuid.NewString() + ".jpg"
	if err := st.Save(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg"); err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return key, nil
}

// saveFileUpload validates and stores a non-image upload (PDF, audio).
// Returns the storage key.
func saveFileUpload(ctx context.Context, st storage.Storage, f multipart.File, size int64, kind storage.UploadKind, keyPrefix, ext string) (string, error) {
	defer func() { _ = f.Close() }()

	reader, contentType, err := storage.ValidateUpload(f, size, kind)
	if err != nil {
		return "", err
	}

	key := keyPrefix + "/" + uuid.NewString() + ext
	if err := st.Save(ctx, key, reader, size, contentType); err != nil {
		return "", fmt.Errorf("storing file: %w", err)
	}
	return key, nil
}
