// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Upload size limits per file kind.
const (
	MaxImageSize = 5 << 20   // 5 MB
	MaxPDFSize   = 50 << 20  // 50 MB
	MaxAudioSize = 100 << 20 // 100 MB
)

// UploadKind names a class of accepted uploads.
type UploadKind string

// Accepted upload kinds.
const (
	UploadImage UploadKind = "image"
	UploadPDF   UploadKind = "pdf"
	UploadAudio UploadKind = "audio"
)

// allowedTypes maps each kind to the MIME types accepted for it. Types are
// detected from content, never trusted from the request.
var allowedTypes = map[UploadKind][]string{
	UploadImage: {"image/jpeg", "image/png", "image/webp", "image/gif"},
	UploadPDF:   {"application/pdf"},
	UploadAudio: {"audio/mpeg", "audio/mp4", "audio/ogg", "audio/wave", "audio/wav", "audio/x-wav"},
}

// MaxSize returns the byte limit for an upload kind.
func MaxSize(kind UploadKind) int64 {
	switch kind {
	case UploadImage:
		return MaxImageSize
	case UploadPDF:
		return MaxPDFSize
	case UploadAudio:
		return MaxAudioSize
	default:
		return 0
	}
}

// ValidateUpload checks an upload's size and sniffed content type, returning
// a reader positioned at the start of the content and the detected type.
// size is the declared length from the multipart header.
func ValidateUpload(r io.Reader, size int64, kind UploadKind) (io.Reader, string, error) {
	limit := MaxSize(kind)
	if limit == 0 {
		return nil, "", fmt.Errorf("unknown upload kind %q", kind)
	}
	if size > limit {
		return nil, "", fmt.Errorf("file too large: %d bytes (max %d)", size, limit)
	}

	// Sniff the real content type from the first 512 bytes
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	// DetectContentType appends charset parameters for text types
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	if !typeAllowed(kind, contentType) {
		return nil, "", fmt.Errorf("unsupported %s type %q", kind, contentType)
	}

	return io.MultiReader(bytes.NewReader(head), r), contentType, nil
}

func typeAllowed(kind UploadKind, contentType string) bool {
	for _, t := range allowedTypes[kind] {
		if t == contentType {
			return true
		}
	}
	// MP3 frames without an ID3 tag sniff as application/octet-stream;
	// DetectContentType has no audio coverage beyond a few containers
	if kind == UploadAudio && contentType == "application/octet-stream" {
		return true
	}
	return false
}
