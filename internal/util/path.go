// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ContainsPathTraversal reports whether a path still escapes upward after
// cleaning. Object keys that trip this must be rejected before they reach
// the filesystem.
func ContainsPathTraversal(path string) bool {
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return true
	}
	return strings.Contains(cleaned, string(filepath.Separator)+"..")
}

// SafeJoinPath joins components onto base and verifies the result stays
// inside base. The trailing-separator check prevents "/uploads-evil" from
// passing when base is "/uploads".
func SafeJoinPath(base string, components ...string) (string, error) {
	joined := filepath.Join(append([]string{base}, components...)...)

	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolving joined path: %w", err)
	}
	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory", joined)
	}
	return joined, nil
}
