// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// Breadcrumb is one step in a page's ancestry trail. The current page
// carries Active and renders without a link.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}
