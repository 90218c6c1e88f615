// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version exposes the build identity stamped in at link time.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden via -ldflags "-X". Plain `go build` leaves the dev values.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is a snapshot of the build identity.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
}

// Get returns the build identity. When the commit was not stamped via
// ldflags it falls back to the VCS revision embedded by the Go
// toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					info.GitCommit = s.Value[:7]
					break
				}
			}
		}
	}
	return info
}

// String renders the identity in the form the -version flag prints.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}
