// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string `json:"version"`    // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string `json:"git_commit"` // Short git commit hash (e.g., "abc1234")
	BuildTime string `json:"build_time"` // Build timestamp in RFC3339 format
}

// Dev is the version reported when none was injected.
const Dev = "dev"

// Normalized returns a copy with empty fields replaced by placeholders.
func (i Info) Normalized() Info {
	if i.Version == "" {
		i.Version = Dev
	}
	if i.GitCommit == "" {
		i.GitCommit = "unknown"
	}
	if i.BuildTime == "" {
		i.BuildTime = "unknown"
	}
	return i
}

// String formats the version line printed by -version.
func (i Info) String() string {
	n := i.Normalized()
	return fmt.Sprintf("ocms %s (commit: %s, built: %s)", n.Version, n.GitCommit, n.BuildTime)
}
