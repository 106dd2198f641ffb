/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"fmt"
	"runtime"
)

// Build variables, set through -ldflags when building a release.
var (
	GitCommit  string
	GitVersion string
	GitBranch  = "development"
)

// Version returns the release tag this binary was built from, or the branch name for untagged builds.
func Version() string {
	if GitVersion == "" || GitVersion == "undefined" {
		return GitBranch
	}
	return GitVersion
}

// BuildInfo describes the binary as printed by the version command.
func BuildInfo() string {
	return fmt.Sprintf("Git version: %s\nGit commit: %s\nOS/Arch: %s/%s\n", Version(), GitCommit, runtime.GOOS, runtime.GOARCH)
}
