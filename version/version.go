// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
)

var (
	// BuildDate is the RFC3339 time of the commit being built. It is set
	// through -ldflags at release time.
	BuildDate string

	// GitCommit is the commit being built, set through -ldflags.
	GitCommit string

	// Version is the main version number of the running binary.
	Version = "0.3.0"

	// VersionPrerelease marks a pre-release such as "dev" or "rc1". Empty
	// means a final release.
	VersionPrerelease = "dev"
)

// Info describes the running build.
type Info struct {
	BuildDate         time.Time
	Revision          string
	Version           string
	VersionPrerelease string
}

// Get returns the build information, falling back to the VCS revision
// recorded by the go toolchain when GitCommit was not injected.
func Get() *Info {
	built, _ := time.Parse(time.RFC3339, BuildDate)

	rev := GitCommit
	if rev == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					rev = s.Value
				}
			}
		}
	}

	return &Info{
		BuildDate:         built,
		Revision:          rev,
		Version:           Version,
		VersionPrerelease: VersionPrerelease,
	}
}

// Number is the version in semver form, e.g. 0.3.0-dev.
func (i *Info) Number() string {
	if i.VersionPrerelease == "" {
		return i.Version
	}
	return i.Version + "-" + i.VersionPrerelease
}

// Semver parses Number. It fails only on a malformed Version.
func (i *Info) Semver() (*goversion.Version, error) {
	return goversion.NewSemver(i.Number())
}

// String renders the banner printed by the version command.
func (i *Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "openapi-fork v%s", i.Number())
	if !i.BuildDate.IsZero() {
		fmt.Fprintf(&b, "\nBuildDate %s", i.BuildDate.Format(time.RFC3339))
	}
	if i.Revision != "" {
		fmt.Fprintf(&b, "\nRevision %s", i.Revision)
	}
	return b.String()
}
