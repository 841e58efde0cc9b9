// Package version reports the client release and parses "major.minor"
// version strings.
package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

// Current is the release of this client.
const Current = "0.1"

// Commit is the VCS revision, set with -ldflags "-X ...version.Commit=...".
// When unset it is read from the build info.
var Commit = ""

// Release represents a parsed "major.minor" version.
type Release struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Release, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Release{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Release{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Release) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Release) Compatible(other Release) bool {
	return v.Major == other.Major
}

// Less reports whether v precedes other.
func (v Release) Less(other Release) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Revision returns Commit, falling back to the vcs.revision build setting,
// shortened to 12 characters.
func Revision() string {
	rev := Commit
	if rev == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					rev = s.Value
				}
			}
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev == "" {
		return "unknown"
	}
	return rev
}

// String describes the running client, for logs and the activity state line.
func String() string {
	return "presencectl " + Current + " (" + Revision() + ")"
}
