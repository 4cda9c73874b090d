// Package apiver models the semantic version triple used to negotiate
// native API levels. Versions are totally ordered and convertible to the
// packed uint32 layout the native runtime speaks.
package apiver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is an API version triple. The zero value is 0.0.0.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// New builds a Version from its components.
func New(major, minor, patch uint32) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse reads a version from its string form ("1.2.0", "v1.2", "1.2").
func Parse(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid api version %q: %w", s, err)
	}
	return Version{
		Major: uint32(v.Major()),
		Minor: uint32(v.Minor()),
		Patch: uint32(v.Patch()),
	}, nil
}

// MustParse is Parse for statically known version literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders versions lexicographically by (major, minor, patch).
// It returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

func cmp(a, b uint32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// MajorMinor drops the patch component. Dispatch tables are defined at
// major.minor granularity, so chain walks compare at this precision.
func (v Version) MajorMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor}
}

// Packed layout used by the native runtime: variant 31:29, major 28:22,
// minor 21:12, patch 11:0.
const (
	majorShift = 22
	minorShift = 12
	majorMask  = 0x7f
	minorMask  = 0x3ff
	patchMask  = 0xfff
)

// Encoded returns the packed uint32 representation.
func (v Version) Encoded() uint32 {
	return (v.Major&majorMask)<<majorShift |
		(v.Minor&minorMask)<<minorShift |
		v.Patch&patchMask
}

// FromEncoded unpacks a native uint32 version.
func FromEncoded(u uint32) Version {
	return Version{
		Major: (u >> majorShift) & majorMask,
		Minor: (u >> minorShift) & minorMask,
		Patch: u & patchMask,
	}
}

// Satisfies checks v against a semver constraint expression such as
// ">=1.1 <1.3". Used by config files to pin acceptable runtime ranges.
func (v Version) Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	sv := semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
	return c.Check(sv), nil
}
