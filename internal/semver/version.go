// Package semver implements the NPM-style version-requirement language:
// parsing, matching, and display of ranges such as "^1.2.3", "~1.2",
// "1.2.x", "1.2.3 - 2.0.0", and "||"-separated unions of the above.
package semver

import (
	"fmt"

	mastersemver "github.com/Masterminds/semver"
)

// Version is a parsed semantic version, ordered per semver 2.0.0.
type Version struct {
	inner *mastersemver.Version
	raw   string
}

// ParseVersion parses a concrete version string such as "1.2.3" or "1.2.3-beta.1+build".
func ParseVersion(text string) (Version, error) {
	v, err := mastersemver.NewVersion(text)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", text, err)
	}
	return Version{inner: v, raw: text}, nil
}

// String returns the original textual form of the version.
func (v Version) String() string {
	return v.raw
}

// Major, Minor, Patch expose the numeric triple.
func (v Version) Major() int64 { return v.inner.Major() }
func (v Version) Minor() int64 { return v.inner.Minor() }
func (v Version) Patch() int64 { return v.inner.Patch() }

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int {
	return v.inner.Compare(o.inner)
}

// LessThan reports whether v orders before o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// SortVersionsDescending sorts versions highest-first, per spec.md §4.5's
// "sort descending, pick the first" selection rule.
func SortVersionsDescending(versions []Version) {
	// insertion sort: the candidate lists involved are small (per-package
	// version counts), and a stable, allocation-free sort keeps the
	// resolver's selection trivially auditable.
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && versions[j].Compare(versions[j-1]) > 0; j-- {
			versions[j], versions[j-1] = versions[j-1], versions[j]
		}
	}
}
