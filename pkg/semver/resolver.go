package semver

import (
	"errors"
	"fmt"
	"sort"

	masterminds "github.com/Masterminds/semver/v3"
)

const resolverLogPrefix = "semver:resolver"

// ErrNoMatchingVersion is returned when no supported version satisfies a range.
var ErrNoMatchingVersion = errors.New("no supported version satisfies range")

// NegotiateParams holds parameters for Negotiate.
type NegotiateParams struct {
	// Supported lists the API versions the service serves.
	Supported []string
	// Range is the version specifier sent by the caller.
	Range string
	// DefaultMajor is used when Range is empty; -1 means the highest major.
	DefaultMajor int
}

// Negotiate picks the highest supported version satisfying the requested
// range. Stable versions are preferred over prereleases.
func Negotiate(params NegotiateParams) (string, error) {
	r, err := ParseRange(params.Range)
	if err != nil {
		return "", err
	}

	versions := parseVersions(params.Supported)
	if len(versions) == 0 {
		return "", fmt.Errorf("%s - no supported versions configured: %w", resolverLogPrefix, ErrNoMatchingVersion)
	}

	if r.IsEmpty() && params.DefaultMajor >= 0 {
		r = &Range{Raw: fmt.Sprint(params.DefaultMajor), Major: params.DefaultMajor}
	}

	var matching []*masterminds.Version
	for _, v := range versions {
		if r.Check(v) {
			matching = append(matching, v)
		}
	}
	if len(matching) == 0 {
		return "", fmt.Errorf("%s - %q against %v: %w", resolverLogPrefix, params.Range, params.Supported, ErrNoMatchingVersion)
	}

	for _, v := range matching {
		if v.Prerelease() == "" {
			return v.Original(), nil
		}
	}
	return matching[0].Original(), nil
}

// GetUniqueMajors returns all unique major versions sorted descending.
func GetUniqueMajors(versions []string) []int {
	seen := make(map[int]bool)
	var majors []int

	for _, v := range parseVersions(versions) {
		m := int(v.Major())
		if !seen[m] {
			seen[m] = true
			majors = append(majors, m)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(majors)))
	return majors
}

// parseVersions parses and sorts versions descending, skipping invalid ones.
func parseVersions(raw []string) []*masterminds.Version {
	out := make([]*masterminds.Version, 0, len(raw))
	for _, s := range raw {
		v, err := masterminds.NewVersion(s)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(masterminds.Collection(out)))
	return out
}
