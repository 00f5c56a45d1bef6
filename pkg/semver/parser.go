// Package semver parses API version ranges and negotiates the API version a
// request is served under.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:parser"

// Range is a parsed request version specifier.
type Range struct {
	// Raw input, trimmed (e.g. "1", "^1.2", ">=1.0.0 <2.0.0", "").
	Raw string
	// Major is set for major-only specifiers, otherwise -1.
	Major int
	// Constraint is set for every non-empty, non-major-only specifier.
	Constraint *masterminds.Constraints
}

// IsEmpty reports whether the range accepts any version.
func (r *Range) IsEmpty() bool {
	return r.Raw == ""
}

var (
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseRange parses a version specifier.
//
// Supported formats:
//   - ""                 (any version)
//   - 1                  (major only)
//   - 1.2.0              (exact version)
//   - ^1.2.0, ~1.2       (caret / tilde range)
//   - >=1.0.0 <2.0.0     (comparison range)
func ParseRange(input string) (*Range, error) {
	raw := strings.TrimSpace(input)
	r := &Range{Raw: raw, Major: -1}
	if raw == "" {
		return r, nil
	}
	if IsMajorOnly(raw) {
		r.Major = ExtractMajorFromRange(raw)
		return r, nil
	}

	c, err := masterminds.NewConstraint(raw)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid version range %q: %w", logPrefix, raw, err)
	}
	r.Constraint = c
	return r, nil
}

// Check reports whether version satisfies the range.
func (r *Range) Check(version *masterminds.Version) bool {
	switch {
	case r.IsEmpty():
		return true
	case r.Major >= 0:
		return int(version.Major()) == r.Major
	default:
		return r.Constraint.Check(version)
	}
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "1").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "1.2.0").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	major, err := strconv.Atoi(rangeStr)
	if err != nil {
		return -1
	}
	return major
}
