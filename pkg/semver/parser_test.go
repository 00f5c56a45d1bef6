package semver

import (
	"testing"

	masterminds "github.com/Masterminds/semver/v3"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantMajor      int
		wantConstraint bool
		wantErr        bool
	}{
		{name: "empty", input: "", wantMajor: -1},
		{name: "whitespace", input: "  ", wantMajor: -1},
		{name: "major only", input: "1", wantMajor: 1},
		{name: "exact version", input: "1.2.0", wantMajor: -1, wantConstraint: true},
		{name: "caret range", input: "^1.2", wantMajor: -1, wantConstraint: true},
		{name: "tilde range", input: "~1.2.0", wantMajor: -1, wantConstraint: true},
		{name: "comparison range", input: ">=1.0.0 <2.0.0", wantMajor: -1, wantConstraint: true},
		{name: "garbage", input: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:parser_test - expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if r.Major != tt.wantMajor {
				t.Errorf("semver:parser_test - Major = %d, want %d", r.Major, tt.wantMajor)
			}
			if (r.Constraint != nil) != tt.wantConstraint {
				t.Errorf("semver:parser_test - Constraint set = %v, want %v", r.Constraint != nil, tt.wantConstraint)
			}
		})
	}
}

func TestRange_Check(t *testing.T) {
	v := masterminds.MustParse("1.3.2")

	tests := []struct {
		rng  string
		want bool
	}{
		{"", true},
		{"1", true},
		{"2", false},
		{"^1.2", true},
		{"~1.2.0", false},
		{"1.3.2", true},
		{">=2.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			r, err := ParseRange(tt.rng)
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if got := r.Check(v); got != tt.want {
				t.Errorf("semver:parser_test - Check(%q) = %v, want %v", tt.rng, got, tt.want)
			}
		})
	}
}

func TestIsMajorOnly(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"12", true},
		{"1.0", false},
		{"^1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsMajorOnly(tt.input); got != tt.want {
			t.Errorf("IsMajorOnly(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsExactVersion(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1.2.3", true},
		{"1.2.3-beta.1", true},
		{"1.2.3+build.5", true},
		{"1.2", false},
		{"^1.2.3", false},
	}
	for _, tt := range tests {
		if got := IsExactVersion(tt.input); got != tt.want {
			t.Errorf("IsExactVersion(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractMajorFromRange(t *testing.T) {
	if got := ExtractMajorFromRange("3"); got != 3 {
		t.Errorf("ExtractMajorFromRange(3) = %d", got)
	}
	if got := ExtractMajorFromRange("^3"); got != -1 {
		t.Errorf("ExtractMajorFromRange(^3) = %d, want -1", got)
	}
}
