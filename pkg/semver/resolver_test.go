package semver

import (
	"errors"
	"reflect"
	"testing"
)

var supported = []string{"1.0.0", "1.1.0", "1.2.0-beta.1", "2.0.0"}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name         string
		rng          string
		defaultMajor int
		want         string
		wantErr      bool
	}{
		{name: "empty picks highest", rng: "", defaultMajor: -1, want: "2.0.0"},
		{name: "empty uses default major", rng: "", defaultMajor: 1, want: "1.1.0"},
		{name: "major only", rng: "1", defaultMajor: -1, want: "1.1.0"},
		{name: "caret", rng: "^1.0", defaultMajor: -1, want: "1.1.0"},
		{name: "exact", rng: "1.0.0", defaultMajor: -1, want: "1.0.0"},
		{name: "prerelease requested", rng: "1.2.0-beta.1", defaultMajor: -1, want: "1.2.0-beta.1"},
		{name: "unsatisfied major", rng: "3", defaultMajor: -1, wantErr: true},
		{name: "unsatisfied range", rng: ">=3.0.0", defaultMajor: -1, wantErr: true},
		{name: "invalid range", rng: "what", defaultMajor: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(NegotiateParams{Supported: supported, Range: tt.rng, DefaultMajor: tt.defaultMajor})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:resolver_test - expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:resolver_test - unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("semver:resolver_test - Negotiate(%q) = %q, want %q", tt.rng, got, tt.want)
			}
		})
	}
}

func TestNegotiate_NoMatchIsSentinel(t *testing.T) {
	_, err := Negotiate(NegotiateParams{Supported: supported, Range: "9", DefaultMajor: -1})
	if !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("semver:resolver_test - err = %v, want ErrNoMatchingVersion", err)
	}
}

func TestNegotiate_NoSupportedVersions(t *testing.T) {
	_, err := Negotiate(NegotiateParams{Supported: []string{"bogus"}, DefaultMajor: -1})
	if !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("semver:resolver_test - err = %v, want ErrNoMatchingVersion", err)
	}
}

func TestNegotiate_PrereleaseOnlyMajor(t *testing.T) {
	got, err := Negotiate(NegotiateParams{Supported: []string{"3.0.0-rc.1", "2.0.0"}, Range: "3", DefaultMajor: -1})
	if err != nil {
		t.Fatalf("semver:resolver_test - unexpected error: %v", err)
	}
	if got != "3.0.0-rc.1" {
		t.Errorf("semver:resolver_test - got %q, want 3.0.0-rc.1", got)
	}
}

func TestGetUniqueMajors(t *testing.T) {
	got := GetUniqueMajors(supported)
	if !reflect.DeepEqual(got, []int{2, 1}) {
		t.Errorf("semver:resolver_test - GetUniqueMajors = %v, want [2 1]", got)
	}
}
