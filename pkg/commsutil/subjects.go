package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectMapper        = "cap.mapper.v1"
	SubjectResolvedEvent = "mapper.resolved"
)

// Placeholders expanded by ExpandResolvedSubject.
const (
	PlaceholderSource      = "{source}"
	PlaceholderDestination = "{destination}"
)

// ResolvedSubjectPattern returns the granular pattern below a global subject:
// "<global>.{source}.{destination}".
func ResolvedSubjectPattern(global string) string {
	return fmt.Sprintf("%s.%s.%s", global, PlaceholderSource, PlaceholderDestination)
}

// ExpandResolvedSubject fills the placeholders of pattern with the pair's type
// names. Type names are flattened so they form single subject tokens:
// "catalog.Account" becomes "catalog_Account".
func ExpandResolvedSubject(pattern, source, destination string) string {
	return strings.NewReplacer(
		PlaceholderSource, subjectToken(source),
		PlaceholderDestination, subjectToken(destination),
	).Replace(pattern)
}

// BuildResolvedSubject builds the default granular subject a resolution event
// for the (source, destination) pair is published on.
func BuildResolvedSubject(source, destination string) string {
	return ExpandResolvedSubject(ResolvedSubjectPattern(SubjectResolvedEvent), source, destination)
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "ptr_", " ", "", "[", "_", "]", "_", ">", "_")

func subjectToken(name string) string {
	return tokenReplacer.Replace(name)
}
