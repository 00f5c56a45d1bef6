// Package events defines the resolution event emitted when the mapper builds a
// strategy for a type pair, and the publishers that deliver it.
package events

// ResolvedEvent is emitted the first time a (source, destination) pair is
// resolved into a strategy by a running service.
type ResolvedEvent struct {
	Service     string `json:"service"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Capability  string `json:"capability"`
	Operation   string `json:"operation"`
	Timestamp   string `json:"timestamp"`
}
