package db

import "time"

// Resolution is a row in the mapper_resolutions table: a type pair some
// service resolved into a strategy.
type Resolution struct {
	ID              string    `json:"id"`
	Service         string    `json:"service"`
	SourceType      string    `json:"source_type"`
	DestinationType string    `json:"destination_type"`
	Capability      string    `json:"capability"`
	Operation       string    `json:"operation"`
	ResolveCount    int       `json:"resolve_count"`
	FirstResolved   time.Time `json:"first_resolved"`
	LastResolved    time.Time `json:"last_resolved"`
}

// CapabilityRecord is a row in the mapper_capabilities table.
type CapabilityRecord struct {
	Service         string    `json:"service"`
	Capability      string    `json:"capability"`
	SourceType      string    `json:"source_type"`
	DestinationType string    `json:"destination_type"`
	Lifetime        string    `json:"lifetime"`
	Revision        int       `json:"revision"`
	Created         time.Time `json:"created"`
	Modified        time.Time `json:"modified"`
}
