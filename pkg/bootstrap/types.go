// Package bootstrap loads the mapping service catalog: its identity, the API
// versions it serves, type aliases and the pairs to resolve at startup.
package bootstrap

// WarmupPair names a (source, destination) pair to resolve before serving.
// Type names are reflect.Type strings (e.g. "catalog.Account") or aliases.
type WarmupPair struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
}

// EventSubjects defines resolution event subjects. Pattern may use the
// {source} and {destination} placeholders.
type EventSubjects struct {
	Global  string `json:"global" yaml:"global"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// CatalogConfig is the root bootstrap configuration.
type CatalogConfig struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	APIVersions []string          `json:"apiVersions" yaml:"apiVersions"`
	Aliases     map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Warmup      []WarmupPair      `json:"warmup,omitempty" yaml:"warmup,omitempty"`
	Events      EventSubjects     `json:"eventSubjects" yaml:"eventSubjects"`
}

// ResolvedCatalog provides read-only lookups over a CatalogConfig.
type ResolvedCatalog struct {
	name        string
	version     string
	apiVersions []string
	aliases     map[string]string
	warmup      []WarmupPair
	events      EventSubjects
}

// ResolveAlias resolves an alias to a type name. Unknown names pass through.
func (rc *ResolvedCatalog) ResolveAlias(name string) string {
	if resolved, ok := rc.aliases[name]; ok {
		return resolved
	}
	return name
}

// WarmupPairs returns the warmup pairs with aliases resolved.
func (rc *ResolvedCatalog) WarmupPairs() []WarmupPair {
	out := make([]WarmupPair, len(rc.warmup))
	for i, p := range rc.warmup {
		out[i] = WarmupPair{
			Source:      rc.ResolveAlias(p.Source),
			Destination: rc.ResolveAlias(p.Destination),
		}
	}
	return out
}

// APIVersions returns the API versions the service serves.
func (rc *ResolvedCatalog) APIVersions() []string {
	return rc.apiVersions
}

// GlobalSubject returns the global resolution event subject.
func (rc *ResolvedCatalog) GlobalSubject() string {
	return rc.events.Global
}

// EventPattern returns the granular resolution event subject pattern.
func (rc *ResolvedCatalog) EventPattern() string {
	return rc.events.Pattern
}

// Name returns the catalog name.
func (rc *ResolvedCatalog) Name() string {
	return rc.name
}

// Version returns the catalog version.
func (rc *ResolvedCatalog) Version() string {
	return rc.version
}
