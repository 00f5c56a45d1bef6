// Package registry implements an in-memory mapper.Registry: strategies are
// registered explicitly by type pair and looked up by capability.
package registry

// Lifetime controls how many instances a provider hands out.
type Lifetime int

const (
	// Singleton - one instance for the life of the registry.
	Singleton Lifetime = iota
	// Transient - a new instance per lookup.
	Transient
	// Scoped - one instance per Scope; a new instance per lookup outside a Scope.
	Scoped
)

// String returns a human-readable lifetime name.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// CapabilityInfo describes a registered capability.
type CapabilityInfo struct {
	Capability  string `json:"capability"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Lifetime    string `json:"lifetime"`
}

// RegistryError is a structured error from the registry.
type RegistryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}
