package registry

import (
	"sync"

	"github.com/morezero/type-mapper/pkg/mapper"
)

// Scope is a mapper.Registry view of a Registry that keeps one instance per
// Scoped capability, e.g. for the duration of a request.
type Scope struct {
	root      *Registry
	mu        sync.Mutex
	instances map[mapper.Capability]any
}

// Lookup implements mapper.Registry.
func (s *Scope) Lookup(c mapper.Capability) (any, bool) {
	p, ok := s.root.provider(c)
	if !ok {
		return nil, false
	}
	if p.lifetime != Scoped {
		inst := p.get()
		return inst, inst != nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[c]; ok {
		return inst, true
	}
	inst := p.get()
	if inst == nil {
		return nil, false
	}
	s.instances[c] = inst
	return inst, true
}

// Mapper returns a mapper that resolves instances through s and shares the
// root registry's cache.
func (s *Scope) Mapper() *mapper.Mapper {
	return mapper.New(mapper.NewMapperParams{Registry: s, Cache: s.root.cache})
}
