package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/morezero/type-mapper/pkg/mapper"
)

const logPrefix = "registry:registry"

var errorType = reflect.TypeFor[error]()

type provider struct {
	lifetime Lifetime
	instance any
	factory  func() any
}

func (p provider) get() any {
	if p.lifetime == Singleton {
		return p.instance
	}
	return p.factory()
}

// Registry holds strategy providers keyed by capability. It is safe for
// concurrent use; registering a capability again replaces its provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[mapper.Capability]provider
	types     map[string]reflect.Type
	ambiguous map[string]bool
	cache     *mapper.Cache

	facadeOnce sync.Once
	facade     *mapper.Mapper
}

// New creates an empty Registry with its own resolution cache.
func New(opts ...mapper.CacheOption) *Registry {
	return &Registry{
		providers: make(map[mapper.Capability]provider),
		types:     make(map[string]reflect.Type),
		ambiguous: make(map[string]bool),
		cache:     mapper.NewCache(opts...),
	}
}

// Register adds m as the singleton strategy for (S, D). A nil m is rejected
// with INVALID_MAPPER.
func Register[S, D any](r *Registry, m mapper.TypeMapper[S, D]) (mapper.Capability, error) {
	c := mapper.CapabilityFor[S, D]()
	if isNil(m) {
		return c, NewRegistryError("INVALID_MAPPER", fmt.Sprintf("nil strategy for %s", c))
	}
	r.add(c, provider{lifetime: Singleton, instance: mapper.Adapt[S, D](m)})
	return c, nil
}

// RegisterFunc adds fn as the singleton strategy for (S, D).
func RegisterFunc[S, D any](r *Registry, fn func(S) (D, error)) (mapper.Capability, error) {
	if fn == nil {
		return Register[S, D](r, nil)
	}
	return Register[S, D](r, mapper.Func[S, D](fn))
}

// RegisterFactory adds a provider that builds strategies for (S, D) with the
// given lifetime. A Singleton factory is called once, immediately. A factory
// returning nil leaves the capability without an instance for that lookup.
func RegisterFactory[S, D any](r *Registry, lifetime Lifetime, factory func() mapper.TypeMapper[S, D]) mapper.Capability {
	c := mapper.CapabilityFor[S, D]()
	build := func() any {
		m := factory()
		if isNil(m) {
			return nil
		}
		return mapper.Adapt[S, D](m)
	}
	if lifetime == Singleton {
		r.add(c, provider{lifetime: Singleton, instance: build()})
		return c
	}
	r.add(c, provider{lifetime: lifetime, factory: build})
	return c
}

// RegisterInstance adds instance as a singleton strategy, deriving its
// capability from the shape of its Map method: Map(S) (D, error).
func (r *Registry) RegisterInstance(instance any) (mapper.Capability, error) {
	if isNil(instance) {
		return mapper.Capability{}, NewRegistryError("INVALID_MAPPER", "instance is nil")
	}
	if inv, ok := instance.(mapper.Invoker); ok {
		c := inv.Capability()
		r.add(c, provider{lifetime: Singleton, instance: inv})
		return c, nil
	}

	method := reflect.ValueOf(instance).MethodByName("Map")
	if !method.IsValid() {
		return mapper.Capability{}, NewRegistryError("INVALID_MAPPER",
			fmt.Sprintf("type '%T' does not implement TypeMapper: no Map method", instance))
	}
	mt := method.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 2 || mt.Out(1) != errorType || mt.IsVariadic() {
		return mapper.Capability{}, NewRegistryError("INVALID_MAPPER",
			fmt.Sprintf("type '%T' does not implement TypeMapper: Map has signature %s, want Map(S) (D, error)", instance, mt))
	}

	c := mapper.Capability{Source: mt.In(0), Destination: mt.Out(0)}
	r.add(c, provider{lifetime: Singleton, instance: instance})
	return c, nil
}

func (r *Registry) add(c mapper.Capability, p provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[c]; exists {
		slog.Warn(fmt.Sprintf("%s - replacing provider for %s", logPrefix, c))
	}
	r.providers[c] = p
	r.indexType(c.Source)
	r.indexType(c.Destination)
	slog.Debug(fmt.Sprintf("%s - registered %s (%s)", logPrefix, c, p.lifetime))
}

// indexType makes t findable by its short name (t.String()) and, for named
// types, by its package-qualified name. A short name shared by two distinct
// types is ambiguous and only the qualified names resolve. Callers hold r.mu.
func (r *Registry) indexType(t reflect.Type) {
	short := t.String()
	if qualified := qualifiedName(t); qualified != short {
		r.types[qualified] = t
	}
	if r.ambiguous[short] {
		return
	}
	if existing, ok := r.types[short]; ok && existing != t {
		slog.Warn(fmt.Sprintf("%s - type name %s is ambiguous (%s, %s); use the package-qualified name",
			logPrefix, short, qualifiedName(existing), qualifiedName(t)))
		delete(r.types, short)
		r.ambiguous[short] = true
		return
	}
	r.types[short] = t
}

// qualifiedName returns "<pkgpath>.<Name>" for named types and t.String()
// otherwise.
func qualifiedName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// isNil reports whether v is nil or a nil pointer, func, map, slice, chan or
// interface wrapped in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Lookup returns the instance for c. It implements mapper.Registry. A
// provider that yields no instance reports ok == false.
func (r *Registry) Lookup(c mapper.Capability) (any, bool) {
	p, ok := r.provider(c)
	if !ok {
		return nil, false
	}
	inst := p.get()
	if inst == nil {
		return nil, false
	}
	return inst, true
}

func (r *Registry) provider(c mapper.Capability) (provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[c]
	return p, ok
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Capabilities lists registered capabilities ordered by name.
func (r *Registry) Capabilities() []CapabilityInfo {
	r.mu.RLock()
	out := make([]CapabilityInfo, 0, len(r.providers))
	for c, p := range r.providers {
		out = append(out, CapabilityInfo{
			Capability:  c.String(),
			Source:      c.Source.String(),
			Destination: c.Destination.String(),
			Lifetime:    p.lifetime.String(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Capability < out[j].Capability })
	return out
}

// TypeByName returns a registered source or destination type by its
// reflect.Type string form (e.g. "catalog.Account") or, for named types, its
// package-qualified name (e.g. "github.com/acme/catalog.Account").
func (r *Registry) TypeByName(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Cache returns the resolution cache shared by mappers built from r.
func (r *Registry) Cache() *mapper.Cache {
	return r.cache
}

// Mapper returns a mapper backed by r and its shared cache.
func (r *Registry) Mapper() *mapper.Mapper {
	return mapper.New(mapper.NewMapperParams{Registry: r, Cache: r.cache})
}

// NewScope starts a scope in which Scoped providers hand out one instance.
func (r *Registry) NewScope() *Scope {
	return &Scope{root: r, instances: make(map[mapper.Capability]any)}
}

// AddMapper returns the registry's shared mapper, creating it on first use.
// Every caller gets the same instance.
func AddMapper(r *Registry) *mapper.Mapper {
	r.facadeOnce.Do(func() {
		r.facade = r.Mapper()
	})
	return r.facade
}
