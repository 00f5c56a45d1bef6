// Package mapper implements the type-pair resolution engine: it locates the
// strategy registered for a (source, destination) type pair, memoizes that
// resolution, and invokes the strategy through an injected Registry.
package mapper

import (
	"fmt"
	"reflect"
)

// operationName is the method every strategy exposes.
const operationName = "Map"

var errorType = reflect.TypeFor[error]()

// TypeMapper is the capability contract a strategy for one (S, D) pair satisfies.
type TypeMapper[S, D any] interface {
	Map(source S) (D, error)
}

// Func adapts a plain function to TypeMapper.
type Func[S, D any] func(source S) (D, error)

// Map calls f.
func (f Func[S, D]) Map(source S) (D, error) {
	return f(source)
}

// Registry is the external collaborator that returns the instance registered
// for a capability, if any. It is consulted on every invocation.
type Registry interface {
	Lookup(capability Capability) (instance any, ok bool)
}

// RegistryFunc adapts a function to Registry.
type RegistryFunc func(capability Capability) (any, bool)

// Lookup calls f.
func (f RegistryFunc) Lookup(capability Capability) (any, bool) {
	return f(capability)
}

// Capability identifies the parameterized contract TypeMapper[Source, Destination].
type Capability struct {
	Source      reflect.Type
	Destination reflect.Type
}

// CapabilityFor returns the capability for the static pair (S, D).
func CapabilityFor[S, D any]() Capability {
	return Capability{Source: reflect.TypeFor[S](), Destination: reflect.TypeFor[D]()}
}

// Key returns the type-pair key the capability is cached under.
func (c Capability) Key() TypePairKey {
	return TypePairKey{source: c.Source, destination: c.Destination}
}

// String renders the parameterized interface name.
func (c Capability) String() string {
	return fmt.Sprintf("TypeMapper[%s, %s]", typeName(c.Source), typeName(c.Destination))
}

// Operation describes the single operation bound on a capability.
type Operation struct {
	Name string
	// Signature is func(S) (D, error).
	Signature reflect.Type
}

// String renders the operation as Map(S) (D, error).
func (o Operation) String() string {
	if o.Signature == nil {
		return o.Name + "()"
	}
	return fmt.Sprintf("%s(%s) (%s, error)", o.Name, typeName(o.Signature.In(0)), typeName(o.Signature.Out(0)))
}

// Invoker is implemented by instances that can run a mapping without
// reflection. Instances produced by Adapt implement it.
type Invoker interface {
	Capability() Capability
	Invoke(source any) (any, error)
}

// Adapt wraps a TypeMapper so the engine can call it without reflection.
func Adapt[S, D any](m TypeMapper[S, D]) Invoker {
	return &typedInvoker[S, D]{mapper: m}
}

type typedInvoker[S, D any] struct {
	mapper TypeMapper[S, D]
}

func (t *typedInvoker[S, D]) Capability() Capability {
	return CapabilityFor[S, D]()
}

func (t *typedInvoker[S, D]) Invoke(source any) (any, error) {
	s, ok := source.(S)
	if !ok {
		c := t.Capability()
		return nil, &MapperError{
			Kind:            KindContract,
			Message:         fmt.Sprintf("%s cannot accept a source of type '%s'", c, typeName(reflect.TypeOf(source))),
			SourceType:      reflect.TypeOf(source),
			DestinationType: c.Destination,
			Capability:      c.String(),
		}
	}
	return t.mapper.Map(s)
}

// typeName renders a type the way it appears in source, or "<nil>".
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
