package mapper

import (
	"fmt"
	"reflect"
)

// Strategy binds a capability to its Map operation. It is immutable once
// built and shared by every caller resolving the same pair.
type Strategy struct {
	capability Capability
	operation  Operation
}

// buildStrategy derives the strategy for key. It has no side effects.
func buildStrategy(key TypePairKey) (*Strategy, error) {
	capability := key.Capability()
	if key.source.Kind() == reflect.Interface {
		return nil, &MapperError{
			Kind: KindContract,
			Message: fmt.Sprintf("could not find a matching '%s(%s)' method on '%s': interface types cannot be source types",
				operationName, typeName(key.source), capability),
			SourceType:      key.source,
			DestinationType: key.destination,
			Capability:      capability.String(),
		}
	}

	signature := reflect.FuncOf(
		[]reflect.Type{key.source},
		[]reflect.Type{key.destination, errorType},
		false,
	)
	return &Strategy{
		capability: capability,
		operation:  Operation{Name: operationName, Signature: signature},
	}, nil
}

// Capability returns the capability the strategy looks up.
func (s *Strategy) Capability() Capability { return s.capability }

// Operation returns the bound operation.
func (s *Strategy) Operation() Operation { return s.operation }

// Invoke fetches the instance for the capability from registry and calls its
// Map operation with source. Errors from the operation are returned as-is.
func (s *Strategy) Invoke(source any, registry Registry) (any, error) {
	instance, ok := registry.Lookup(s.capability)
	if !ok || instance == nil {
		return nil, s.notRegistered(source)
	}

	if inv, ok := instance.(Invoker); ok && inv.Capability() == s.capability {
		return inv.Invoke(source)
	}

	method := reflect.ValueOf(instance).MethodByName(s.operation.Name)
	if !method.IsValid() || method.Type() != s.operation.Signature {
		return nil, &MapperError{
			Kind: KindContract,
			Message: fmt.Sprintf("instance of type '%s' registered for '%s' does not expose '%s'",
				typeName(reflect.TypeOf(instance)), s.capability, s.operation),
			SourceType:      s.capability.Source,
			DestinationType: s.capability.Destination,
			Capability:      s.capability.String(),
		}
	}

	if reflect.TypeOf(source) != s.capability.Source {
		return nil, &MapperError{
			Kind: KindContract,
			Message: fmt.Sprintf("'%s' cannot accept a source of type '%s'",
				s.operation, typeName(reflect.TypeOf(source))),
			SourceType:      reflect.TypeOf(source),
			DestinationType: s.capability.Destination,
			Capability:      s.capability.String(),
		}
	}

	out := method.Call([]reflect.Value{reflect.ValueOf(source)})
	if errVal := out[1]; !errVal.IsNil() {
		return nil, errVal.Interface().(error)
	}
	return out[0].Interface(), nil
}

func (s *Strategy) notRegistered(source any) *MapperError {
	sourceType := reflect.TypeOf(source)
	return &MapperError{
		Kind: KindNotRegistered,
		Message: fmt.Sprintf("could not resolve a mapper from '%s' to '%s'; ensure that '%s' is registered",
			typeName(sourceType), typeName(s.capability.Destination), s.capability),
		SourceType:      sourceType,
		DestinationType: s.capability.Destination,
		Capability:      s.capability.String(),
	}
}
