package mapper

import (
	"reflect"
)

// TypePairKey identifies a (source, destination) type pair. It is comparable
// and used directly as a cache key; (A, B) and (B, A) are distinct keys.
type TypePairKey struct {
	source      reflect.Type
	destination reflect.Type
}

// NewTypePairKey builds a key. Both types are required.
func NewTypePairKey(sourceType, destinationType reflect.Type) (TypePairKey, error) {
	if sourceType == nil {
		return TypePairKey{}, invalidKey("sourceType")
	}
	if destinationType == nil {
		return TypePairKey{}, invalidKey("destinationType")
	}
	return TypePairKey{source: sourceType, destination: destinationType}, nil
}

// Source returns the source type.
func (k TypePairKey) Source() reflect.Type { return k.source }

// Destination returns the destination type.
func (k TypePairKey) Destination() reflect.Type { return k.destination }

// Capability returns the capability TypeMapper[Source, Destination].
func (k TypePairKey) Capability() Capability {
	return Capability{Source: k.source, Destination: k.destination}
}

func (k TypePairKey) String() string {
	return typeName(k.source) + " -> " + typeName(k.destination)
}

func invalidKey(param string) *MapperError {
	return &MapperError{
		Kind:    KindInvalidKey,
		Message: "type pair key requires a non-nil " + param,
		Param:   param,
	}
}
