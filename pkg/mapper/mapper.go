package mapper

import (
	"fmt"
	"reflect"
)

// NewMapperParams holds parameters for New.
type NewMapperParams struct {
	// Registry supplies strategy instances. Required.
	Registry Registry
	// Cache is shared resolution state. A fresh cache is created when nil.
	Cache *Cache
}

// Mapper is the entry point for mapping a runtime-typed value to a
// statically requested destination type. It is safe for concurrent use.
type Mapper struct {
	registry Registry
	cache    *Cache
}

// New creates a Mapper. It panics when params.Registry is nil.
func New(params NewMapperParams) *Mapper {
	if params.Registry == nil {
		panic("mapper: New requires a non-nil Registry")
	}
	cache := params.Cache
	if cache == nil {
		cache = NewCache()
	}
	return &Mapper{registry: params.Registry, cache: cache}
}

// Cache returns the resolution cache backing m.
func (m *Mapper) Cache() *Cache {
	return m.cache
}

// Map maps source to D using the strategy registered for
// (runtime type of source, D).
//
// A nil source (nil interface or nil pointer) yields the zero D when D is
// nil-able, and a NULL_SOURCE error otherwise; neither the cache nor the
// registry is consulted in that case. Every other failure is reported as a
// MAPPING_FAILED error whose cause carries the original error.
func Map[D any](m *Mapper, source any) (D, error) {
	var zero D
	result, err := m.MapTo(source, reflect.TypeFor[D]())
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	d, ok := result.(D)
	if !ok {
		return zero, mappingFailed(reflect.TypeOf(source), reflect.TypeFor[D](),
			fmt.Errorf("strategy returned '%s'", typeName(reflect.TypeOf(result))))
	}
	return d, nil
}

// MapTo is the dynamic form of Map for callers that only know the
// destination type at run time.
func (m *Mapper) MapTo(source any, destinationType reflect.Type) (any, error) {
	if destinationType == nil {
		return nil, invalidKey("destinationType")
	}

	if isAbsent(source) {
		if acceptsAbsence(destinationType) {
			return reflect.Zero(destinationType).Interface(), nil
		}
		return nil, &MapperError{
			Kind: KindNullSource,
			Message: fmt.Sprintf("cannot map nil to non-nil-able destination type '%s'; "+
				"use a pointer or interface destination if nil is expected", destinationType),
			DestinationType: destinationType,
		}
	}

	sourceType := reflect.TypeOf(source)
	strategy, err := m.cache.Resolve(sourceType, destinationType)
	if err != nil {
		return nil, mappingFailed(sourceType, destinationType, err)
	}

	result, err := strategy.Invoke(source, m.registry)
	if err != nil {
		return nil, mappingFailed(sourceType, destinationType, err)
	}

	if result != nil && !reflect.TypeOf(result).AssignableTo(destinationType) {
		return nil, mappingFailed(sourceType, destinationType,
			fmt.Errorf("strategy returned '%s'", typeName(reflect.TypeOf(result))))
	}
	if result == nil && !acceptsAbsence(destinationType) {
		return nil, mappingFailed(sourceType, destinationType, fmt.Errorf("strategy returned nil"))
	}
	return result, nil
}

func mappingFailed(sourceType, destinationType reflect.Type, cause error) *MapperError {
	return &MapperError{
		Kind: KindMappingFailed,
		Message: fmt.Sprintf("an error occurred while mapping from '%s' to '%s'",
			typeName(sourceType), typeName(destinationType)),
		SourceType:      sourceType,
		DestinationType: destinationType,
		Cause:           cause,
	}
}

func isAbsent(source any) bool {
	if source == nil {
		return true
	}
	v := reflect.ValueOf(source)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// acceptsAbsence reports whether t has a nil value.
func acceptsAbsence(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
