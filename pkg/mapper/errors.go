package mapper

import (
	"errors"
	"reflect"
)

// Kind classifies a MapperError.
type Kind string

const (
	// KindInvalidKey - a type pair key was built with a missing type.
	KindInvalidKey Kind = "INVALID_KEY"
	// KindContract - no Map operation of the required shape can be bound.
	KindContract Kind = "MAPPER_CONTRACT"
	// KindNotRegistered - the registry has no instance for the capability.
	KindNotRegistered Kind = "MAPPER_NOT_REGISTERED"
	// KindNullSource - nil source for a destination that does not accept nil.
	KindNullSource Kind = "NULL_SOURCE"
	// KindMappingFailed - any failure downstream of the null check, with its cause.
	KindMappingFailed Kind = "MAPPING_FAILED"
)

// Sentinels for errors.Is; they match any MapperError of the same kind.
var (
	ErrInvalidKey    = &MapperError{Kind: KindInvalidKey}
	ErrContract      = &MapperError{Kind: KindContract}
	ErrNotRegistered = &MapperError{Kind: KindNotRegistered}
	ErrNullSource    = &MapperError{Kind: KindNullSource}
	ErrMappingFailed = &MapperError{Kind: KindMappingFailed}
)

// MapperError is the structured error returned by the engine.
type MapperError struct {
	Kind            Kind
	Message         string
	Param           string
	SourceType      reflect.Type
	DestinationType reflect.Type
	Capability      string
	Cause           error
}

func (e *MapperError) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the recorded cause.
func (e *MapperError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *MapperError) Is(target error) bool {
	t, ok := target.(*MapperError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost MapperError in err's chain, or "".
func KindOf(err error) Kind {
	var mErr *MapperError
	if errors.As(err, &mErr) {
		return mErr.Kind
	}
	return ""
}

// HasKind reports whether any MapperError in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	return errors.Is(err, &MapperError{Kind: kind})
}
