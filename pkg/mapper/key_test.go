package mapper

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stringType = reflect.TypeFor[string]()
	intType    = reflect.TypeFor[int]()
)

func TestNewTypePairKey_SetsTypes(t *testing.T) {
	key, err := NewTypePairKey(stringType, intType)
	require.NoError(t, err)

	assert.Equal(t, stringType, key.Source())
	assert.Equal(t, intType, key.Destination())
	assert.Equal(t, "string -> int", key.String())
}

func TestNewTypePairKey_NilTypes(t *testing.T) {
	tests := []struct {
		name        string
		source      reflect.Type
		destination reflect.Type
		wantParam   string
	}{
		{name: "nil source", source: nil, destination: intType, wantParam: "sourceType"},
		{name: "nil destination", source: stringType, destination: nil, wantParam: "destinationType"},
		{name: "both nil reports source first", source: nil, destination: nil, wantParam: "sourceType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTypePairKey(tt.source, tt.destination)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidKey)

			var mErr *MapperError
			require.True(t, errors.As(err, &mErr))
			assert.Equal(t, tt.wantParam, mErr.Param)
		})
	}
}

func TestTypePairKey_Equality(t *testing.T) {
	k1, _ := NewTypePairKey(stringType, intType)
	k2, _ := NewTypePairKey(stringType, intType)
	reversed, _ := NewTypePairKey(intType, stringType)

	assert.True(t, k1 == k2)
	assert.False(t, k1 == reversed)

	m := map[TypePairKey]int{k1: 1}
	m[k2]++
	m[reversed] = 10
	assert.Len(t, m, 2)
	assert.Equal(t, 2, m[k1])
}

func TestTypePairKey_Capability(t *testing.T) {
	key, _ := NewTypePairKey(stringType, intType)
	c := key.Capability()

	assert.Equal(t, CapabilityFor[string, int](), c)
	assert.Equal(t, key, c.Key())
	assert.Equal(t, "TypeMapper[string, int]", c.String())
}
