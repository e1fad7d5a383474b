package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeTypeIsAggregate(t *testing.T) {
	aggregates := []NodeType{TypeArray, TypePush, TypeSet, TypeMap, TypeAttribute}
	for _, typ := range aggregates {
		require.True(t, typ.IsAggregate(), typ.String())
	}

	leaves := []NodeType{
		TypeSimpleString, TypeSimpleError, TypeNumber, TypeDouble,
		TypeBoolean, TypeBigNumber, TypeNull, TypeBlobError,
		TypeVerbatimString, TypeBlobString, TypeStreamedStringPart,
	}
	for _, typ := range leaves {
		require.False(t, typ.IsAggregate(), typ.String())
	}
}

func TestNodeTypeString(t *testing.T) {
	require.Equal(t, "array", TypeArray.String())
	require.Equal(t, "blob_string", TypeBlobString.String())
	require.Equal(t, "invalid", TypeInvalid.String())
	require.Equal(t, "invalid", NodeType(999).String())
}
