package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveKinds(t *testing.T) {
	require.Equal(t, KindNull, TheNull.Kind())
	require.Equal(t, KindUnit, TheUnit.Kind())
	require.Equal(t, KindBool, Bool(true).Kind())
	require.Equal(t, KindInt, Int(1).Kind())
	require.Equal(t, KindFloat, Float(1).Kind())
	require.Equal(t, KindString, String("s").Kind())
}

func TestPrimitiveStrings(t *testing.T) {
	require.Equal(t, "null", TheNull.String())
	require.Equal(t, "()", TheUnit.String())
	require.Equal(t, "true", Bool(true).String())
	require.Equal(t, "false", Bool(false).String())
	require.Equal(t, "3", Int(3).String())
	require.Equal(t, "hello", String("hello").String())
}

func TestIntEquality(t *testing.T) {
	require.Equal(t, Int(5), Int(5))
	require.NotEqual(t, Int(5), Int(6))
}

func TestFloatNaNNotEqualToItself(t *testing.T) {
	nan := Float(math.NaN())
	require.NotEqual(t, nan, nan)
	require.False(t, nan == nan)
}

func TestFloatEquality(t *testing.T) {
	require.True(t, Float(1.5) == Float(1.5))
	require.False(t, Float(1.5) == Float(2.5))
}

func TestTruth(t *testing.T) {
	b, ok := Truth(Bool(true))
	require.True(t, ok)
	require.True(t, b)

	_, ok = Truth(Int(1))
	require.False(t, ok)
}
