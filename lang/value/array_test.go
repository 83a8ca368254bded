package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayGetSet(t *testing.T) {
	a := NewArray([]Value{Int(1), Int(2), Int(3)})
	require.Equal(t, 3, a.Len())

	v, ok := a.Get(1)
	require.True(t, ok)
	require.Equal(t, Int(2), v)

	require.True(t, a.Set(1, Int(9)))
	v, _ = a.Get(1)
	require.Equal(t, Int(9), v)
}

func TestArrayGetOutOfBounds(t *testing.T) {
	a := NewArray([]Value{Int(1)})
	_, ok := a.Get(5)
	require.False(t, ok)
	_, ok = a.Get(-1)
	require.False(t, ok)
}

func TestArraySetOutOfBounds(t *testing.T) {
	a := NewArray([]Value{Int(1)})
	require.False(t, a.Set(5, Int(1)))
}

func TestArrayPushPop(t *testing.T) {
	a := NewArray(nil)
	a.Push(Int(1))
	a.Push(Int(2))
	require.Equal(t, 2, a.Len())

	v, ok := a.Pop()
	require.True(t, ok)
	require.Equal(t, Int(2), v)
	require.Equal(t, 1, a.Len())
}

func TestArrayPopEmpty(t *testing.T) {
	a := NewArray(nil)
	_, ok := a.Pop()
	require.False(t, ok)
}

func TestArrayIdentityEquality(t *testing.T) {
	a := NewArray([]Value{Int(1)})
	b := NewArray([]Value{Int(1)})
	require.NotSame(t, a, b)
	require.Same(t, a, a)
}

func TestArrayKind(t *testing.T) {
	a := NewArray(nil)
	require.Equal(t, KindArray, a.Kind())
}
