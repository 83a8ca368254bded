package upvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStack struct {
	slots []any
}

func (s *fakeStack) At(i int) any      { return s.slots[i] }
func (s *fakeStack) SetAt(i int, v any) { s.slots[i] = v }

func TestNewOpenStartsOpen(t *testing.T) {
	u := NewOpen(2)
	require.True(t, u.IsOpen())
	require.Equal(t, 2, u.Slot())
}

func TestOpenReadsThroughToStack(t *testing.T) {
	s := &fakeStack{slots: []any{10, 20, 30}}
	u := NewOpen(1)
	require.Equal(t, 20, u.Get(s))

	u.Set(s, 99)
	require.Equal(t, 99, s.slots[1])
	require.Equal(t, 99, u.Get(s))
}

func TestCloseCapturesCurrentValueAndStopsAliasing(t *testing.T) {
	s := &fakeStack{slots: []any{10, 20, 30}}
	u := NewOpen(1)
	u.Close(s)
	require.False(t, u.IsOpen())
	require.Equal(t, 20, u.Get(s))

	s.slots[1] = 999
	require.Equal(t, 20, u.Get(s), "closed upvalue must not read through to the stack anymore")
}

func TestCloseIsIdempotent(t *testing.T) {
	s := &fakeStack{slots: []any{10, 20, 30}}
	u := NewOpen(1)
	u.Close(s)

	s.slots[1] = 999
	u.Close(s)

	require.Equal(t, 20, u.Get(s))
}

func TestClosedSetMutatesOwnedValue(t *testing.T) {
	s := &fakeStack{slots: []any{10}}
	u := NewOpen(0)
	u.Close(s)
	u.Set(s, 42)
	require.Equal(t, 42, u.Get(s))
	require.Equal(t, 10, s.slots[0], "set after close must not write through to the stack")
}
