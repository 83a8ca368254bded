package stack

import (
	"testing"

	"github.com/dicelang/dice/lang/value"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	s := New(8)
	s.Push(value.Int(1))
	s.Push(value.Int(2))
	require.Equal(t, value.Int(2), s.Pop())
	require.Equal(t, value.Int(1), s.Pop())
	require.Equal(t, 0, s.Len())
}

func TestPeekDoesNotPop(t *testing.T) {
	s := New(8)
	s.Push(value.Int(1))
	s.Push(value.Int(2))
	require.Equal(t, value.Int(2), s.Peek(0))
	require.Equal(t, value.Int(1), s.Peek(1))
	require.Equal(t, 2, s.Len())
}

func TestSetPeekOverwrites(t *testing.T) {
	s := New(8)
	s.Push(value.Int(1))
	s.SetPeek(0, value.Int(9))
	require.Equal(t, value.Int(9), s.Peek(0))
}

func TestSwapExchangesTopTwo(t *testing.T) {
	s := New(8)
	s.Push(value.Int(1))
	s.Push(value.Int(2))
	s.Swap()
	require.Equal(t, value.Int(1), s.Peek(0))
	require.Equal(t, value.Int(2), s.Peek(1))
}

func TestPopCountReturnsBottomToTopOrder(t *testing.T) {
	s := New(8)
	s.Push(value.Int(1))
	s.Push(value.Int(2))
	s.Push(value.Int(3))
	got := s.PopCount(2)
	require.Equal(t, []value.Value{value.Int(2), value.Int(3)}, got)
	require.Equal(t, 1, s.Len())
}

func TestPushMany(t *testing.T) {
	s := New(8)
	s.PushMany([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	require.Equal(t, 3, s.Len())
	require.Equal(t, value.Int(3), s.Peek(0))
}

func TestReserveSlotsFillsNullAndAdvances(t *testing.T) {
	s := New(8)
	f := s.ReserveSlots(3)
	require.Equal(t, Frame{Start: 0, End: 3}, f)
	require.Equal(t, 3, s.Len())
	require.Equal(t, value.TheNull, s.AbsGet(0))
	require.Equal(t, value.TheNull, s.AbsGet(2))
}

func TestReleaseFrameRetractsAndClears(t *testing.T) {
	s := New(8)
	f := s.ReserveSlots(3)
	s.AbsSet(1, value.Int(7))
	s.ReleaseFrame(f)
	require.Equal(t, 0, s.Len())
}

func TestReleaseFrameMismatchPanics(t *testing.T) {
	s := New(8)
	f := s.ReserveSlots(3)
	s.ReserveSlots(2)
	require.Panics(t, func() { s.ReleaseFrame(f) })
}

func TestFramePrepend(t *testing.T) {
	f := Frame{Start: 5, End: 8}
	p := f.Prepend(2)
	require.Equal(t, Frame{Start: 3, End: 8}, p)
	require.Equal(t, 5, p.Len())
}

func TestAtAndSetAtImplementUpvalueStackReader(t *testing.T) {
	s := New(8)
	s.ReserveSlots(2)
	s.SetAt(0, value.Int(5))
	require.Equal(t, value.Int(5), s.At(0))
}

func TestDefaultCapacityUsedWhenNonPositive(t *testing.T) {
	s := New(0)
	require.Equal(t, DefaultCapacity, cap(s.slots))
	s2 := New(-1)
	require.Equal(t, DefaultCapacity, cap(s2.slots))
}
