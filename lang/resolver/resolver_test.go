package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddLocalAssignsSequentialSlots(t *testing.T) {
	u := NewUnit(UnitScript)
	u.PushScope(FrameBlock)
	a := u.AddLocal("a", LocalVar, true)
	b := u.AddLocal("b", LocalVar, true)
	require.Equal(t, 0, a)
	require.Equal(t, 1, b)
	require.Equal(t, 2, u.SlotCount())
}

func TestLookupLocalFindsInnermostShadow(t *testing.T) {
	u := NewUnit(UnitScript)
	u.PushScope(FrameBlock)
	u.AddLocal("x", LocalVar, true)
	u.PushScope(FrameBlock)
	u.AddLocal("x", LocalVar, true)

	found := u.LookupLocal("x")
	require.NotNil(t, found)
	require.Equal(t, 1, found.Slot)
}

func TestLookupLocalMissReturnsNil(t *testing.T) {
	u := NewUnit(UnitScript)
	u.PushScope(FrameBlock)
	require.Nil(t, u.LookupLocal("nope"))
}

func TestPopScopeDropsItsLocalsFromLookup(t *testing.T) {
	u := NewUnit(UnitScript)
	u.PushScope(FrameBlock)
	u.AddLocal("outer", LocalVar, true)
	u.PushScope(FrameBlock)
	u.AddLocal("inner", LocalVar, true)
	u.PopScope()

	require.Nil(t, u.LookupLocal("inner"))
	require.NotNil(t, u.LookupLocal("outer"))
}

func TestSlotCountIsHighWaterMarkNotLiveCount(t *testing.T) {
	u := NewUnit(UnitScript)
	u.PushScope(FrameBlock)
	u.AddLocal("a", LocalVar, true)
	u.PushScope(FrameBlock)
	u.AddLocal("b", LocalVar, true)
	u.PopScope()
	u.PushScope(FrameBlock)
	u.AddLocal("c", LocalVar, true)

	// "b" and "c" each reused slot 1; the watermark still reflects 2 slots.
	require.Equal(t, 2, u.SlotCount())
}

func TestInLoopContextAcrossNestedBlocks(t *testing.T) {
	u := NewUnit(UnitScript)
	require.False(t, u.InLoopContext())
	u.PushScope(FrameLoop)
	require.True(t, u.InLoopContext())
	u.PushScope(FrameBlock)
	require.True(t, u.InLoopContext(), "break/continue reach through a nested block into the enclosing loop")
}

func TestLoopEntryAndExitBookkeeping(t *testing.T) {
	u := NewUnit(UnitScript)
	f := u.PushScope(FrameLoop)
	f.SetLoopEntry(42)
	require.Equal(t, 42, u.CurrentLoopEntry())

	u.AddLoopExit(100)
	u.AddLoopExit(200)
	require.Equal(t, []int{100, 200}, f.LoopExitPatches)
}

func TestResolveUpvalueTooFewUnitsIsNotFound(t *testing.T) {
	only := NewUnit(UnitFunction)
	idx, ok, err := ResolveUpvalue([]*Unit{only}, "x")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, idx)
}

func TestResolveUpvalueDirectParentLocal(t *testing.T) {
	parent := NewUnit(UnitScript)
	parent.PushScope(FrameBlock)
	parent.AddLocal("x", LocalVar, true)
	child := NewUnit(UnitFunction)

	idx, ok, err := ResolveUpvalue([]*Unit{parent, child}, "x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(0), idx)
	require.Len(t, child.Upvalues(), 1)
	require.True(t, child.Upvalues()[0].IsParentLocal)

	local := parent.LookupLocal("x")
	require.True(t, local.IsCaptured)
}

func TestResolveUpvalueThreadsThroughIntermediateUnit(t *testing.T) {
	grandparent := NewUnit(UnitScript)
	grandparent.PushScope(FrameBlock)
	grandparent.AddLocal("x", LocalVar, true)
	parent := NewUnit(UnitFunction)
	child := NewUnit(UnitFunction)

	idx, ok, err := ResolveUpvalue([]*Unit{grandparent, parent, child}, "x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, parent.Upvalues(), 1)
	require.True(t, parent.Upvalues()[0].IsParentLocal)
	require.Len(t, child.Upvalues(), 1)
	require.False(t, child.Upvalues()[0].IsParentLocal, "child captures through parent's own upvalue slot, not the grandparent's local slot directly")
	require.Equal(t, idx, child.Upvalues()[0].Index)
}

func TestResolveUpvalueNotFoundAnywhere(t *testing.T) {
	parent := NewUnit(UnitScript)
	parent.PushScope(FrameBlock)
	child := NewUnit(UnitFunction)

	_, ok, err := ResolveUpvalue([]*Unit{parent, child}, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveUpvalueDedupsRepeatedCaptures(t *testing.T) {
	parent := NewUnit(UnitScript)
	parent.PushScope(FrameBlock)
	parent.AddLocal("x", LocalVar, true)
	child := NewUnit(UnitFunction)

	idx1, _, _ := ResolveUpvalue([]*Unit{parent, child}, "x")
	idx2, _, _ := ResolveUpvalue([]*Unit{parent, child}, "x")
	require.Equal(t, idx1, idx2)
	require.Len(t, child.Upvalues(), 1)
}

func TestResolveUpvalueRejectsOver256Entries(t *testing.T) {
	parent := NewUnit(UnitScript)
	parent.PushScope(FrameBlock)
	for i := 0; i < 257; i++ {
		parent.AddLocal(fmt.Sprintf("v%d", i), LocalVar, true)
	}
	child := NewUnit(UnitFunction)

	for i := 0; i < 256; i++ {
		_, ok, err := ResolveUpvalue([]*Unit{parent, child}, fmt.Sprintf("v%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := ResolveUpvalue([]*Unit{parent, child}, "v256")
	require.False(t, ok)
	require.ErrorIs(t, err, ErrTooManyUpvalues)
}

func TestRenameLocalChangesNameAtSlot(t *testing.T) {
	u := NewUnit(UnitMethod)
	u.PushScope(FrameBlock)
	slot := u.AddLocal("arg0", LocalVar, false)
	u.RenameLocal(slot, "self")
	require.NotNil(t, u.LookupLocal("self"))
	require.Nil(t, u.LookupLocal("arg0"))
}
