// Package stack implements the fixed-capacity operand stack and call-frame
// bookkeeping described in §4.7. It is deliberately small and allocation-
// free on the hot path, mirroring the teacher's machine.Thread.stack /
// Frame split but generalized to the explicit reserve/release frame API
// this spec calls for.
package stack

import (
	"fmt"

	"github.com/dicelang/dice/lang/value"
)

// approxCapacityBytes targets ~1 MiB of stack space, per §4.7.
const approxCapacityBytes = 1 << 20

// DefaultCapacity is the number of Value slots that keeps the stack's
// backing array near approxCapacityBytes, assuming a 16-byte interface
// value (Go's typical (type,data) pointer pair).
const DefaultCapacity = approxCapacityBytes / 16

// Frame is an absolute [Start, End) range on the value stack belonging to
// one active invocation: the calling-convention slot, arguments and
// reserved locals.
type Frame struct {
	Start, End int
}

// Len returns the number of slots spanned by the frame.
func (f Frame) Len() int { return f.End - f.Start }

// Prepend returns a frame that additionally covers the k slots immediately
// preceding f.Start, used to fold the calling-convention slot and the
// already-pushed argument slots into the callee's reserved frame.
func (f Frame) Prepend(k int) Frame {
	return Frame{Start: f.Start - k, End: f.End}
}

// Stack is a fixed-capacity array of Values with the push/pop/peek/frame
// operations §4.7 specifies.
type Stack struct {
	slots []value.Value
	sp    int
}

// New returns a Stack with the given capacity. A capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{slots: make([]value.Value, capacity)}
}

// Len returns the current stack pointer (number of live slots).
func (s *Stack) Len() int { return s.sp }

// Push pushes v onto the top of the stack.
func (s *Stack) Push(v value.Value) { s.slots[s.sp] = v; s.sp++ }

// Pop pops and returns the top of the stack.
func (s *Stack) Pop() value.Value {
	s.sp--
	v := s.slots[s.sp]
	s.slots[s.sp] = nil
	return v
}

// Peek returns the value i slots from the top (0-based, 0 is the top)
// without popping it.
func (s *Stack) Peek(i int) value.Value { return s.slots[s.sp-1-i] }

// SetPeek overwrites the value i slots from the top.
func (s *Stack) SetPeek(i int, v value.Value) { s.slots[s.sp-1-i] = v }

// Swap exchanges the top two values.
func (s *Stack) Swap() {
	s.slots[s.sp-1], s.slots[s.sp-2] = s.slots[s.sp-2], s.slots[s.sp-1]
}

// PopCount pops and returns the top n values in original (bottom-to-top)
// order.
func (s *Stack) PopCount(n int) []value.Value {
	out := make([]value.Value, n)
	copy(out, s.slots[s.sp-n:s.sp])
	for i := s.sp - n; i < s.sp; i++ {
		s.slots[i] = nil
	}
	s.sp -= n
	return out
}

// PushMany pushes each value of vs in order.
func (s *Stack) PushMany(vs []value.Value) {
	for _, v := range vs {
		s.Push(v)
	}
}

// At returns the value at absolute slot index i, implementing
// upvalue.StackReader.
func (s *Stack) At(i int) any { return s.slots[i] }

// SetAt overwrites the value at absolute slot index i, implementing
// upvalue.StackReader.
func (s *Stack) SetAt(i int, v any) { s.slots[i] = v.(value.Value) }

// AbsGet/AbsSet index the stack directly by absolute slot, for local-
// variable access within an active frame.
func (s *Stack) AbsGet(i int) value.Value    { return s.slots[i] }
func (s *Stack) AbsSet(i int, v value.Value) { s.slots[i] = v }

// ReserveSlots advances the stack pointer by n and returns the spanned
// range as a Frame, per §4.7.
func (s *Stack) ReserveSlots(n int) Frame {
	f := Frame{Start: s.sp, End: s.sp + n}
	for i := f.Start; i < f.End; i++ {
		s.slots[i] = value.TheNull
	}
	s.sp = f.End
	return f
}

// ReleaseFrame clears frame's slots to Null and retracts the stack pointer
// back to frame.Start. It panics if that would underflow the stack (the
// frame must be the current top-of-stack span), matching §4.7's "assert
// retract does not underflow".
func (s *Stack) ReleaseFrame(f Frame) {
	if s.sp != f.End {
		panic(fmt.Sprintf("stack: release of frame [%d,%d) does not match stack pointer %d", f.Start, f.End, s.sp))
	}
	for i := f.Start; i < f.End; i++ {
		s.slots[i] = value.TheNull
	}
	s.sp = f.Start
}
