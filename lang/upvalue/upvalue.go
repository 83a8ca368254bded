// Package upvalue implements the capture cell shared between a closure and
// the lexical scope that declared the variable it captures (§3.3, §4.3).
package upvalue

// StackReader abstracts the slice of the VM's value stack an Upvalue reads
// and writes while it is Open, keyed by absolute stack slot index.
// lang/stack's Stack implements it; the Upvalue itself stores only the absolute index per
// §9's design note ("this avoids dangling when the stack grows and
// relocates").
type StackReader interface {
	At(absoluteSlot int) any
	SetAt(absoluteSlot int, v any)
}

// Upvalue is a shared mutable capture cell, Open (aliasing a stack slot) or
// Closed (owning a value directly). The zero value is not meaningful; use
// NewOpen.
type Upvalue struct {
	closed bool
	slot   int // meaningful only while open
	value  any // meaningful only once closed
}

// NewOpen returns an Upvalue open over the given absolute stack slot.
func NewOpen(slot int) *Upvalue {
	return &Upvalue{slot: slot}
}

// IsOpen reports whether the cell still aliases a stack slot.
func (u *Upvalue) IsOpen() bool { return !u.closed }

// Slot returns the absolute stack slot this cell aliases. Only valid while
// IsOpen.
func (u *Upvalue) Slot() int { return u.slot }

// Get reads the cell's current value. While open, it reads through to the
// stack; once closed, it reads the owned value.
func (u *Upvalue) Get(stack StackReader) any {
	if u.closed {
		return u.value
	}
	return stack.At(u.slot)
}

// Set writes the cell's value. While open, it writes through to the stack;
// once closed, it mutates the owned value directly.
func (u *Upvalue) Set(stack StackReader, v any) {
	if u.closed {
		u.value = v
		return
	}
	stack.SetAt(u.slot, v)
}

// Close transitions the cell from Open to Closed, capturing the slot's
// current value so the cell continues to work after the stack slot is
// released. Closing an already-closed cell is a no-op, making the
// transition idempotent as §5 requires.
func (u *Upvalue) Close(stack StackReader) {
	if u.closed {
		return
	}
	u.value = stack.At(u.slot)
	u.closed = true
}
