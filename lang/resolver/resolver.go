// Package resolver implements the compile-time scope-frame stack and
// cross-unit upvalue resolution described in §3.4 and §4.5. It tracks
// locals per lexical scope within one compiler unit (function, method,
// module or script) and, given a chain of enclosing units, threads upvalue
// captures through every intermediate function that lexically surrounds a
// use, generalizing the block/binding-chain walk the teacher's resolver
// uses for Starlark-style free-variable capture.
package resolver

import "fmt"

// LocalState distinguishes why a local's value may not yet be safe to read,
// matching §3.4's split-state Local so the compiler can detect
// use-before-init and allow forward references among peer function/class
// declarations within the same block's pre-pass.
type LocalState uint8

const (
	// LocalVar is an ordinary `let`/`const` binding.
	LocalVar LocalState = iota
	// FunctionDecl is a pre-pass reservation for a function declared later
	// in the same block.
	FunctionDecl
	// ClassDecl is a pre-pass reservation for a class declared later in the
	// same block.
	ClassDecl
)

// Local describes one compile-time binding in a scope frame.
type Local struct {
	Name        string
	Slot        int
	State       LocalState
	IsMutable   bool
	IsInitialized bool
	IsCaptured  bool
}

// FrameKind distinguishes an ordinary lexical block from a loop body, which
// additionally tracks its entry offset and pending break patches.
type FrameKind uint8

const (
	// FrameBlock is a plain lexical block.
	FrameBlock FrameKind = iota
	// FrameLoop is a while/loop/for body; break and continue resolve
	// against the innermost FrameLoop ancestor within the same unit.
	FrameLoop
)

// Frame is one scope frame on a compiler unit's scope stack (§3.4).
type Frame struct {
	Kind            FrameKind
	Depth           int
	Locals          []*Local
	LoopEntryOffset int
	LoopExitPatches []int
}

// UnitKind tags what a CompilerUnit is compiling, driving which statements
// (return, export, super) are legal inside it.
type UnitKind uint8

const (
	UnitScript UnitKind = iota
	UnitModule
	UnitFunction
	UnitMethod
	UnitConstructor
)

// UpvalueDescriptor records how a compiler unit captures a name from its
// immediately enclosing unit, per §3.4.
type UpvalueDescriptor struct {
	IsParentLocal bool
	Index         uint8
	IsMutable     bool
}

// ErrTooManyUpvalues is returned once a unit's upvalue descriptor list would
// exceed 256 entries (§4.5, §6.4).
var ErrTooManyUpvalues = fmt.Errorf("resolver: more than 256 upvalues in one compiler unit")

// Unit tracks one compiler unit's scope-frame stack, local-slot watermark
// and upvalue descriptor list. lang/compiler owns a stack of *Unit mirroring
// lexical function nesting; in ResolveUpvalue's units slice, index 0 is the
// outermost unit and the last element is the unit currently being compiled.
type Unit struct {
	Kind         UnitKind
	frames       []*Frame
	slotCount    int // cumulative locals ever reserved, i.e. the high-water mark
	upvalues     []UpvalueDescriptor
	upvalueIndex map[string]uint8
	// CallDepth counts nested call/index/field-access links for chaining
	// null-propagate exit patches (§4.6's null-propagate handling).
	CallDepth int
	// PendingNullExits accumulates jump-patch positions opened by `x?`
	// within the current call-context chain.
	PendingNullExits []int
}

// NewUnit returns an empty compiler unit of the given kind.
func NewUnit(kind UnitKind) *Unit {
	return &Unit{Kind: kind, upvalueIndex: make(map[string]uint8)}
}

// PushScope pushes a new scope frame, returning it so the caller can stash
// loopEntryOffset for FrameLoop kinds.
func (u *Unit) PushScope(kind FrameKind) *Frame {
	f := &Frame{Kind: kind, Depth: len(u.frames)}
	u.frames = append(u.frames, f)
	return f
}

// PopScope pops and returns the innermost scope frame.
func (u *Unit) PopScope() *Frame {
	n := len(u.frames)
	f := u.frames[n-1]
	u.frames = u.frames[:n-1]
	return f
}

// currentLocalCount is the number of locals live across every frame
// currently on the stack, i.e. the next slot index to hand out.
func (u *Unit) currentLocalCount() int {
	n := 0
	for _, f := range u.frames {
		n += len(f.Locals)
	}
	return n
}

// AddLocal appends a local to the innermost frame and returns its slot
// index, updating the unit's slot-count watermark (§4.5).
func (u *Unit) AddLocal(name string, state LocalState, isMutable bool) int {
	slot := u.currentLocalCount()
	local := &Local{Name: name, Slot: slot, State: state, IsMutable: isMutable}
	innermost := u.frames[len(u.frames)-1]
	innermost.Locals = append(innermost.Locals, local)
	if slot+1 > u.slotCount {
		u.slotCount = slot + 1
	}
	return slot
}

// SlotCount returns the watermark to store as the compiled Program's
// SlotCount.
func (u *Unit) SlotCount() int { return u.slotCount }

// RenameLocal changes the name of the local at the given slot. Used when a
// parameter semantically reuses the calling-convention slot 0, e.g. a
// method's `self` receiver.
func (u *Unit) RenameLocal(slot int, name string) {
	for _, f := range u.frames {
		for _, l := range f.Locals {
			if l.Slot == slot {
				l.Name = name
				return
			}
		}
	}
}

// LookupLocal searches this unit's frames innermost-to-outermost for name,
// scoped to this unit only (§4.5: "within the current unit only").
func (u *Unit) LookupLocal(name string) *Local {
	for i := len(u.frames) - 1; i >= 0; i-- {
		locals := u.frames[i].Locals
		for j := len(locals) - 1; j >= 0; j-- {
			if locals[j].Name == name {
				return locals[j]
			}
		}
	}
	return nil
}

// InLoopContext reports whether a FrameLoop is anywhere on this unit's
// scope stack (break/continue are not confined to the innermost frame,
// since they can appear inside a nested Block within the loop body).
func (u *Unit) InLoopContext() bool { return u.innermostLoop() != nil }

func (u *Unit) innermostLoop() *Frame {
	for i := len(u.frames) - 1; i >= 0; i-- {
		if u.frames[i].Kind == FrameLoop {
			return u.frames[i]
		}
	}
	return nil
}

// CurrentLoopEntry returns the innermost loop's recorded entry offset, for
// `continue`'s backward jump.
func (u *Unit) CurrentLoopEntry() int {
	loop := u.innermostLoop()
	return loop.LoopEntryOffset
}

// SetLoopEntry stamps the entry offset on a just-pushed FrameLoop.
func (f *Frame) SetLoopEntry(offset int) { f.LoopEntryOffset = offset }

// AddLoopExit records a `break`'s forward-jump patch position against the
// innermost loop frame.
func (u *Unit) AddLoopExit(patchPos int) {
	loop := u.innermostLoop()
	loop.LoopExitPatches = append(loop.LoopExitPatches, patchPos)
}

// upvalueFor returns the existing descriptor index for name if this unit
// already captured it, deduplicating repeated captures of the same name
// per §4.5.
func (u *Unit) upvalueFor(name string) (uint8, bool) {
	idx, ok := u.upvalueIndex[name]
	return idx, ok
}

func (u *Unit) addUpvalue(name string, desc UpvalueDescriptor) (uint8, error) {
	if idx, ok := u.upvalueFor(name); ok {
		return idx, nil
	}
	if len(u.upvalues) >= 256 {
		return 0, ErrTooManyUpvalues
	}
	idx := uint8(len(u.upvalues))
	u.upvalues = append(u.upvalues, desc)
	u.upvalueIndex[name] = idx
	return idx, nil
}

// Upvalues returns the unit's dense upvalue descriptor list; its length is
// the compiled Program's UpvalueCount.
func (u *Unit) Upvalues() []UpvalueDescriptor { return u.upvalues }

// ResolveUpvalue implements §4.5's cross-unit algorithm. units is the
// enclosing-to-innermost chain with the unit currently compiling a use at
// units[len(units)-1]; name is the identifier being resolved as a capture.
// It returns the resolving unit's descriptor index for name in its own
// upvalue list, or ok=false if name is not found as a local in any
// enclosing unit.
func ResolveUpvalue(units []*Unit, name string) (uint8, bool, error) {
	n := len(units)
	if n < 2 {
		return 0, false, nil
	}
	return resolveUpvalueAt(units, n-1, name)
}

// resolveUpvalueAt resolves name as an upvalue of units[u], per the
// recursive algorithm in §4.5 (1-4).
func resolveUpvalueAt(units []*Unit, u int, name string) (uint8, bool, error) {
	if u == 0 {
		return 0, false, nil
	}
	parent := units[u-1]
	this := units[u]

	if local := parent.LookupLocal(name); local != nil {
		local.IsCaptured = true
		idx, err := this.addUpvalue(name, UpvalueDescriptor{
			IsParentLocal: true,
			Index:         uint8(local.Slot),
			IsMutable:     local.IsMutable,
		})
		return idx, err == nil, err
	}

	parentIdx, found, err := resolveUpvalueAt(units, u-1, name)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	idx, err := this.addUpvalue(name, UpvalueDescriptor{
		IsParentLocal: false,
		Index:         parentIdx,
		IsMutable:     true,
	})
	return idx, err == nil, err
}
