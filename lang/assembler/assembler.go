// Package assembler implements the append-only bytecode writer (§4.4): it
// emits opcodes and operands into a growing byte buffer, interns constants
// with deduplication, records a source map keyed by emitted-opcode byte
// offset, and exposes the forward-jump placeholder/patch protocol the
// compiler's control-flow lowering depends on.
package assembler

import (
	"errors"

	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
)

// ErrTooManyConstants is returned by InternConstant once the pool would
// exceed 256 entries (§4.4, §6.2).
var ErrTooManyConstants = errors.New("assembler: constant pool exceeds 256 entries")

// Assembler accumulates the instruction stream, constant pool and source
// map for a single compiled unit (one Program per compiler unit, which
// lang/compiler tracks as a unitState).
type Assembler struct {
	data      []byte
	sourceMap map[int]ast.Span
	constants []any
	constIdx  map[any]uint8
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{
		sourceMap: make(map[int]ast.Span),
		constIdx:  make(map[any]uint8),
	}
}

// CurrentPosition returns the next write position, i.e. the position a byte
// emitted right now would occupy.
func (a *Assembler) CurrentPosition() int { return len(a.data) }

func (a *Assembler) recordSpan(pos int, span ast.Span) {
	if _, ok := a.sourceMap[pos]; !ok {
		a.sourceMap[pos] = span
	}
}

// Emit appends a no-operand opcode.
func (a *Assembler) Emit(op bytecode.Opcode, span ast.Span) int {
	pos := a.CurrentPosition()
	a.recordSpan(pos, span)
	a.data = append(a.data, byte(op))
	return pos
}

// EmitU8 appends an opcode with a single byte operand.
func (a *Assembler) EmitU8(op bytecode.Opcode, arg uint8, span ast.Span) int {
	pos := a.Emit(op, span)
	a.data = append(a.data, arg)
	return pos
}

// EmitU8U8 appends an opcode with two byte operands (LoadFieldToLocal).
func (a *Assembler) EmitU8U8(op bytecode.Opcode, a1, a2 uint8, span ast.Span) int {
	pos := a.Emit(op, span)
	a.data = append(a.data, a1, a2)
	return pos
}

// EmitRawU8 appends a single raw byte with no source-map entry, used for
// CreateClosure's trailing (is_parent_local, index) descriptor pairs which
// are not separately addressable instructions.
func (a *Assembler) EmitRawU8(b uint8) { a.data = append(a.data, b) }

// EmitJump appends a forward jump with a zero placeholder offset and
// returns the position of the offset's first byte, to later pass to
// PatchJump.
func (a *Assembler) EmitJump(op bytecode.Opcode, span ast.Span) int {
	a.Emit(op, span)
	placeholder := a.CurrentPosition()
	a.data = append(a.data, 0, 0)
	return placeholder
}

// PatchJump fills in the forward jump whose offset placeholder starts at
// pos, computing `(current_position - placeholder - 2)` per §4.1.
func (a *Assembler) PatchJump(pos int) {
	offset := int16(a.CurrentPosition() - pos - 2)
	a.data[pos] = byte(uint16(offset) >> 8)
	a.data[pos+1] = byte(uint16(offset))
}

// EmitBackwardJump appends a jump whose target has already been assembled,
// writing `-(current_position - target + 2)` directly (§4.1).
func (a *Assembler) EmitBackwardJump(op bytecode.Opcode, target int, span ast.Span) {
	a.Emit(op, span)
	offset := int16(-(a.CurrentPosition() + 2 - target))
	a.data = append(a.data, byte(uint16(offset)>>8), byte(uint16(offset)))
}

// InternConstant returns the pool index for v, appending it if this is the
// first occurrence; repeated calls with an equal v return the same index
// (§4.4, §8 constant-pool dedup property).
func (a *Assembler) InternConstant(v any) (uint8, error) {
	if idx, ok := a.constIdx[v]; ok {
		return idx, nil
	}
	if len(a.constants) >= 256 {
		return 0, ErrTooManyConstants
	}
	idx := uint8(len(a.constants))
	a.constants = append(a.constants, v)
	a.constIdx[v] = idx
	return idx, nil
}

// Data returns the assembled instruction stream so far.
func (a *Assembler) Data() []byte { return a.data }

// Constants returns the interned constant pool so far.
func (a *Assembler) Constants() []any { return a.constants }

// SourceMap returns the byte-offset -> span map recorded so far.
func (a *Assembler) SourceMap() map[int]ast.Span { return a.sourceMap }

// Finish builds the immutable Program from the assembled state. name is the
// function/script/module name for diagnostics; slotCount and upvalueCount
// come from the resolver's compiler unit.
func (a *Assembler) Finish(name string, slotCount, upvalueCount int) *bytecode.Program {
	return &bytecode.Program{
		Name:         name,
		Data:         a.data,
		Constants:    a.constants,
		SlotCount:    slotCount,
		UpvalueCount: upvalueCount,
		SourceMap:    a.sourceMap,
	}
}
