package bytecode

import "github.com/dicelang/dice/lang/ast"

// Program is the immutable, compiled form of one function, method, script or
// module body. It is built once by the assembler and never mutated
// afterwards; FnScript values in lang/value hold a *Program by reference, so
// many closures and the top-level script can share one.
type Program struct {
	// Name is used only for diagnostics (function/method/script name).
	Name string

	// Data is the contiguous instruction stream.
	Data []byte

	// Constants holds at most 256 pool entries. Most are the literal-ish
	// bytecode.Constant kinds produced by the assembler, but PushConst may
	// also reference a lang/value FnScript for a closure with no captures
	// (see lang/compiler), hence `any`.
	Constants []any

	// SlotCount is the number of local-variable slots the top-level frame of
	// this program needs (including the calling-convention slot 0).
	SlotCount int

	// UpvalueCount is the number of upvalues this program's closures expect
	// (0 for top-level scripts and modules).
	UpvalueCount int

	// SourceMap is a partial byte-offset -> source span map, populated by the
	// assembler at each emitted opcode, for trace reporting.
	SourceMap map[int]ast.Span
}

// SpanAt returns the best-effort source span for the instruction at byte
// offset off, per §4.1's "last_instruction_offset" contract: if off is not
// itself a recorded opcode boundary (e.g. it points mid-operand), the
// nearest earlier recorded entry is used.
func (p *Program) SpanAt(off int) (ast.Span, bool) {
	if sp, ok := p.SourceMap[off]; ok {
		return sp, true
	}
	best := -1
	for k := range p.SourceMap {
		if k <= off && k > best {
			best = k
		}
	}
	if best < 0 {
		return ast.Span{}, false
	}
	return p.SourceMap[best], true
}
