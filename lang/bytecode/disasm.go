package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders p's top-level code stream (and, for value.FnScript
// constants, their nested programs too) in a human-readable listing, in the
// style of the teacher's compiler.Dasm. It is used by tests and is
// available to any future host tool, though no CLI ships in this module
// (out of scope, see spec.md §1).
func Disassemble(p *Program) string {
	var b strings.Builder
	disassembleOne(&b, p, map[*Program]bool{})
	return b.String()
}

func disassembleOne(b *strings.Builder, p *Program, seen map[*Program]bool) {
	if seen[p] {
		return
	}
	seen[p] = true

	fmt.Fprintf(b, "function %s (slots=%d upvalues=%d)\n", nameOrAnon(p.Name), p.SlotCount, p.UpvalueCount)

	c := NewCursor(p.Data)
	for {
		off := c.Position()
		insn, ok := c.ReadInstruction()
		if !ok {
			break
		}
		switch Operand(insn.Op) {
		case OperandU8:
			fmt.Fprintf(b, "  %04d %-28s %d\n", off, insn.Op, insn.Arg)
		case OperandU8U8:
			fmt.Fprintf(b, "  %04d %-28s %d %d\n", off, insn.Op, insn.Arg, insn.Arg2)
		case OperandI16:
			fmt.Fprintf(b, "  %04d %-28s %+d -> %04d\n", off, insn.Op, insn.Offset, off+Size(insn.Op)+int(insn.Offset))
		default:
			fmt.Fprintf(b, "  %04d %-28s\n", off, insn.Op)
		}
		if insn.Op == CreateClosure {
			fn := constantFnScript(p.Constants[insn.Arg])
			if fn != nil {
				for i := 0; i < fn.UpvalueCount; i++ {
					isParentLocal := c.ReadU8()
					index := c.ReadU8()
					fmt.Fprintf(b, "       upvalue[%d] parent_local=%v index=%d\n", i, isParentLocal != 0, index)
				}
			}
		}
	}

	for _, k := range p.Constants {
		if fn := constantFnScript(k); fn != nil {
			disassembleOne(b, fn, seen)
		}
	}
}

func nameOrAnon(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// constantFnScript extracts the nested *Program from a constant pool entry
// that holds a value.FnScript, without bytecode importing lang/value.
// value.FnScript satisfies this interface.
type fnScriptConstant interface {
	BytecodeProgram() *Program
}

func constantFnScript(c any) *Program {
	if fs, ok := c.(fnScriptConstant); ok {
		return fs.BytecodeProgram()
	}
	return nil
}
