package compiler

import (
	"github.com/dicelang/dice/lang/assembler"
	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/resolver"
)

// unitState pairs one resolver.Unit with the assembler building its
// bytecode, plus the declared name used for diagnostics and the compiled
// Program's Name field.
type unitState struct {
	*resolver.Unit
	asm  *assembler.Assembler
	name string
	// selfSlot is the slot index of the calling-convention slot 0, present
	// in every unit (§4.6, "Local-slot layout constraints").
	selfSlot int
	// superSlot is set for Method/Constructor units whose class derives
	// from a base, once `super` is bound.
	hasSuper  bool
	superSlot int
	// classSlot is not assigned by the class-body compiler: the class's local
	// slot is passed to compileAssociatedItem as a parameter instead.
	classSlot int
	// returnType is the declared return-type expression of a Function or
	// Method unit, if any; every `return` (explicit or the implicit one at
	// body end) asserts against it via AssertTypeAndReturn instead of a
	// plain Return.
	returnType ast.Expr
}

func newUnitState(kind resolver.UnitKind, name string) *unitState {
	return &unitState{
		Unit: resolver.NewUnit(kind),
		asm:  assembler.New(),
		name: name,
	}
}
