// Package bytecode implements the bytecode model (instruction set, constant
// pool, source map and the immutable Program container) shared by the
// compiler and the virtual machine. It intentionally knows nothing about
// the concrete runtime value representation: a Program's constant pool
// stores `any`, exactly as lang/value's heap kinds populate it, the same
// separation the teacher draws between compiler.Program (raw Go constants)
// and machine.Module (the typed Values built from them).
package bytecode

import "fmt"

// Opcode is a single bytecode instruction tag.
type Opcode uint8

//go:generate stringer -type=Opcode
const (
	PushNull Opcode = iota
	PushUnit
	PushFalse
	PushTrue
	PushI0
	PushI1
	PushF0
	PushF1

	PushConst // k:u8

	Pop
	Dup  // k:u8
	Swap

	CreateArray // n:u8
	CreateObject
	CreateClass   // name:u8
	InheritClass  // name:u8
	CreateClosure // k:u8, then upvalue_count*(u8,u8) read directly off the cursor

	LoadLocal   // slot:u8
	StoreLocal  // slot:u8
	AssignLocal // slot:u8

	LoadUpvalue
	StoreUpvalue
	AssignUpvalue
	CloseUpvalue

	LoadGlobal  // name_const:u8
	StoreGlobal // name_const:u8

	LoadField   // name_const:u8
	StoreField  // name_const:u8
	AssignField // name_const:u8

	LoadIndex
	StoreIndex
	AssignIndex

	LoadMethod  // name_const:u8
	StoreMethod // name_const:u8

	LoadFieldToLocal // name_const:u8, slot:u8

	LoadModule // path_const:u8

	Jump        // offset:i16
	JumpIfFalse // offset:i16
	JumpIfTrue  // offset:i16

	Call      // n:u8
	CallSuper // n:u8

	Return

	Neg
	Not

	Multiply
	Divide
	Remainder
	Add
	Subtract
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	Equal
	NotEqual
	Is
	RangeInclusive
	RangeExclusive
	DiceRoll
	DieRoll

	AssertBool

	AssertTypeForLocal       // slot:u8
	AssertTypeOrNullForLocal // slot:u8
	AssertTypeAndReturn
	AssertTypeOrNullAndReturn
)

// OperandKind describes how many bytes of fixed operand follow an opcode in
// the instruction stream (CreateClosure's trailing upvalue descriptors are
// not fixed and are read separately by whoever decodes the instruction).
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandU8
	OperandU8U8
	OperandI16
)

var operandKinds = [...]OperandKind{
	PushConst: OperandU8,
	Dup:       OperandU8,

	CreateArray:   OperandU8,
	CreateClass:   OperandU8,
	InheritClass:  OperandU8,
	CreateClosure: OperandU8,

	LoadLocal:   OperandU8,
	StoreLocal:  OperandU8,
	AssignLocal: OperandU8,

	LoadUpvalue:   OperandU8,
	StoreUpvalue:  OperandU8,
	AssignUpvalue: OperandU8,
	CloseUpvalue:  OperandU8,

	LoadGlobal:  OperandU8,
	StoreGlobal: OperandU8,

	LoadField:   OperandU8,
	StoreField:  OperandU8,
	AssignField: OperandU8,

	LoadMethod:  OperandU8,
	StoreMethod: OperandU8,

	LoadFieldToLocal: OperandU8U8,

	LoadModule: OperandU8,

	Jump:        OperandI16,
	JumpIfFalse: OperandI16,
	JumpIfTrue:  OperandI16,

	Call:      OperandU8,
	CallSuper: OperandU8,

	AssertTypeForLocal:       OperandU8,
	AssertTypeOrNullForLocal: OperandU8,
}

// Operand reports the operand shape of op.
func Operand(op Opcode) OperandKind { return operandKinds[op] }

// Size returns the number of bytes op and its fixed operand occupy in the
// instruction stream, not counting CreateClosure's trailing descriptor
// pairs (their count depends on the referenced function, not on the
// instruction itself).
func Size(op Opcode) int {
	switch Operand(op) {
	case OperandU8:
		return 2
	case OperandU8U8:
		return 3
	case OperandI16:
		return 3
	default:
		return 1
	}
}

var opcodeNames = [...]string{
	PushNull:  "push_null",
	PushUnit:  "push_unit",
	PushFalse: "push_false",
	PushTrue:  "push_true",
	PushI0:    "push_i0",
	PushI1:    "push_i1",
	PushF0:    "push_f0",
	PushF1:    "push_f1",

	PushConst: "push_const",

	Pop:  "pop",
	Dup:  "dup",
	Swap: "swap",

	CreateArray:   "create_array",
	CreateObject:  "create_object",
	CreateClass:   "create_class",
	InheritClass:  "inherit_class",
	CreateClosure: "create_closure",

	LoadLocal:   "load_local",
	StoreLocal:  "store_local",
	AssignLocal: "assign_local",

	LoadUpvalue:   "load_upvalue",
	StoreUpvalue:  "store_upvalue",
	AssignUpvalue: "assign_upvalue",
	CloseUpvalue:  "close_upvalue",

	LoadGlobal:  "load_global",
	StoreGlobal: "store_global",

	LoadField:   "load_field",
	StoreField:  "store_field",
	AssignField: "assign_field",

	LoadIndex:   "load_index",
	StoreIndex:  "store_index",
	AssignIndex: "assign_index",

	LoadMethod:  "load_method",
	StoreMethod: "store_method",

	LoadFieldToLocal: "load_field_to_local",

	LoadModule: "load_module",

	Jump:        "jump",
	JumpIfFalse: "jump_if_false",
	JumpIfTrue:  "jump_if_true",

	Call:      "call",
	CallSuper: "call_super",

	Return: "return",

	Neg: "neg",
	Not: "not",

	Multiply:           "multiply",
	Divide:             "divide",
	Remainder:          "remainder",
	Add:                "add",
	Subtract:           "subtract",
	GreaterThan:        "greater_than",
	GreaterThanOrEqual: "greater_than_or_equal",
	LessThan:           "less_than",
	LessThanOrEqual:    "less_than_or_equal",
	Equal:              "equal",
	NotEqual:           "not_equal",
	Is:                 "is",
	RangeInclusive:     "range_inclusive",
	RangeExclusive:     "range_exclusive",
	DiceRoll:           "dice_roll",
	DieRoll:            "die_roll",

	AssertBool:                "assert_bool",
	AssertTypeForLocal:        "assert_type_for_local",
	AssertTypeOrNullForLocal:  "assert_type_or_null_for_local",
	AssertTypeAndReturn:       "assert_type_and_return",
	AssertTypeOrNullAndReturn: "assert_type_or_null_and_return",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}
