// Package value implements the runtime value model shared by the compiler
// and the virtual machine: the tagged Value union, the reference-counted-by-
// GC heap object kinds (Array, Object, Class, the Fn* callable kinds), and
// the process- (well, runtime-) wide symbol interner. It is the Go analogue
// of the teacher's lang/types + lang/machine value files, merged into one
// package because, unlike the teacher's Starlark-ish value model, this
// language's FnScript constants are stored directly in the bytecode
// constant pool (see lang/bytecode's doc comment) and the two cannot be
// split across an import boundary without a cycle.
package value

import "fmt"

// Kind identifies a Value's runtime type without a type switch, used to key
// the VM's value_kind_class_map (§4.8) that lets primitive types carry
// methods (e.g. string formatting, numeric helpers) registered by the
// standard library.
type Kind uint8

const (
	KindNull Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindArray
	KindObject
	KindClass
	KindFnScript
	KindFnClosure
	KindFnNative
	KindFnBound
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindClass:
		return "class"
	case KindFnScript, KindFnClosure, KindFnNative, KindFnBound:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Value is the interface implemented by every value the machine can push
// onto its operand stack, per §3.1.
type Value interface {
	// String returns a human-readable representation, for diagnostics.
	String() string
	// Kind identifies the variant for dispatch and for the value-kind-class
	// map.
	Kind() Kind
}

// Runtime is the minimal surface a native function or a host embedder needs
// to call back into scripted code (§6.3's `call`). It is declared here,
// rather than in lang/vm, so that FnNative's signature does not create an
// import cycle: lang/vm's *Thread implements it.
type Runtime interface {
	Call(fn Value, args []Value) (Value, error)
}

// NativeFn is the signature of a host-registered native function (§6.3's
// `register_native`).
type NativeFn func(rt Runtime, args []Value) (Value, error)

// Truth reports a value's truthiness. Only Bool values participate in
// boolean logic in this language; the AssertBool opcode (§4.8) rejects
// anything else before a logical operator's second arm executes.
func Truth(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}
