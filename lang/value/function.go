package value

import (
	"fmt"

	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/upvalue"
)

// FnScript is an immutable compiled function: a name, its parameter arity
// and the bytecode that implements it. Equality is by identity (pointer),
// per §3.1.
type FnScript struct {
	Name    string
	Arity   int
	Program *bytecode.Program
}

func (f *FnScript) String() string { return fmt.Sprintf("fn %s/%d", nameOrAnon(f.Name), f.Arity) }
func (*FnScript) Kind() Kind       { return KindFnScript }

// BytecodeProgram implements the interface lang/bytecode's disassembler
// uses to recurse into a nested function's code without bytecode importing
// this package.
func (f *FnScript) BytecodeProgram() *bytecode.Program { return f.Program }

func nameOrAnon(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// FnClosure pairs an FnScript with the fixed-length array of Upvalues it
// captured at creation time. Equality is by (script, upvalue-array)
// identity (§3.1); since every CreateClosure execution allocates a fresh
// *FnClosure and a fresh Upvalues slice, plain pointer identity on the
// *FnClosure already implements this.
type FnClosure struct {
	Script   *FnScript
	Upvalues []*upvalue.Upvalue
}

func (f *FnClosure) String() string { return fmt.Sprintf("closure %s/%d", nameOrAnon(f.Script.Name), f.Script.Arity) }
func (*FnClosure) Kind() Kind       { return KindFnClosure }

// FnNative is an opaque host-provided callable (§6.3's register_native).
// Equality is by reference identity.
type FnNative struct {
	Name string
	Fn   NativeFn
}

func (f *FnNative) String() string { return fmt.Sprintf("native fn %s", nameOrAnon(f.Name)) }
func (*FnNative) Kind() Kind       { return KindFnNative }

// FnBound pairs a receiver with the function value it was bound to (e.g. a
// method loaded off an instance). Equality is structural on both fields.
// FnBound is never itself bound (§3.1): binding logic in lang/vm must not
// construct an FnBound whose Fn is itself an FnBound.
type FnBound struct {
	Receiver Value
	Fn       Value
}

func (f *FnBound) String() string { return fmt.Sprintf("bound(%s)", f.Fn) }
func (*FnBound) Kind() Kind       { return KindFnBound }
