package value

import (
	"testing"

	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/upvalue"
	"github.com/stretchr/testify/require"
)

func TestFnScriptStringAndKind(t *testing.T) {
	f := &FnScript{Name: "add", Arity: 2, Program: &bytecode.Program{Name: "add"}}
	require.Equal(t, "fn add/2", f.String())
	require.Equal(t, KindFnScript, f.Kind())
	require.Same(t, f.Program, f.BytecodeProgram())
}

func TestFnScriptAnonymousName(t *testing.T) {
	f := &FnScript{Name: "", Arity: 0, Program: &bytecode.Program{}}
	require.Equal(t, "fn <anonymous>/0", f.String())
}

func TestFnClosureWrapsScriptAndUpvalues(t *testing.T) {
	script := &FnScript{Name: "counter", Arity: 0, Program: &bytecode.Program{}}
	uv := upvalue.NewOpen(0)
	c := &FnClosure{Script: script, Upvalues: []*upvalue.Upvalue{uv}}
	require.Equal(t, KindFnClosure, c.Kind())
	require.Equal(t, "closure counter/0", c.String())
	require.Len(t, c.Upvalues, 1)
}

func TestFnNativeStringAndKind(t *testing.T) {
	fn := func(rt Runtime, args []Value) (Value, error) { return TheUnit, nil }
	n := &FnNative{Name: "print", Fn: fn}
	require.Equal(t, KindFnNative, n.Kind())
	require.Equal(t, "native fn print", n.String())
}

func TestFnBoundWrapsReceiverAndFn(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	receiver := NewObject(class)
	method := &FnScript{Name: "getX", Arity: 0, Program: &bytecode.Program{}}
	bound := &FnBound{Receiver: receiver, Fn: method}
	require.Equal(t, KindFnBound, bound.Kind())
	require.Same(t, receiver, bound.Receiver)
	require.Same(t, method, bound.Fn)
}
