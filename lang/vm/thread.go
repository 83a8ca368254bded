package vm

import (
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/stack"
	"github.com/dicelang/dice/lang/upvalue"
	"github.com/dicelang/dice/lang/value"
)

// ModuleLoader resolves a module name to its compiled Program, per §4.9.
// lang/module provides the file-backed implementation; hosts may substitute
// their own (e.g. an in-memory loader for tests).
type ModuleLoader interface {
	Load(name value.Symbol) (*bytecode.Program, error)
}

// Thread is one interpreter invocation chain: the value stack, the
// open-upvalue list, the write-once globals map, the module cache and the
// standard-library registration tables described in §4.8 and §5. A Thread
// implements value.Runtime so native functions can call back into scripted
// code through it.
type Thread struct {
	Stack    *stack.Stack
	Interner *value.Interner

	globals map[value.Symbol]value.Value

	openUpvalues []*upvalue.Upvalue

	valueKindClass map[value.Kind]*value.Class

	loader      ModuleLoader
	moduleCache map[value.Symbol]value.Value

	// objectClass and moduleClass tag bare `{}` literals and module export
	// objects respectively (§6.2's "CreateObject ... class=Object", §4.9's
	// "fresh Object of class Module"). They are internal bookkeeping, not
	// globals: scripts never construct them by name.
	objectClass *value.Class
	moduleClass *value.Class
}

// NewThread returns a Thread with a freshly allocated value stack.
func NewThread(interner *value.Interner, loader ModuleLoader) *Thread {
	return &Thread{
		Stack:          stack.New(0),
		Interner:       interner,
		globals:        make(map[value.Symbol]value.Value),
		valueKindClass: make(map[value.Kind]*value.Class),
		loader:         loader,
		moduleCache:    make(map[value.Symbol]value.Value),
		objectClass:    value.NewClass(interner.Intern("Object")),
		moduleClass:    value.NewClass(interner.Intern("Module")),
	}
}

// RegisterNative installs a native function as a global (§6.3).
func (t *Thread) RegisterNative(name string, fn value.NativeFn) error {
	return t.DefineGlobal(t.Interner.Intern(name), &value.FnNative{Name: name, Fn: fn})
}

// RegisterClass installs a class as a global by its own name (§6.3).
func (t *Thread) RegisterClass(class *value.Class) error {
	return t.DefineGlobal(class.Name(), class)
}

// RegisterValueKindClass associates a primitive ValueKind with a Class, so
// field/method lookups on non-Object values (e.g. `5.to_string()`) resolve
// through that class's method table (§4.8).
func (t *Thread) RegisterValueKindClass(kind value.Kind, class *value.Class) {
	t.valueKindClass[kind] = class
}

// DefineGlobal installs name into the write-once globals map (§5).
func (t *Thread) DefineGlobal(name value.Symbol, v value.Value) error {
	if _, ok := t.globals[name]; ok {
		return newError(GlobalAlreadyDefined, "global already defined: %s", name.Text())
	}
	t.globals[name] = v
	return nil
}

func (t *Thread) lookupGlobal(name value.Symbol) (value.Value, error) {
	v, ok := t.globals[name]
	if !ok {
		return nil, newError(GlobalUndefined, "undefined global: %s", name.Text())
	}
	return v, nil
}

// findOpenUpvalue returns the open upvalue already tracking slot, if any,
// implementing the "at most one Open upvalue per absolute slot" invariant
// via linear scan, as §4.3/§9 call for.
func (t *Thread) findOpenUpvalue(slot int) *upvalue.Upvalue {
	for _, uv := range t.openUpvalues {
		if uv.IsOpen() && uv.Slot() == slot {
			return uv
		}
	}
	return nil
}

func (t *Thread) openUpvalueFor(slot int) *upvalue.Upvalue {
	if uv := t.findOpenUpvalue(slot); uv != nil {
		return uv
	}
	uv := upvalue.NewOpen(slot)
	t.openUpvalues = append(t.openUpvalues, uv)
	return uv
}

// closeUpvalueAt closes the open upvalue tracking slot, if one exists, and
// removes it from the open list (idempotent: a slot with no open upvalue is
// a no-op).
func (t *Thread) closeUpvalueAt(slot int) {
	for i, uv := range t.openUpvalues {
		if uv.IsOpen() && uv.Slot() == slot {
			uv.Close(t.Stack)
			t.openUpvalues = append(t.openUpvalues[:i], t.openUpvalues[i+1:]...)
			return
		}
	}
}

// Run executes program's top-level as a script with no arguments and no
// parent upvalues, implementing the host's `run(program)` (§6.3).
func (t *Thread) Run(program *bytecode.Program) (value.Value, error) {
	frame := t.Stack.ReserveSlots(program.SlotCount)
	return t.exec(program, frame, nil)
}

// RunModule executes program as a module body with exportObject already
// installed into the module's slot 0 (§4.9's "put the placeholder into slot
// 0"), implementing the host's `run_module` (§6.3).
func (t *Thread) RunModule(program *bytecode.Program, exportObject value.Value) (value.Value, error) {
	frame := t.Stack.ReserveSlots(program.SlotCount)
	t.Stack.AbsSet(frame.Start, exportObject)
	return t.exec(program, frame, nil)
}

// Call invokes a callable Value with args, implementing value.Runtime so
// native functions (and §6.3's host `call`) can re-enter scripted code.
func (t *Thread) Call(fn value.Value, args []value.Value) (value.Value, error) {
	t.Stack.Push(fn)
	t.Stack.PushMany(args)
	return t.dispatchCall(len(args))
}
