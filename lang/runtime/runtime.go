// Package runtime is the host embedding surface (§6.3): it owns the
// Interner, the Module Loader wiring and the VM Thread, and exposes
// run/run_module/register_native/register_class/register_value_kind_class/
// call as plain Go methods, configured through functional options the way
// the teacher's machine.Thread exposes its tunables (MaxSteps,
// MaxCallStackDepth) as plain struct fields rather than through a CLI flag
// parser.
package runtime

import (
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/stack"
	"github.com/dicelang/dice/lang/value"
	"github.com/dicelang/dice/lang/vm"
)

// Config holds the tunables a host can set when constructing a Runtime.
type Config struct {
	stackCapacity int
	loader        vm.ModuleLoader
}

// Option configures a Runtime at construction time.
type Option func(*Config)

// WithStackCapacity sets the value stack's fixed capacity. Zero or negative
// uses stack.DefaultCapacity.
func WithStackCapacity(n int) Option {
	return func(c *Config) { c.stackCapacity = n }
}

// WithModuleLoader installs the Module Loader used to resolve `import`
// (§4.9). Without one, LoadModule fails every lookup as if every module
// name were undefined.
func WithModuleLoader(loader vm.ModuleLoader) Option {
	return func(c *Config) { c.loader = loader }
}

// Runtime is one embedded language instance: its own Interner (so globals
// interned here never collide with another Runtime's, per §9), its own VM
// Thread, and the host-facing registration surface of §6.3.
type Runtime struct {
	Interner *value.Interner
	thread   *vm.Thread
}

// New constructs a Runtime ready to run programs and register natives.
func New(opts ...Option) *Runtime {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	interner := &value.Interner{}
	th := vm.NewThread(interner, cfg.loader)
	if cfg.stackCapacity > 0 {
		th.Stack = stack.New(cfg.stackCapacity)
	}
	return &Runtime{Interner: interner, thread: th}
}

// Intern exposes the Runtime's Interner to hosts that need to build Symbol
// values outside of compiled bytecode (e.g. to name a native function's
// receiver class).
func (r *Runtime) Intern(name string) value.Symbol { return r.Interner.Intern(name) }

// Run executes program's top-level as a script (§6.3's `run`).
func (r *Runtime) Run(program *bytecode.Program) (value.Value, error) {
	return r.thread.Run(program)
}

// RunModule executes program as a module body with exportObject already
// installed as its `#export` local (§6.3's `run_module`).
func (r *Runtime) RunModule(program *bytecode.Program, exportObject value.Value) (value.Value, error) {
	return r.thread.RunModule(program, exportObject)
}

// Call invokes a scripted function value from host code (§6.3's `call`).
func (r *Runtime) Call(fn value.Value, args []value.Value) (value.Value, error) {
	return r.thread.Call(fn, args)
}

// RegisterNative installs fn as a global callable under name (§6.3's
// `register_native`).
func (r *Runtime) RegisterNative(name string, fn value.NativeFn) error {
	return r.thread.RegisterNative(name, fn)
}

// RegisterClass installs class as a global under its own name (§6.3's
// `register_class`).
func (r *Runtime) RegisterClass(class *value.Class) error {
	return r.thread.RegisterClass(class)
}

// RegisterValueKindClass associates kind with class for field/method lookup
// on primitive values (§6.3's `register_value_kind_class`).
func (r *Runtime) RegisterValueKindClass(kind value.Kind, class *value.Class) {
	r.thread.RegisterValueKindClass(kind, class)
}

// DefineGlobal installs an arbitrary value into the write-once globals map,
// for host values that are neither a NativeFn nor a Class (e.g. a constant).
func (r *Runtime) DefineGlobal(name string, v value.Value) error {
	return r.thread.DefineGlobal(r.Interner.Intern(name), v)
}
