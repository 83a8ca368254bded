package vm

import (
	"math"

	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/upvalue"
	"github.com/dicelang/dice/lang/value"
)

// dispatchCall implements §4.8's Call dispatch, shared by the Call/CallSuper
// opcodes (both leave [callee, a1..an] on the stack by the time they
// execute -- CallSuper's receiver has already been bound into a FnBound by
// the LoadMethod that always precedes it in compiled code) and by the
// public Thread.Call entry point.
//
// Unwrapping a FnBound splices its receiver into the argument list, but the
// two callee families disagree on where: a script body renames its calling-
// convention slot 0 to self (compileFunctionLiteral), so the receiver must
// land exactly there with no separate callee slot ahead of it, while a
// native body never sees slot 0 at all and instead expects the receiver as
// args[0] alongside a callee slot it discards unexamined (invokeNative).
func (t *Thread) dispatchCall(n int) (value.Value, error) {
	callee := t.Stack.Peek(n)

	if bound, ok := callee.(*value.FnBound); ok {
		args := t.Stack.PopCount(n)
		t.Stack.Pop() // discard the FnBound itself
		switch bound.Fn.(type) {
		case *value.FnScript, *value.FnClosure:
			t.Stack.Push(bound.Receiver)
			t.Stack.PushMany(args)
		default:
			t.Stack.Push(bound.Fn)
			t.Stack.Push(bound.Receiver)
			t.Stack.PushMany(args)
			n++
		}
		callee = bound.Fn
	}

	switch fn := callee.(type) {
	case *value.FnScript:
		return t.invokeScript(fn, n, nil)
	case *value.FnClosure:
		return t.invokeScript(fn.Script, n, fn.Upvalues)
	case *value.Class:
		return t.invokeClass(fn, n)
	case *value.FnNative:
		return t.invokeNative(fn, n)
	default:
		return nil, newError(NotAFunction, "value of kind %s is not callable", callee.Kind())
	}
}

// invokeScript reserves the callee's locals beyond its arguments, folds the
// callee slot and already-pushed arguments into that reservation (§4.7's
// Frame.Prepend) and recurses into the interpreter loop.
func (t *Thread) invokeScript(script *value.FnScript, n int, parentUpvalues []*upvalue.Upvalue) (value.Value, error) {
	if n != script.Arity {
		return nil, newError(ArityMismatch, "%s expects %d argument(s), got %d", script.String(), script.Arity, n)
	}
	extra := script.Program.SlotCount - (1 + n)
	extraFrame := t.Stack.ReserveSlots(extra)
	frame := extraFrame.Prepend(1 + n)
	return t.exec(script.Program, frame, parentUpvalues)
}

// invokeClass builds a fresh Object and, if the class declares a
// constructor, dispatches to it as a bound call; a native constructor may
// substitute a different return value entirely, which is why the
// constructed object is not assumed to be the result.
func (t *Thread) invokeClass(class *value.Class, n int) (value.Value, error) {
	obj := value.NewObject(class)
	newSym := t.Interner.Intern("new")
	ctor, hasCtor := class.Method(newSym)
	if !hasCtor {
		if n != 0 {
			return nil, newError(ArityMismatch, "class %s has no constructor but %d argument(s) given", class.Name().Text(), n)
		}
		t.Stack.Pop() // discard the callee (class) slot
		return obj, nil
	}

	args := t.Stack.PopCount(n)
	t.Stack.Pop() // discard the callee (class) slot
	t.Stack.Push(&value.FnBound{Receiver: obj, Fn: ctor})
	t.Stack.PushMany(args)
	return t.dispatchCall(n)
}

func (t *Thread) invokeNative(fn *value.FnNative, n int) (value.Value, error) {
	args := t.Stack.PopCount(n)
	t.Stack.Pop() // discard the callee (native fn) slot
	return fn.Fn(t, args)
}

// operatorClass returns the class whose method table backs v's operator
// protocol dispatch: the object's own class, or the registered
// value-kind-class for a primitive (nil if none is registered).
func (t *Thread) operatorClass(v value.Value) *value.Class {
	if obj, ok := v.(*value.Object); ok {
		return obj.Class()
	}
	return t.valueKindClass[v.Kind()]
}

// tryOperatorProtocol looks up name on lhs's class and, if found, calls it
// bound to lhs with rhs as its sole explicit argument (self is implicit);
// otherwise looks up name among globals and calls it as a plain two-argument
// function. Returns found=false if neither exists.
func (t *Thread) tryOperatorProtocol(name string, lhs, rhs value.Value) (result value.Value, found bool, err error) {
	sym := t.Interner.Intern(name)
	if class := t.operatorClass(lhs); class != nil {
		if m, ok := class.Method(sym); ok {
			result, err = t.Call(&value.FnBound{Receiver: lhs, Fn: m}, []value.Value{rhs})
			return result, true, err
		}
	}
	if g, ok := t.globals[sym]; ok {
		result, err = t.Call(g, []value.Value{lhs, rhs})
		return result, true, err
	}
	return nil, false, nil
}

func (t *Thread) unaryProtocol(name string, v value.Value) (value.Value, error) {
	sym := t.Interner.Intern(name)
	if class := t.operatorClass(v); class != nil {
		if m, ok := class.Method(sym); ok {
			return t.Call(&value.FnBound{Receiver: v, Fn: m}, nil)
		}
	}
	if g, ok := t.globals[sym]; ok {
		return t.Call(g, []value.Value{v})
	}
	return nil, newError(NotAFunction, "no %s method or global for %s", name, v.Kind())
}

func (t *Thread) execUnary(op bytecode.Opcode) error {
	v := t.Stack.Pop()
	switch op {
	case bytecode.Neg:
		switch n := v.(type) {
		case value.Int:
			t.Stack.Push(-n)
			return nil
		case value.Float:
			t.Stack.Push(-n)
			return nil
		}
		result, err := t.unaryProtocol("#neg", v)
		if err != nil {
			return err
		}
		t.Stack.Push(result)
		return nil

	case bytecode.Not:
		if b, ok := v.(value.Bool); ok {
			t.Stack.Push(!b)
			return nil
		}
		result, err := t.unaryProtocol("#not", v)
		if err != nil {
			return err
		}
		t.Stack.Push(result)
		return nil
	}
	return newError(UnknownInstruction, "unreachable unary opcode %s", op)
}

func (t *Thread) execDieRoll() error {
	a := t.Stack.Pop()
	result, err := t.unaryProtocol("#die_roll", a)
	if err != nil {
		return err
	}
	t.Stack.Push(result)
	return nil
}

var protocolNames = map[bytecode.Opcode]string{
	bytecode.Multiply:           "#mul",
	bytecode.Divide:             "#div",
	bytecode.Remainder:          "#rem",
	bytecode.Add:                "#add",
	bytecode.Subtract:           "#sub",
	bytecode.GreaterThan:        "#gt",
	bytecode.GreaterThanOrEqual: "#gte",
	bytecode.LessThan:           "#lt",
	bytecode.LessThanOrEqual:    "#lte",
	bytecode.RangeInclusive:     "#range_inclusive",
	bytecode.RangeExclusive:     "#range_exclusive",
	bytecode.DiceRoll:           "#dice_roll",
}

// fastPathEligible reports whether op has a direct Int/Int or Float/Float
// fast path. Range and dice operators always dispatch via protocol (§6.2).
func fastPathEligible(op bytecode.Opcode) bool {
	switch op {
	case bytecode.Multiply, bytecode.Divide, bytecode.Remainder, bytecode.Add, bytecode.Subtract,
		bytecode.GreaterThan, bytecode.GreaterThanOrEqual, bytecode.LessThan, bytecode.LessThanOrEqual:
		return true
	}
	return false
}

func (t *Thread) execBinary(op bytecode.Opcode) error {
	rhs := t.Stack.Pop()
	lhs := t.Stack.Pop()

	if fastPathEligible(op) {
		if li, ok := lhs.(value.Int); ok {
			if ri, ok := rhs.(value.Int); ok {
				result, err := intArith(op, li, ri)
				if err != nil {
					return err
				}
				t.Stack.Push(result)
				return nil
			}
		}
		if lf, ok := lhs.(value.Float); ok {
			if rf, ok := rhs.(value.Float); ok {
				t.Stack.Push(floatArith(op, lf, rf))
				return nil
			}
		}
	}

	name := protocolNames[op]
	result, found, err := t.tryOperatorProtocol(name, lhs, rhs)
	if err != nil {
		return err
	}
	if !found {
		return newError(NotAFunction, "no %s method or global for %s", name, lhs.Kind())
	}
	t.Stack.Push(result)
	return nil
}

func intArith(op bytecode.Opcode, a, b value.Int) (value.Value, error) {
	switch op {
	case bytecode.Add:
		return a + b, nil
	case bytecode.Subtract:
		return a - b, nil
	case bytecode.Multiply:
		return a * b, nil
	case bytecode.Divide:
		if b == 0 {
			return nil, newError(DivideByZero, "integer division by zero")
		}
		return a / b, nil
	case bytecode.Remainder:
		if b == 0 {
			return nil, newError(DivideByZero, "integer remainder by zero")
		}
		return a % b, nil
	case bytecode.GreaterThan:
		return value.Bool(a > b), nil
	case bytecode.GreaterThanOrEqual:
		return value.Bool(a >= b), nil
	case bytecode.LessThan:
		return value.Bool(a < b), nil
	case bytecode.LessThanOrEqual:
		return value.Bool(a <= b), nil
	}
	return nil, newError(UnknownInstruction, "unreachable int arithmetic opcode %s", op)
}

func floatArith(op bytecode.Opcode, a, b value.Float) value.Value {
	switch op {
	case bytecode.Add:
		return a + b
	case bytecode.Subtract:
		return a - b
	case bytecode.Multiply:
		return a * b
	case bytecode.Divide:
		return a / b
	case bytecode.Remainder:
		return value.Float(math.Mod(float64(a), float64(b)))
	case bytecode.GreaterThan:
		return value.Bool(a > b)
	case bytecode.GreaterThanOrEqual:
		return value.Bool(a >= b)
	case bytecode.LessThan:
		return value.Bool(a < b)
	case bytecode.LessThanOrEqual:
		return value.Bool(a <= b)
	}
	panic("vm: unreachable float arithmetic opcode")
}

// primitiveEquality implements the structural half of §4.8's equality rule.
// handled reports whether lhs's kind is one this function fully resolves;
// when false, the caller falls through to the #eq/#neq protocol and then to
// reference equality.
func primitiveEquality(lhs, rhs value.Value) (eq bool, handled bool) {
	switch a := lhs.(type) {
	case value.Null:
		_, ok := rhs.(value.Null)
		return ok, true
	case value.Unit:
		_, ok := rhs.(value.Unit)
		return ok, true
	case value.Bool:
		b, ok := rhs.(value.Bool)
		return ok && a == b, true
	case value.Int:
		b, ok := rhs.(value.Int)
		return ok && a == b, true
	case value.Float:
		b, ok := rhs.(value.Float)
		return ok && a == b, true
	case value.String:
		b, ok := rhs.(value.String)
		return ok && a == b, true
	case value.Symbol:
		b, ok := rhs.(value.Symbol)
		return ok && a == b, true
	}
	return false, false
}

func (t *Thread) execEquality(op bytecode.Opcode) error {
	rhs := t.Stack.Pop()
	lhs := t.Stack.Pop()

	if eq, handled := primitiveEquality(lhs, rhs); handled {
		if op == bytecode.NotEqual {
			eq = !eq
		}
		t.Stack.Push(value.Bool(eq))
		return nil
	}

	name := "#eq"
	if op == bytecode.NotEqual {
		name = "#neq"
	}
	result, found, err := t.tryOperatorProtocol(name, lhs, rhs)
	if err != nil {
		return err
	}
	if found {
		b, ok := value.Truth(result)
		if !ok {
			return newError(TypeAssertionFailure, "%s must return Bool", name)
		}
		t.Stack.Push(value.Bool(b))
		return nil
	}

	eq := referenceEquality(lhs, rhs)
	if op == bytecode.NotEqual {
		eq = !eq
	}
	t.Stack.Push(value.Bool(eq))
	return nil
}

// referenceEquality is the final equality fallback once neither
// primitiveEquality nor the #eq/#neq protocol resolved lhs/rhs: identity for
// every heap kind except FnBound, whose two fields make it comparable by
// value even though bound methods are synthesized fresh on each access.
func referenceEquality(lhs, rhs value.Value) bool {
	lb, ok := lhs.(*value.FnBound)
	if !ok {
		return lhs == rhs
	}
	rb, ok := rhs.(*value.FnBound)
	if !ok {
		return false
	}
	return lb.Receiver == rb.Receiver && lb.Fn == rb.Fn
}

// valueIsClass reports whether v is an instance of class or one of its
// descendants, consulting the value-kind-class map for non-Object values.
func (t *Thread) valueIsClass(v value.Value, class *value.Class) bool {
	if obj, ok := v.(*value.Object); ok {
		return obj.Class().IsClass(class)
	}
	if kindClass, ok := t.valueKindClass[v.Kind()]; ok {
		return kindClass.IsClass(class)
	}
	return false
}

func (t *Thread) execIs() error {
	classVal := t.Stack.Pop()
	v := t.Stack.Pop()
	class, ok := classVal.(*value.Class)
	if !ok {
		return newError(NotAnObject, "right-hand side of is is not a class")
	}
	t.Stack.Push(value.Bool(t.valueIsClass(v, class)))
	return nil
}

func (t *Thread) assertType(v value.Value, class *value.Class, allowNull bool) error {
	if allowNull {
		if _, ok := v.(value.Null); ok {
			return nil
		}
	}
	if !t.valueIsClass(v, class) {
		return newError(TypeAssertionFailure, "value of kind %s is not %s", v.Kind(), class.Name().Text())
	}
	return nil
}

// getField implements §4.8's get_field: Object/Class own fields first, then
// the reserved "new" guard, then method lookup through the receiver's class
// or the value-kind-class map, falling back to Null.
func (t *Thread) getField(name value.Symbol, recv value.Value) (value.Value, error) {
	switch v := recv.(type) {
	case *value.Object:
		if f, ok := v.Field(name); ok {
			return f, nil
		}
	case *value.Class:
		if f, ok := v.StaticField(name); ok {
			return f, nil
		}
	}

	if name.Text() == "new" {
		return nil, newError(NotAFunction, "new cannot be accessed directly")
	}

	class := t.operatorClass(recv)
	if class != nil {
		if m, ok := class.Method(name); ok {
			return &value.FnBound{Receiver: recv, Fn: m}, nil
		}
	}
	return value.TheNull, nil
}

func (t *Thread) setField(name value.Symbol, recv, v value.Value) error {
	switch o := recv.(type) {
	case *value.Object:
		o.SetField(name, v)
		return nil
	case *value.Class:
		o.SetStaticField(name, v)
		return nil
	default:
		return newError(NotAnObject, "cannot set field %q on %s", name.Text(), recv.Kind())
	}
}

func (t *Thread) getIndex(recv, key value.Value) (value.Value, error) {
	arr, ok := recv.(*value.Array)
	if !ok {
		return nil, newError(NotAnObject, "cannot index into %s", recv.Kind())
	}
	i, ok := key.(value.Int)
	if !ok {
		return nil, newError(TypeAssertionFailure, "array index must be Int, got %s", key.Kind())
	}
	v, ok := arr.Get(int(i))
	if !ok {
		return nil, newError(IndexOutOfBounds, "array index %d out of bounds", i)
	}
	return v, nil
}

func (t *Thread) setIndex(recv, key, v value.Value) error {
	arr, ok := recv.(*value.Array)
	if !ok {
		return newError(NotAnObject, "cannot index into %s", recv.Kind())
	}
	i, ok := key.(value.Int)
	if !ok {
		return newError(TypeAssertionFailure, "array index must be Int, got %s", key.Kind())
	}
	if !arr.Set(int(i), v) {
		return newError(IndexOutOfBounds, "array index %d out of bounds", i)
	}
	return nil
}

// loadMethod implements LoadMethod, used exclusively by compiled super
// access/calls: classVal is the statically-known base class to search,
// recv is the runtime receiver the resulting FnBound should carry.
func (t *Thread) loadMethod(name value.Symbol, classVal, recv value.Value) (value.Value, error) {
	class, ok := classVal.(*value.Class)
	if !ok {
		return nil, newError(NotAnObject, "super target is not a class")
	}
	m, ok := class.Method(name)
	if !ok {
		return nil, newError(NotAFunction, "no method %q on %s", name.Text(), class.Name().Text())
	}
	return &value.FnBound{Receiver: recv, Fn: m}, nil
}

// loadModule implements §4.9's cache-or-load sequence, including the
// cyclic-import placeholder object.
func (t *Thread) loadModule(path value.Symbol) (value.Value, error) {
	if v, ok := t.moduleCache[path]; ok {
		return v, nil
	}
	if t.loader == nil {
		return nil, newError(GlobalUndefined, "undefined module: %s (no module loader installed)", path.Text())
	}
	placeholder := value.NewObject(t.moduleClass)
	t.moduleCache[path] = placeholder

	program, err := t.loader.Load(path)
	if err != nil {
		return nil, err
	}
	result, err := t.RunModule(program, placeholder)
	if err != nil {
		return nil, err
	}
	t.moduleCache[path] = result
	return result, nil
}
