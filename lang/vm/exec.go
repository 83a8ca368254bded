package vm

import (
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/stack"
	"github.com/dicelang/dice/lang/upvalue"
	"github.com/dicelang/dice/lang/value"
)

// exec runs program's bytecode against the given base frame (already
// reserved by the caller) and optional parent-upvalue array (non-nil only
// for closure bodies), per §4.8. It returns the single result value left on
// top of the stack when a Return-family opcode breaks the loop, after
// popping it and releasing frame.
func (t *Thread) exec(program *bytecode.Program, frame stack.Frame, parentUpvalues []*upvalue.Upvalue) (result value.Value, err error) {
	cur := bytecode.NewCursor(program.Data)
	defer func() {
		if re, ok := err.(*RuntimeError); ok && !re.HasSpan {
			re.Span, re.HasSpan = program.SpanAt(cur.LastInstructionOffset())
		}
	}()

	for {
		insn, ok := cur.ReadInstruction()
		if !ok {
			break
		}

		switch insn.Op {
		case bytecode.PushNull:
			t.Stack.Push(value.TheNull)
		case bytecode.PushUnit:
			t.Stack.Push(value.TheUnit)
		case bytecode.PushFalse:
			t.Stack.Push(value.Bool(false))
		case bytecode.PushTrue:
			t.Stack.Push(value.Bool(true))
		case bytecode.PushI0:
			t.Stack.Push(value.Int(0))
		case bytecode.PushI1:
			t.Stack.Push(value.Int(1))
		case bytecode.PushF0:
			t.Stack.Push(value.Float(0))
		case bytecode.PushF1:
			t.Stack.Push(value.Float(1))

		case bytecode.PushConst:
			t.Stack.Push(t.constantValue(program, insn.Arg))

		case bytecode.Pop:
			t.Stack.Pop()
		case bytecode.Dup:
			t.Stack.Push(t.Stack.Peek(int(insn.Arg)))
		case bytecode.Swap:
			t.Stack.Swap()

		case bytecode.CreateArray:
			elems := t.Stack.PopCount(int(insn.Arg))
			t.Stack.Push(value.NewArray(elems))
		case bytecode.CreateObject:
			t.Stack.Push(value.NewObject(t.objectClass))

		case bytecode.CreateClass:
			name := t.symbolConstant(program, insn.Arg)
			t.Stack.Push(value.NewClass(name))
		case bytecode.InheritClass:
			name := t.symbolConstant(program, insn.Arg)
			base, ok := t.Stack.Pop().(*value.Class)
			if !ok {
				return nil, newError(NotAFunction, "base expression is not a class")
			}
			t.Stack.Push(value.NewDerivedClass(name, base))

		case bytecode.CreateClosure:
			closure, err := t.createClosure(program, cur, frame, parentUpvalues, insn.Arg)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(closure)

		case bytecode.LoadLocal:
			t.Stack.Push(t.Stack.AbsGet(frame.Start + int(insn.Arg)))
		case bytecode.StoreLocal:
			v := t.Stack.Peek(0)
			t.Stack.AbsSet(frame.Start+int(insn.Arg), v)
		case bytecode.AssignLocal:
			v := t.Stack.Pop()
			t.Stack.AbsSet(frame.Start+int(insn.Arg), v)
			t.Stack.Push(value.TheUnit)

		case bytecode.LoadUpvalue:
			t.Stack.Push(parentUpvalues[insn.Arg].Get(t.Stack).(value.Value))
		case bytecode.StoreUpvalue:
			v := t.Stack.Peek(0)
			parentUpvalues[insn.Arg].Set(t.Stack, v)
		case bytecode.AssignUpvalue:
			v := t.Stack.Pop()
			parentUpvalues[insn.Arg].Set(t.Stack, v)
			t.Stack.Push(value.TheUnit)
		case bytecode.CloseUpvalue:
			t.closeUpvalueAt(frame.Start + int(insn.Arg))

		case bytecode.LoadGlobal:
			name := t.symbolConstant(program, insn.Arg)
			v, err := t.lookupGlobal(name)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(v)
		case bytecode.StoreGlobal:
			name := t.symbolConstant(program, insn.Arg)
			v := t.Stack.Pop()
			if err := t.DefineGlobal(name, v); err != nil {
				return nil, err
			}

		case bytecode.LoadField:
			name := t.symbolConstant(program, insn.Arg)
			recv := t.Stack.Pop()
			v, err := t.getField(name, recv)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(v)
		case bytecode.StoreField:
			name := t.symbolConstant(program, insn.Arg)
			v := t.Stack.Pop()
			recv := t.Stack.Pop()
			if err := t.setField(name, recv, v); err != nil {
				return nil, err
			}
			t.Stack.Push(v)
		case bytecode.AssignField:
			v := t.Stack.Pop()
			recv := t.Stack.Pop()
			name := t.symbolConstant(program, insn.Arg)
			if err := t.setField(name, recv, v); err != nil {
				return nil, err
			}
			t.Stack.Push(value.TheUnit)

		case bytecode.LoadIndex:
			key := t.Stack.Pop()
			recv := t.Stack.Pop()
			v, err := t.getIndex(recv, key)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(v)
		case bytecode.StoreIndex:
			v := t.Stack.Pop()
			key := t.Stack.Pop()
			recv := t.Stack.Pop()
			if err := t.setIndex(recv, key, v); err != nil {
				return nil, err
			}
			t.Stack.Push(v)
		case bytecode.AssignIndex:
			v := t.Stack.Pop()
			key := t.Stack.Pop()
			recv := t.Stack.Pop()
			if err := t.setIndex(recv, key, v); err != nil {
				return nil, err
			}
			t.Stack.Push(value.TheUnit)

		case bytecode.LoadMethod:
			name := t.symbolConstant(program, insn.Arg)
			recv := t.Stack.Pop()
			class := t.Stack.Pop()
			bound, err := t.loadMethod(name, class, recv)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(bound)
		case bytecode.StoreMethod:
			name := t.symbolConstant(program, insn.Arg)
			method := t.Stack.Pop()
			class, ok := t.Stack.Pop().(*value.Class)
			if !ok {
				return nil, newError(NotAFunction, "store_method target is not a class")
			}
			class.SetMethod(name, method)

		case bytecode.LoadFieldToLocal:
			name := t.symbolConstant(program, insn.Arg)
			recv := t.Stack.Pop()
			v, err := t.getField(name, recv)
			if err != nil {
				return nil, err
			}
			t.Stack.AbsSet(frame.Start+int(insn.Arg2), v)
			t.Stack.Push(v)

		case bytecode.LoadModule:
			path := t.symbolConstant(program, insn.Arg)
			v, err := t.loadModule(path)
			if err != nil {
				return nil, err
			}
			t.Stack.Push(v)

		case bytecode.Jump:
			cur.OffsetPosition(insn.Offset)
		case bytecode.JumpIfFalse:
			cond := t.Stack.Pop()
			b, _ := value.Truth(cond)
			if !b {
				cur.OffsetPosition(insn.Offset)
			}
		case bytecode.JumpIfTrue:
			cond := t.Stack.Pop()
			b, _ := value.Truth(cond)
			if b {
				cur.OffsetPosition(insn.Offset)
			}

		case bytecode.Call:
			result, err := t.dispatchCall(int(insn.Arg))
			if err != nil {
				return nil, err
			}
			t.Stack.Push(result)
		case bytecode.CallSuper:
			result, err := t.dispatchCall(int(insn.Arg))
			if err != nil {
				return nil, err
			}
			t.Stack.Push(result)

		case bytecode.Return:
			return t.finishFrame(frame)

		case bytecode.Neg, bytecode.Not:
			if err := t.execUnary(insn.Op); err != nil {
				return nil, err
			}
		case bytecode.DieRoll:
			if err := t.execDieRoll(); err != nil {
				return nil, err
			}

		case bytecode.Multiply, bytecode.Divide, bytecode.Remainder, bytecode.Add, bytecode.Subtract,
			bytecode.GreaterThan, bytecode.GreaterThanOrEqual, bytecode.LessThan, bytecode.LessThanOrEqual,
			bytecode.RangeInclusive, bytecode.RangeExclusive, bytecode.DiceRoll:
			if err := t.execBinary(insn.Op); err != nil {
				return nil, err
			}
		case bytecode.Equal, bytecode.NotEqual:
			if err := t.execEquality(insn.Op); err != nil {
				return nil, err
			}
		case bytecode.Is:
			if err := t.execIs(); err != nil {
				return nil, err
			}

		case bytecode.AssertBool:
			v := t.Stack.Peek(0)
			if _, ok := v.(value.Bool); !ok {
				return nil, newError(TypeAssertionFailure, "expected Bool, got %s", v.Kind())
			}

		case bytecode.AssertTypeForLocal, bytecode.AssertTypeOrNullForLocal:
			class, ok := t.Stack.Pop().(*value.Class)
			if !ok {
				return nil, newError(TypeAssertionFailure, "assertion class is not a Class")
			}
			v := t.Stack.AbsGet(frame.Start + int(insn.Arg))
			if err := t.assertType(v, class, insn.Op == bytecode.AssertTypeOrNullForLocal); err != nil {
				return nil, err
			}

		case bytecode.AssertTypeAndReturn, bytecode.AssertTypeOrNullAndReturn:
			class, ok := t.Stack.Pop().(*value.Class)
			if !ok {
				return nil, newError(TypeAssertionFailure, "assertion class is not a Class")
			}
			v := t.Stack.Peek(0)
			if err := t.assertType(v, class, insn.Op == bytecode.AssertTypeOrNullAndReturn); err != nil {
				return nil, err
			}
			return t.finishFrame(frame)

		default:
			return nil, newError(UnknownInstruction, "unknown opcode %d at offset %d", insn.Op, cur.LastInstructionOffset())
		}
	}

	return t.finishFrame(frame)
}

// finishFrame pops the single result value left on top of the stack,
// releases frame and returns the result, implementing the "stack pointer
// ends exactly one higher than it started" debug invariant of §4.8/§8.
func (t *Thread) finishFrame(frame stack.Frame) (value.Value, error) {
	result := t.Stack.Pop()
	t.Stack.ReleaseFrame(frame)
	return result, nil
}

func (t *Thread) constantValue(program *bytecode.Program, k uint8) value.Value {
	switch c := program.Constants[k].(type) {
	case int64:
		return value.Int(c)
	case float64:
		return value.Float(c)
	case string:
		return value.String(c)
	case bytecode.Symbol:
		return t.Interner.Intern(string(c))
	case *value.FnScript:
		return c
	default:
		panic("vm: unrecognized constant pool entry type")
	}
}

func (t *Thread) symbolConstant(program *bytecode.Program, k uint8) value.Symbol {
	sym, ok := program.Constants[k].(bytecode.Symbol)
	if !ok {
		panic("vm: expected Symbol constant")
	}
	return t.Interner.Intern(string(sym))
}

// createClosure reads the trailing (is_parent_local, index) descriptor
// pairs directly off the cursor -- their count is the target FnScript's
// UpvalueCount, not encoded in the instruction itself (§6.2's CreateClosure
// note; §4.1 places this decode responsibility on the reader that already
// knows the referenced program, i.e. the VM, not the byte-level Cursor).
func (t *Thread) createClosure(program *bytecode.Program, cur *bytecode.Cursor, frame stack.Frame, parentUpvalues []*upvalue.Upvalue, k uint8) (*value.FnClosure, error) {
	script, ok := program.Constants[k].(*value.FnScript)
	if !ok {
		return nil, newError(NotAFunction, "create_closure target is not a FnScript")
	}
	count := script.Program.UpvalueCount
	ups := make([]*upvalue.Upvalue, count)
	for i := 0; i < count; i++ {
		isParentLocal := cur.ReadU8()
		index := cur.ReadU8()
		if isParentLocal == 1 {
			ups[i] = t.openUpvalueFor(frame.Start + int(index))
		} else {
			ups[i] = parentUpvalues[index]
		}
	}
	return &value.FnClosure{Script: script, Upvalues: ups}, nil
}
