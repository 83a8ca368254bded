package compiler

import (
	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/resolver"
	"github.com/dicelang/dice/lang/value"
)

// compileExpr compiles any expression node, leaving exactly one value on
// the stack (§4.6). Access-chain nodes additionally participate in
// null-propagate exit-patch bookkeeping.
func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.FieldAccess, *ast.SafeAccess, *ast.Index, *ast.FnCall, *ast.SuperAccess, *ast.SuperCall, *ast.NullPropagate:
		c.compileChainRoot(e)
	case *ast.LitIdent:
		c.compileIdentLoad(n.Name, n.Span())
	case *ast.LitNull:
		c.cur().asm.Emit(bytecode.PushNull, n.Span())
	case *ast.LitUnit:
		c.cur().asm.Emit(bytecode.PushUnit, n.Span())
	case *ast.LitBool:
		if n.Value {
			c.cur().asm.Emit(bytecode.PushTrue, n.Span())
		} else {
			c.cur().asm.Emit(bytecode.PushFalse, n.Span())
		}
	case *ast.LitInt:
		c.compileIntLiteral(n)
	case *ast.LitFloat:
		c.compileFloatLiteral(n)
	case *ast.LitString:
		k := c.internConstant(n.Span(), n.Value)
		c.cur().asm.EmitU8(bytecode.PushConst, k, n.Span())
	case *ast.LitList:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.cur().asm.EmitU8(bytecode.CreateArray, uint8(len(n.Elements)), n.Span())
	case *ast.LitObject:
		c.compileObjectLiteral(n)
	case *ast.LitAnonymousFn:
		c.compileFunctionLiteral(n, resolver.UnitFunction, "")
	case *ast.Unary:
		c.compileUnary(n)
	case *ast.Binary:
		c.compileBinary(n)
	case *ast.Is:
		c.compileIs(n)
	case *ast.ErrorPropagate:
		c.compileErrorPropagate(n)
	case *ast.Assignment:
		c.compileAssignment(n)
	case *ast.IfExpression:
		c.compileIf(n)
	case *ast.WhileLoop:
		c.compileWhile(n)
	case *ast.ForLoop:
		c.compileForLoop(n)
	case *ast.Loop:
		c.compileLoop(n)
	case *ast.Break:
		c.compileBreak(n)
		c.cur().asm.Emit(bytecode.PushUnit, n.Span())
	case *ast.Continue:
		c.compileContinue(n)
		c.cur().asm.Emit(bytecode.PushUnit, n.Span())
	case *ast.Return:
		c.compileReturn(n)
		c.cur().asm.Emit(bytecode.PushUnit, n.Span())
	case *ast.Block:
		c.compileBlockExpr(n)
	default:
		c.errorf(e.Span(), InvalidAssignmentTarget, "unsupported expression %T", e)
	}
}

func (c *Compiler) compileIntLiteral(n *ast.LitInt) {
	u := c.cur()
	switch n.Value {
	case 0:
		u.asm.Emit(bytecode.PushI0, n.Span())
	case 1:
		u.asm.Emit(bytecode.PushI1, n.Span())
	default:
		k := c.internConstant(n.Span(), n.Value)
		u.asm.EmitU8(bytecode.PushConst, k, n.Span())
	}
}

func (c *Compiler) compileFloatLiteral(n *ast.LitFloat) {
	u := c.cur()
	switch n.Value {
	case 0:
		u.asm.Emit(bytecode.PushF0, n.Span())
	case 1:
		u.asm.Emit(bytecode.PushF1, n.Span())
	default:
		k := c.internConstant(n.Span(), n.Value)
		u.asm.EmitU8(bytecode.PushConst, k, n.Span())
	}
}

func (c *Compiler) compileObjectLiteral(n *ast.LitObject) {
	u := c.cur()
	u.asm.Emit(bytecode.CreateObject, n.Span())
	for _, f := range n.Fields {
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		c.compileExpr(f.Value)
		k := c.internConstant(n.Span(), bytecode.Symbol(f.Name))
		u.asm.EmitU8(bytecode.StoreField, k, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
	}
}

func (c *Compiler) compileUnary(n *ast.Unary) {
	c.compileExpr(n.X)
	u := c.cur()
	switch n.Operator {
	case ast.OpNegate:
		u.asm.Emit(bytecode.Neg, n.Span())
	case ast.OpNot:
		u.asm.Emit(bytecode.Not, n.Span())
	}
}

var binOpcodes = map[ast.BinaryOp]bytecode.Opcode{
	ast.OpMul:            bytecode.Multiply,
	ast.OpDiv:            bytecode.Divide,
	ast.OpRem:            bytecode.Remainder,
	ast.OpAdd:            bytecode.Add,
	ast.OpSub:            bytecode.Subtract,
	ast.OpGt:             bytecode.GreaterThan,
	ast.OpGte:            bytecode.GreaterThanOrEqual,
	ast.OpLt:             bytecode.LessThan,
	ast.OpLte:            bytecode.LessThanOrEqual,
	ast.OpEq:             bytecode.Equal,
	ast.OpNeq:            bytecode.NotEqual,
	ast.OpRangeInclusive: bytecode.RangeInclusive,
	ast.OpRangeExclusive: bytecode.RangeExclusive,
	ast.OpDiceRoll:       bytecode.DiceRoll,
}

func (c *Compiler) compileBinary(n *ast.Binary) {
	u := c.cur()
	switch n.Operator {
	case ast.OpLogicalAnd:
		c.compileExpr(n.X)
		u.asm.Emit(bytecode.AssertBool, n.Span())
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		exit := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
		c.compileExpr(n.Y)
		u.asm.Emit(bytecode.AssertBool, n.Span())
		u.asm.PatchJump(exit)
		return
	case ast.OpLogicalOr:
		c.compileExpr(n.X)
		u.asm.Emit(bytecode.AssertBool, n.Span())
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		exit := u.asm.EmitJump(bytecode.JumpIfTrue, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
		c.compileExpr(n.Y)
		u.asm.Emit(bytecode.AssertBool, n.Span())
		u.asm.PatchJump(exit)
		return
	case ast.OpCoalesce:
		c.compileExpr(n.X)
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		u.asm.Emit(bytecode.PushNull, n.Span())
		u.asm.Emit(bytecode.NotEqual, n.Span())
		exit := u.asm.EmitJump(bytecode.JumpIfTrue, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
		c.compileExpr(n.Y)
		u.asm.PatchJump(exit)
		return
	case ast.OpPipeline:
		// `x |> f` is sugar for `f(x)`.
		call := &ast.FnCall{Span_: n.Span(), Callee: n.Y, Args: []ast.Expr{n.X}}
		c.compileExpr(call)
		return
	}

	c.compileExpr(n.X)
	c.compileExpr(n.Y)
	op, ok := binOpcodes[n.Operator]
	if !ok {
		c.errorf(n.Span(), InvalidOperatorName, "unsupported binary operator")
		return
	}
	u.asm.Emit(op, n.Span())
}

func (c *Compiler) compileIs(n *ast.Is) {
	u := c.cur()
	if !n.Nullable {
		c.compileExpr(n.X)
		c.compileExpr(n.Class)
		u.asm.Emit(bytecode.Is, n.Span())
		return
	}
	// `x is T?` lowers to `(x == null) || (x is T)`.
	c.compileExpr(n.X)
	u.asm.EmitU8(bytecode.Dup, 0, n.Span())
	u.asm.Emit(bytecode.PushNull, n.Span())
	u.asm.Emit(bytecode.Equal, n.Span())
	notNull := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
	u.asm.Emit(bytecode.Pop, n.Span())
	u.asm.Emit(bytecode.PushTrue, n.Span())
	exit := u.asm.EmitJump(bytecode.Jump, n.Span())
	u.asm.PatchJump(notNull)
	c.compileExpr(n.Class)
	u.asm.Emit(bytecode.Is, n.Span())
	u.asm.PatchJump(exit)
}

func (c *Compiler) compileErrorPropagate(n *ast.ErrorPropagate) {
	u := c.cur()
	switch u.Kind {
	case resolver.UnitFunction, resolver.UnitMethod, resolver.UnitConstructor:
	default:
		c.errorf(n.Span(), InvalidErrorPropagate, "error-propagate outside of a function")
		return
	}
	c.compileExpr(n.X)
	u.asm.EmitU8(bytecode.Dup, 0, n.Span())
	isOk := c.internConstant(n.Span(), bytecode.Symbol("is_ok"))
	u.asm.EmitU8(bytecode.LoadField, isOk, n.Span())
	ok := u.asm.EmitJump(bytecode.JumpIfTrue, n.Span())
	u.asm.Emit(bytecode.Return, n.Span())
	u.asm.PatchJump(ok)
	result := c.internConstant(n.Span(), bytecode.Symbol("result"))
	u.asm.EmitU8(bytecode.LoadField, result, n.Span())
}

// compileChainRoot tracks access-chain depth across nested
// call/index/field-access/null-propagate links so a `?` mid-chain patches
// its exit to the instruction following the whole chain, not just its
// immediate link (§4.6's null-propagate exit-chaining rule).
func (c *Compiler) compileChainRoot(e ast.Expr) {
	u := c.cur()
	u.CallDepth++
	c.compileChainLink(e)
	u.CallDepth--
	if u.CallDepth == 0 && len(u.PendingNullExits) > 0 {
		for _, pos := range u.PendingNullExits {
			u.asm.PatchJump(pos)
		}
		u.PendingNullExits = nil
	}
}

func (c *Compiler) compileChainLink(e ast.Expr) {
	u := c.cur()
	switch n := e.(type) {
	case *ast.FieldAccess:
		c.compileExpr(n.Target)
		k := c.internConstant(n.Span(), bytecode.Symbol(n.Name))
		u.asm.EmitU8(bytecode.LoadField, k, n.Span())

	case *ast.SafeAccess:
		c.compileExpr(n.Target)
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		u.asm.Emit(bytecode.PushNull, n.Span())
		u.asm.Emit(bytecode.NotEqual, n.Span())
		exit := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
		u.PendingNullExits = append(u.PendingNullExits, exit)
		k := c.internConstant(n.Span(), bytecode.Symbol(n.Name))
		u.asm.EmitU8(bytecode.LoadField, k, n.Span())

	case *ast.Index:
		c.compileExpr(n.Target)
		c.compileExpr(n.Key)
		u.asm.Emit(bytecode.LoadIndex, n.Span())

	case *ast.FnCall:
		c.compileExpr(n.Callee)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		u.asm.EmitU8(bytecode.Call, uint8(len(n.Args)), n.Span())

	case *ast.SuperAccess:
		c.compileSuperPrelude(n.Span())
		k := c.internConstant(n.Span(), bytecode.Symbol(n.Name))
		u.asm.EmitU8(bytecode.LoadMethod, k, n.Span())

	case *ast.SuperCall:
		// bare `super(...)` invokes the base constructor, i.e. super.new(...).
		c.compileSuperPrelude(n.Span())
		k := c.internConstant(n.Span(), bytecode.Symbol("new"))
		u.asm.EmitU8(bytecode.LoadMethod, k, n.Span())
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		u.asm.EmitU8(bytecode.CallSuper, uint8(len(n.Args)), n.Span())

	case *ast.NullPropagate:
		c.compileExpr(n.X)
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		u.asm.Emit(bytecode.PushNull, n.Span())
		u.asm.Emit(bytecode.NotEqual, n.Span())
		exit := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
		u.PendingNullExits = append(u.PendingNullExits, exit)

	default:
		c.compileExpr(e)
	}
}

func (c *Compiler) compileSuperPrelude(span ast.Span) {
	u := c.cur()
	switch u.Kind {
	case resolver.UnitMethod, resolver.UnitConstructor:
	default:
		c.errorf(span, InvalidAssignmentTarget, "super is only valid inside a method or constructor")
		return
	}
	if !u.hasSuper {
		c.errorf(span, InvalidAssignmentTarget, "super used in a class with no base")
		return
	}
	u.asm.EmitU8(bytecode.LoadLocal, uint8(u.superSlot), span)
	u.asm.EmitU8(bytecode.LoadLocal, uint8(u.selfSlot), span)
}

// compileFunctionLiteral compiles fn into a fresh compiler unit, then emits
// either PushConst (no captures) or CreateClosure (with its trailing
// upvalue-descriptor pairs) into the enclosing unit (§4.6).
func (c *Compiler) compileFunctionLiteral(fn *ast.LitAnonymousFn, kind resolver.UnitKind, declName string) {
	c.pushUnit(kind, declName)
	nested := c.cur()
	if kind != resolver.UnitConstructor {
		nested.returnType = fn.ReturnType
	}

	params := fn.Params
	if fn.HasSelf && len(params) > 0 {
		if params[0].Type != nil {
			c.errorf(fn.Span(), SelfParameterHasType, "self parameter must not have a type annotation")
		}
		nested.RenameLocal(nested.selfSlot, params[0].Name)
		params = params[1:]
	}
	for _, p := range params {
		slot := nested.AddLocal(p.Name, resolver.LocalVar, true)
		if p.Type != nil {
			c.compileExpr(p.Type)
			nested.asm.EmitU8(bytecode.AssertTypeForLocal, uint8(slot), fn.Span())
		}
	}

	c.compileStatementsOnly(fn.Body)
	switch kind {
	case resolver.UnitConstructor:
		nested.asm.Emit(bytecode.Pop, fn.Span())
		nested.asm.EmitU8(bytecode.LoadLocal, uint8(nested.selfSlot), fn.Span())
		nested.asm.Emit(bytecode.Return, fn.Span())
	default:
		c.emitReturn(fn.Span())
	}
	nested.PopScope()

	upvalues := nested.Upvalues()
	program := nested.asm.Finish(funcName(declName, fn), nested.SlotCount(), len(upvalues))
	c.units = c.units[:len(c.units)-1] // pop without re-touching nested's assembler

	enclosing := c.cur()
	script := &value.FnScript{Name: funcName(declName, fn), Arity: paramArity(fn), Program: program}
	if len(upvalues) == 0 {
		k := c.internConstant(fn.Span(), script)
		enclosing.asm.EmitU8(bytecode.PushConst, k, fn.Span())
		return
	}
	k := c.internConstant(fn.Span(), script)
	enclosing.asm.EmitU8(bytecode.CreateClosure, k, fn.Span())
	for _, uv := range upvalues {
		if uv.IsParentLocal {
			enclosing.asm.EmitRawU8(1)
		} else {
			enclosing.asm.EmitRawU8(0)
		}
		enclosing.asm.EmitRawU8(uv.Index)
	}
}

func funcName(declName string, fn *ast.LitAnonymousFn) string {
	if declName != "" {
		return declName
	}
	return ""
}

func paramArity(fn *ast.LitAnonymousFn) int {
	n := len(fn.Params)
	if fn.HasSelf && n > 0 {
		n--
	}
	return n
}
