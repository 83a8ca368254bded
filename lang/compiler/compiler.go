// Package compiler implements the tree-walking compiler (§4.6): it visits a
// resolved-free syntax tree (name resolution happens inline, unlike the
// teacher's separate resolver pass, since this language has no labels,
// predeclared/universal tiers or defer/catch scope frontiers to justify a
// standalone pass) and emits bytecode through lang/assembler, tracking
// per-function scope state through lang/resolver.Unit.
package compiler

import (
	"fmt"

	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/resolver"
)

// Compiler holds the state for compiling one top-level chunk (a script or a
// module) into a tree of Programs: the outermost Program plus one nested
// *value.FnScript per function/method/constructor literal, reachable
// through the constant pool.
type Compiler struct {
	units []*unitState
	errs  CompileErrors
}

// New returns an empty Compiler.
func New() *Compiler { return &Compiler{} }

// CompileScript compiles body as a top-level script (no `export`, no
// implicit `#export` slot).
func CompileScript(name string, body *ast.Block) (*bytecode.Program, error) {
	c := New()
	c.pushUnit(resolver.UnitScript, name)
	c.compileScriptOrModuleBody(body)
	u := c.popUnit()
	if err := c.errs.Err(); err != nil {
		return nil, err
	}
	return u.asm.Finish(name, u.SlotCount(), 0), nil
}

// CompileModule compiles body as a module per §4.9: slot 0 is reserved for
// `#export`, and the body's final return value is replaced with the export
// object. The export object itself is not created here: the caller installs
// it in slot 0 before running the Program (vm.Thread.RunModule).
func CompileModule(name string, body *ast.Block) (*bytecode.Program, error) {
	c := New()
	c.pushUnit(resolver.UnitModule, name)
	u := c.cur()
	// pushUnit already reserved slot 0 as the calling-convention slot;
	// a module repurposes that same slot as its `#export` local (§4.9).
	exportSlot := u.selfSlot
	u.RenameLocal(exportSlot, "#export")

	c.compileStatementsOnly(body)

	u.asm.Emit(bytecode.Pop, body.Span())
	u.asm.EmitU8(bytecode.LoadLocal, uint8(exportSlot), body.Span())
	u.asm.Emit(bytecode.Return, body.Span())
	u.PopScope()

	c.popUnit()
	if err := c.errs.Err(); err != nil {
		return nil, err
	}
	return u.asm.Finish(name, u.SlotCount(), 0), nil
}

func (c *Compiler) cur() *unitState { return c.units[len(c.units)-1] }

func (c *Compiler) pushUnit(kind resolver.UnitKind, name string) *unitState {
	u := newUnitState(kind, name)
	c.units = append(c.units, u)
	u.PushScope(resolver.FrameBlock)
	u.selfSlot = u.AddLocal("", resolver.LocalVar, false) // calling-convention slot 0
	return u
}

func (c *Compiler) popUnit() *unitState {
	n := len(c.units)
	u := c.units[n-1]
	c.units = c.units[:n-1]
	return u
}

func (c *Compiler) errorf(span ast.Span, code ErrorCode, format string, args ...any) {
	c.errs = append(c.errs, &CompileError{Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// internConstant interns v in the current unit's constant pool, surfacing
// TooManyConstants as a compile error.
func (c *Compiler) internConstant(span ast.Span, v any) uint8 {
	idx, err := c.cur().asm.InternConstant(v)
	if err != nil {
		c.errorf(span, TooManyConstants, "%s", err)
		return 0
	}
	return idx
}

// compileScriptOrModuleBody compiles a top-level block whose trailing value
// (if any) becomes the script's result, ending with Return.
func (c *Compiler) compileScriptOrModuleBody(b *ast.Block) {
	c.compileStatementsOnly(b)
	u := c.cur()
	u.asm.Emit(bytecode.Return, b.Span())
}

// compileStatementsOnly runs the pre-pass plus every statement of b,
// leaving the trailing expression's value (or Unit) on top of the stack,
// without popping scope or emitting Return -- the caller decides how the
// unit's body ends.
func (c *Compiler) compileStatementsOnly(b *ast.Block) {
	c.prePassDeclare(b)
	for _, s := range b.Statements {
		c.compileStmt(s)
	}
	if b.Trailing != nil {
		c.compileExpr(b.Trailing)
	} else {
		c.cur().asm.Emit(bytecode.PushUnit, b.Span())
	}
}

// prePassDeclare scans b's direct statement children for FnDecl, ClassDecl
// and ExportDecl wrapping those, reserving uninitialized locals so peer
// declarations can reference each other regardless of order (§4.6).
func (c *Compiler) prePassDeclare(b *ast.Block) {
	u := c.cur()
	declared := map[string]bool{}
	declareOnce := func(name string, state resolver.LocalState, span ast.Span) {
		if declared[name] {
			c.errorf(span, ItemAlreadyDeclared, "already declared in this block: %s", name)
			return
		}
		declared[name] = true
		u.AddLocal(name, state, false)
	}
	for _, s := range b.Statements {
		switch n := s.(type) {
		case *ast.FnDecl:
			declareOnce(n.Name, resolver.FunctionDecl, n.Span())
		case *ast.ClassDecl:
			declareOnce(n.Name, resolver.ClassDecl, n.Span())
		case *ast.ExportDecl:
			switch inner := n.Decl.(type) {
			case *ast.FnDecl:
				declareOnce(inner.Name, resolver.FunctionDecl, inner.Span())
			case *ast.ClassDecl:
				declareOnce(inner.Name, resolver.ClassDecl, inner.Span())
			}
		}
	}
}

// compileStmt compiles one statement, leaving its expression value (if it
// is an ExprStmt) on the stack and then discarding it with a Pop emitted
// here. Declaration-shaped statements consume nothing net beyond what the
// spec assigns them.
func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		c.compileExpr(n.X)
		c.cur().asm.Emit(bytecode.Pop, n.Span())

	case *ast.VarDecl:
		c.compileVarDecl(n)

	case *ast.FnDecl:
		c.compileFnDecl(n)

	case *ast.ClassDecl:
		c.compileClassDecl(n)

	case *ast.OpDecl:
		c.compileOpDecl(n)

	case *ast.ExportDecl:
		c.compileExportDecl(n)

	case *ast.ImportDecl:
		c.compileImportDecl(n)

	default:
		c.errorf(s.Span(), InvalidAssignmentTarget, "unsupported statement %T", s)
	}
}

// findLocalSlot resolves name as a local declared earlier by the pre-pass
// or by a prior statement in an enclosing live frame of the current unit.
func (c *Compiler) findLocalSlot(name string) (*resolver.Local, bool) {
	l := c.cur().LookupLocal(name)
	return l, l != nil
}

// resolveUpvalueChain walks the unit stack to resolve name as an upvalue of
// the current (innermost) unit via lang/resolver's cross-unit algorithm.
func (c *Compiler) resolveUpvalueChain(name string) (uint8, bool) {
	plain := make([]*resolver.Unit, len(c.units))
	for i, u := range c.units {
		plain[i] = u.Unit
	}
	idx, ok, err := resolver.ResolveUpvalue(plain, name)
	if err != nil {
		c.errorf(ast.Span{}, TooManyUpvalues, "%s", err)
		return 0, false
	}
	return idx, ok
}

// compileIdentLoad resolves name (local -> upvalue -> global) and emits the
// matching load instruction.
func (c *Compiler) compileIdentLoad(name string, span ast.Span) {
	u := c.cur()
	if local, ok := c.findLocalSlot(name); ok {
		u.asm.EmitU8(bytecode.LoadLocal, uint8(local.Slot), span)
		return
	}
	if idx, ok := c.resolveUpvalueChain(name); ok {
		u.asm.EmitU8(bytecode.LoadUpvalue, idx, span)
		return
	}
	k := c.internConstant(span, bytecode.Symbol(name))
	u.asm.EmitU8(bytecode.LoadGlobal, k, span)
}

// compileVarDecl compiles a `let`/`const` declaration, single or
// destructured (§4.6).
func (c *Compiler) compileVarDecl(n *ast.VarDecl) {
	u := c.cur()
	c.compileExpr(n.Expr)

	switch n.Kind {
	case ast.Singular:
		slot := u.AddLocal(n.Name, resolver.LocalVar, n.IsMutable)
		u.asm.EmitU8(bytecode.StoreLocal, uint8(slot), n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())

	case ast.Destructured:
		for _, field := range n.Fields {
			u.asm.EmitU8(bytecode.Dup, 0, n.Span())
			k := c.internConstant(n.Span(), bytecode.Symbol(field))
			u.asm.EmitU8(bytecode.LoadField, k, n.Span())
			slot := u.AddLocal(field, resolver.LocalVar, n.IsMutable)
			u.asm.EmitU8(bytecode.StoreLocal, uint8(slot), n.Span())
			u.asm.Emit(bytecode.Pop, n.Span())
		}
		u.asm.Emit(bytecode.Pop, n.Span())
	}
}

// compileFnDecl compiles a named function declaration, storing it into the
// slot the pre-pass already reserved.
func (c *Compiler) compileFnDecl(n *ast.FnDecl) {
	u := c.cur()
	local := u.LookupLocal(n.Name)
	c.compileFunctionLiteral(n.Fn, resolver.UnitFunction, n.Name)
	u.asm.EmitU8(bytecode.StoreLocal, uint8(local.Slot), n.Span())
	u.asm.Emit(bytecode.Pop, n.Span())
	local.IsInitialized = true
}

// compileOpDecl compiles a free-standing operator-protocol fallback
// function, bound as a global so the VM's operator dispatch (§4.8) can find
// it by name when no class method matches.
func (c *Compiler) compileOpDecl(n *ast.OpDecl) {
	if !n.Fn.HasSelf && len(n.Fn.Params) < 2 {
		c.errorf(n.Span(), InvalidOperatorName, "operator function %s needs at least two parameters", n.Name)
	}
	u := c.cur()
	c.compileFunctionLiteral(n.Fn, resolver.UnitFunction, n.Name)
	k := c.internConstant(n.Span(), bytecode.Symbol(n.Name))
	u.asm.EmitU8(bytecode.StoreGlobal, k, n.Span())
}

func (c *Compiler) compileIf(n *ast.IfExpression) {
	u := c.cur()
	c.compileExpr(n.Cond)
	j1 := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
	c.compileBlockExpr(n.Primary)
	j2 := u.asm.EmitJump(bytecode.Jump, n.Span())
	u.asm.PatchJump(j1)
	if n.Secondary != nil {
		c.compileBlockExpr(n.Secondary)
	} else {
		u.asm.Emit(bytecode.PushUnit, n.Span())
	}
	u.asm.PatchJump(j2)
}

func (c *Compiler) compileWhile(n *ast.WhileLoop) {
	u := c.cur()
	loopEntry := u.asm.CurrentPosition()
	frame := u.PushScope(resolver.FrameLoop)
	frame.SetLoopEntry(loopEntry)

	c.compileExpr(n.Cond)
	exit := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())
	c.compileLoopBody(n.Body)
	u.asm.EmitBackwardJump(bytecode.Jump, loopEntry, n.Span())
	u.asm.PatchJump(exit)

	popped := u.PopScope()
	for _, pos := range popped.LoopExitPatches {
		u.asm.PatchJump(pos)
	}
	u.asm.Emit(bytecode.PushUnit, n.Span())
}

func (c *Compiler) compileLoop(n *ast.Loop) {
	u := c.cur()
	loopEntry := u.asm.CurrentPosition()
	frame := u.PushScope(resolver.FrameLoop)
	frame.SetLoopEntry(loopEntry)

	c.compileLoopBody(n.Body)
	u.asm.EmitBackwardJump(bytecode.Jump, loopEntry, n.Span())

	popped := u.PopScope()
	for _, pos := range popped.LoopExitPatches {
		u.asm.PatchJump(pos)
	}
	u.asm.Emit(bytecode.PushUnit, n.Span())
}

// compileLoopBody compiles a loop body block, popping its trailing
// expression value (the loop body's value is discarded each iteration).
func (c *Compiler) compileLoopBody(b *ast.Block) {
	c.compileBlockExpr(b)
	c.cur().asm.Emit(bytecode.Pop, b.Span())
}

func (c *Compiler) compileForLoop(n *ast.ForLoop) {
	u := c.cur()
	c.compileExpr(n.End)
	c.compileExpr(n.Start)

	frame := u.PushScope(resolver.FrameLoop)
	varSlot := u.AddLocal(n.Var, resolver.LocalVar, true)
	u.asm.EmitU8(bytecode.StoreLocal, uint8(varSlot), n.Span())
	u.asm.Emit(bytecode.Pop, n.Span())

	loopEntry := u.asm.CurrentPosition()
	frame.SetLoopEntry(loopEntry)
	u.asm.EmitU8(bytecode.LoadLocal, uint8(varSlot), n.Span())
	u.asm.EmitU8(bytecode.Dup, 1, n.Span())
	if n.Exclusive {
		u.asm.Emit(bytecode.LessThan, n.Span())
	} else {
		u.asm.Emit(bytecode.LessThanOrEqual, n.Span())
	}
	exit := u.asm.EmitJump(bytecode.JumpIfFalse, n.Span())

	c.compileBlockExpr(n.Body)
	u.asm.Emit(bytecode.Pop, n.Span())

	u.asm.EmitU8(bytecode.LoadLocal, uint8(varSlot), n.Span())
	u.asm.Emit(bytecode.PushI1, n.Span())
	u.asm.Emit(bytecode.Add, n.Span())
	u.asm.EmitU8(bytecode.AssignLocal, uint8(varSlot), n.Span())
	u.asm.Emit(bytecode.Pop, n.Span())

	c.closeCapturedUpvalues(frame, n.Span())
	u.asm.EmitBackwardJump(bytecode.Jump, loopEntry, n.Span())
	u.asm.PatchJump(exit)

	popped := u.PopScope()
	for _, pos := range popped.LoopExitPatches {
		u.asm.PatchJump(pos)
	}
	u.asm.Emit(bytecode.Pop, n.Span()) // discard end bound
	u.asm.Emit(bytecode.PushUnit, n.Span())
}

func (c *Compiler) compileBreak(n *ast.Break) {
	u := c.cur()
	if !u.InLoopContext() {
		c.errorf(n.Span(), InvalidBreak, "break outside of a loop")
		return
	}
	pos := u.asm.EmitJump(bytecode.Jump, n.Span())
	u.AddLoopExit(pos)
}

func (c *Compiler) compileContinue(n *ast.Continue) {
	u := c.cur()
	if !u.InLoopContext() {
		c.errorf(n.Span(), InvalidContinue, "continue outside of a loop")
		return
	}
	u.asm.EmitBackwardJump(bytecode.Jump, u.CurrentLoopEntry(), n.Span())
}

func (c *Compiler) compileReturn(n *ast.Return) {
	u := c.cur()
	switch u.Kind {
	case resolver.UnitFunction, resolver.UnitMethod, resolver.UnitConstructor:
	default:
		c.errorf(n.Span(), InvalidReturn, "return outside of a function")
		return
	}

	if n.X == nil {
		if u.Kind == resolver.UnitConstructor {
			u.asm.EmitU8(bytecode.LoadLocal, uint8(u.selfSlot), n.Span())
		} else {
			u.asm.Emit(bytecode.PushUnit, n.Span())
		}
	} else {
		c.compileExpr(n.X)
	}

	for range u.PendingNullExits {
		u.asm.Emit(bytecode.Swap, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
	}
	c.emitReturn(n.Span())
}

// emitReturn emits the unit's exit instruction: a plain Return, or, when the
// enclosing function/method declared a return type, the type expression
// followed by AssertTypeAndReturn (§6.2).
func (c *Compiler) emitReturn(span ast.Span) {
	u := c.cur()
	if u.returnType == nil {
		u.asm.Emit(bytecode.Return, span)
		return
	}
	c.compileExpr(u.returnType)
	u.asm.Emit(bytecode.AssertTypeAndReturn, span)
}

// closeCapturedUpvalues emits CloseUpvalue for every local in frame marked
// IsCaptured, per §4.6's "closing upvalues at scope end".
func (c *Compiler) closeCapturedUpvalues(frame *resolver.Frame, span ast.Span) {
	u := c.cur()
	for _, local := range frame.Locals {
		if local.IsCaptured {
			u.asm.EmitU8(bytecode.CloseUpvalue, uint8(local.Slot), span)
		}
	}
}

// compileBlockExpr compiles a nested Block as an expression: push a Block
// scope, run statements, close captured upvalues, pop scope. The value left
// on the stack is the block's trailing value (or Unit).
func (c *Compiler) compileBlockExpr(b *ast.Block) {
	u := c.cur()
	frame := u.PushScope(resolver.FrameBlock)
	c.compileStatementsOnly(b)
	c.closeCapturedUpvalues(frame, b.Span())
	u.PopScope()
}
