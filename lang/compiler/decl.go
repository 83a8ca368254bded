package compiler

import (
	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/resolver"
	"github.com/dicelang/dice/lang/value"
)

// compileAssignment compiles `=`, `*=`, `/=`, `+=`, `-=` against an
// identifier, field or index target (§4.6).
func (c *Compiler) compileAssignment(n *ast.Assignment) {
	switch target := n.Target.(type) {
	case *ast.LitIdent:
		c.compileIdentAssign(n, target)
	case *ast.FieldAccess:
		c.compileFieldAssign(n, target)
	case *ast.Index:
		c.compileIndexAssign(n, target)
	default:
		c.errorf(n.Span(), InvalidAssignmentTarget, "invalid assignment target %T", n.Target)
	}
}

func compoundOp(op ast.AssignOp) (bytecode.Opcode, bool) {
	switch op {
	case ast.MulAssign:
		return bytecode.Multiply, true
	case ast.DivAssign:
		return bytecode.Divide, true
	case ast.AddAssign:
		return bytecode.Add, true
	case ast.SubAssign:
		return bytecode.Subtract, true
	default:
		return 0, false
	}
}

// Assignment targets always compile through the Store* opcode family, never
// Assign*: Store* leaves the assigned value on top (obj/key/name-consuming
// variants aside), which is what lets assignment nest as an expression
// (`let x = y = 1` binds 1 into x, per §4.8's Load/Store/Assign note).
// Statement-position assignment (the common case, `x = 1;`) relies on the
// enclosing ExprStmt's trailing Pop to discard that value — there is no
// separate lowering for the two contexts.
func (c *Compiler) compileIdentAssign(n *ast.Assignment, target *ast.LitIdent) {
	u := c.cur()

	if local, ok := c.findLocalSlot(target.Name); ok {
		if !local.IsMutable {
			c.errorf(n.Span(), ImmutableVariable, "cannot assign to immutable variable %s", target.Name)
		}
		if op, isCompound := compoundOp(n.Operator); isCompound {
			u.asm.EmitU8(bytecode.LoadLocal, uint8(local.Slot), n.Span())
			c.compileExpr(n.Value)
			u.asm.Emit(op, n.Span())
		} else {
			c.compileExpr(n.Value)
		}
		u.asm.EmitU8(bytecode.StoreLocal, uint8(local.Slot), n.Span())
		return
	}

	if idx, ok := c.resolveUpvalueChain(target.Name); ok {
		if op, isCompound := compoundOp(n.Operator); isCompound {
			u.asm.EmitU8(bytecode.LoadUpvalue, idx, n.Span())
			c.compileExpr(n.Value)
			u.asm.Emit(op, n.Span())
		} else {
			c.compileExpr(n.Value)
		}
		u.asm.EmitU8(bytecode.StoreUpvalue, idx, n.Span())
		return
	}

	// Unresolved identifier: assignment to a global. There is no AssignGlobal
	// or value-preserving StoreGlobal variant, since globals are a write-once
	// map (§5) and StoreGlobal's stack effect is "v → (none)"; Dup the value
	// before the store so the assignment expression still yields it.
	k := c.internConstant(n.Span(), bytecode.Symbol(target.Name))
	if op, isCompound := compoundOp(n.Operator); isCompound {
		u.asm.EmitU8(bytecode.LoadGlobal, k, n.Span())
		c.compileExpr(n.Value)
		u.asm.Emit(op, n.Span())
	} else {
		c.compileExpr(n.Value)
	}
	u.asm.EmitU8(bytecode.Dup, 0, n.Span())
	u.asm.EmitU8(bytecode.StoreGlobal, k, n.Span())
}

func (c *Compiler) compileFieldAssign(n *ast.Assignment, target *ast.FieldAccess) {
	u := c.cur()
	c.compileExpr(target.Target)
	k := c.internConstant(n.Span(), bytecode.Symbol(target.Name))

	if op, isCompound := compoundOp(n.Operator); isCompound {
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		u.asm.EmitU8(bytecode.LoadField, k, n.Span())
		c.compileExpr(n.Value)
		u.asm.Emit(op, n.Span())
	} else {
		c.compileExpr(n.Value)
	}
	u.asm.EmitU8(bytecode.StoreField, k, n.Span())
}

func (c *Compiler) compileIndexAssign(n *ast.Assignment, target *ast.Index) {
	u := c.cur()
	c.compileExpr(target.Target)
	c.compileExpr(target.Key)

	if op, isCompound := compoundOp(n.Operator); isCompound {
		u.asm.EmitU8(bytecode.Dup, 1, n.Span())
		u.asm.EmitU8(bytecode.Dup, 1, n.Span())
		u.asm.Emit(bytecode.LoadIndex, n.Span())
		c.compileExpr(n.Value)
		u.asm.Emit(op, n.Span())
	} else {
		c.compileExpr(n.Value)
	}
	u.asm.Emit(bytecode.StoreIndex, n.Span())
}

// compileClassDecl compiles a class declaration (§4.6).
func (c *Compiler) compileClassDecl(n *ast.ClassDecl) {
	u := c.cur()
	frame := u.PushScope(resolver.FrameBlock)

	var superSlot int
	hasBase := n.Base != nil
	if hasBase {
		c.compileExpr(n.Base)
		superSlot = u.AddLocal("super", resolver.LocalVar, false)
		u.asm.EmitU8(bytecode.StoreLocal, uint8(superSlot), n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
	}

	nameConst := c.internConstant(n.Span(), bytecode.Symbol(n.Name))
	if hasBase {
		u.asm.EmitU8(bytecode.LoadLocal, uint8(superSlot), n.Span())
		u.asm.EmitU8(bytecode.InheritClass, nameConst, n.Span())
	} else {
		u.asm.EmitU8(bytecode.CreateClass, nameConst, n.Span())
	}

	classLocal := u.LookupLocal(n.Name)
	if classLocal == nil {
		u.AddLocal(n.Name, resolver.ClassDecl, false)
		classLocal = u.LookupLocal(n.Name)
	}
	u.asm.EmitU8(bytecode.StoreLocal, uint8(classLocal.Slot), n.Span())
	classLocal.IsInitialized = true

	for _, item := range n.AssociatedItems {
		c.compileAssociatedItem(n, item, hasBase, superSlot, classLocal.Slot)
	}

	u.asm.Emit(bytecode.Pop, n.Span())
	c.closeCapturedUpvalues(frame, n.Span())
	u.PopScope()
}

func (c *Compiler) compileAssociatedItem(decl *ast.ClassDecl, item ast.AssociatedItem, hasBase bool, superSlot, classSlot int) {
	u := c.cur()

	switch item.Kind {
	case ast.ItemConstructor:
		if !item.Fn.HasSelf {
			c.errorf(decl.Span(), NewMustHaveSelfReceiver, "constructor %s must declare a self receiver", item.Name)
		}
		c.compileMethodLike(resolver.UnitConstructor, item, hasBase, superSlot)
		k := c.internConstant(decl.Span(), bytecode.Symbol("new"))
		u.asm.EmitU8(bytecode.StoreMethod, k, decl.Span())

	case ast.ItemMethod, ast.ItemOperator:
		if item.Kind == ast.ItemOperator && !item.Fn.HasSelf {
			c.errorf(decl.Span(), OperatorMethodHasNoSelf, "operator method %s must declare a self receiver", item.Name)
		}
		c.compileMethodLike(resolver.UnitMethod, item, hasBase, superSlot)
		k := c.internConstant(decl.Span(), bytecode.Symbol(item.Name))
		u.asm.EmitU8(bytecode.StoreMethod, k, decl.Span())

	case ast.ItemStaticMethod:
		c.compileFunctionLiteral(item.Fn, resolver.UnitFunction, item.Name)
		k := c.internConstant(decl.Span(), bytecode.Symbol(item.Name))
		u.asm.EmitU8(bytecode.StoreField, k, decl.Span())
		u.asm.Emit(bytecode.Pop, decl.Span())
	}

	u.asm.EmitU8(bytecode.LoadLocal, uint8(classSlot), decl.Span())
}

func (c *Compiler) compileMethodLike(kind resolver.UnitKind, item ast.AssociatedItem, hasBase bool, superSlot int) {
	c.pushUnit(kind, item.Name)
	nested := c.cur()
	nested.hasSuper = hasBase
	nested.superSlot = superSlot
	if kind != resolver.UnitConstructor {
		nested.returnType = item.Fn.ReturnType
	}

	params := item.Fn.Params
	if item.Fn.HasSelf && len(params) > 0 {
		if params[0].Type != nil {
			c.errorf(item.Fn.Span(), SelfParameterHasType, "self parameter must not have a type annotation")
		}
		nested.RenameLocal(nested.selfSlot, params[0].Name)
		params = params[1:]
	}
	for _, p := range params {
		slot := nested.AddLocal(p.Name, resolver.LocalVar, true)
		if p.Type != nil {
			c.compileExpr(p.Type)
			nested.asm.EmitU8(bytecode.AssertTypeForLocal, uint8(slot), item.Fn.Span())
		}
	}

	c.compileStatementsOnly(item.Fn.Body)
	if kind == resolver.UnitConstructor {
		nested.asm.Emit(bytecode.Pop, item.Fn.Span())
		nested.asm.EmitU8(bytecode.LoadLocal, uint8(nested.selfSlot), item.Fn.Span())
		nested.asm.Emit(bytecode.Return, item.Fn.Span())
	} else {
		c.emitReturn(item.Fn.Span())
	}
	nested.PopScope()

	upvalues := nested.Upvalues()
	program := nested.asm.Finish(item.Name, nested.SlotCount(), len(upvalues))
	c.units = c.units[:len(c.units)-1]

	enclosing := c.cur()
	script := &value.FnScript{Name: item.Name, Arity: paramArity(item.Fn), Program: program}
	if len(upvalues) == 0 {
		k := c.internConstant(item.Fn.Span(), script)
		enclosing.asm.EmitU8(bytecode.PushConst, k, item.Fn.Span())
		return
	}
	k := c.internConstant(item.Fn.Span(), script)
	enclosing.asm.EmitU8(bytecode.CreateClosure, k, item.Fn.Span())
	for _, uv := range upvalues {
		if uv.IsParentLocal {
			enclosing.asm.EmitRawU8(1)
		} else {
			enclosing.asm.EmitRawU8(0)
		}
		enclosing.asm.EmitRawU8(uv.Index)
	}
}

// compileExportDecl compiles `export <decl>`, only legal at module top
// level (§4.6).
func (c *Compiler) compileExportDecl(n *ast.ExportDecl) {
	u := c.cur()
	if u.Kind != resolver.UnitModule {
		c.errorf(n.Span(), InvalidExport, "export is only valid inside a module")
		return
	}

	var name string
	switch d := n.Decl.(type) {
	case *ast.VarDecl:
		name = d.Name
		c.compileExpr(d.Expr)
		slot := u.AddLocal(d.Name, resolver.LocalVar, d.IsMutable)
		u.asm.EmitU8(bytecode.StoreLocal, uint8(slot), n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
		u.asm.EmitU8(bytecode.LoadLocal, uint8(u.selfSlot), n.Span())
		u.asm.EmitU8(bytecode.LoadLocal, uint8(slot), n.Span())
		k := c.internConstant(n.Span(), bytecode.Symbol(name))
		u.asm.EmitU8(bytecode.StoreField, k, n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
		return

	case *ast.FnDecl:
		name = d.Name
		c.compileFnDecl(d)
	case *ast.ClassDecl:
		name = d.Name
		c.compileClassDecl(d)
	default:
		c.errorf(n.Span(), InvalidExport, "unsupported export target %T", n.Decl)
		return
	}

	local := u.LookupLocal(name)
	u.asm.EmitU8(bytecode.LoadLocal, uint8(u.selfSlot), n.Span())
	u.asm.EmitU8(bytecode.LoadLocal, uint8(local.Slot), n.Span())
	k := c.internConstant(n.Span(), bytecode.Symbol(name))
	u.asm.EmitU8(bytecode.StoreField, k, n.Span())
	u.asm.Emit(bytecode.Pop, n.Span())
}

// compileImportDecl compiles `import ... from "path"` (§4.6).
func (c *Compiler) compileImportDecl(n *ast.ImportDecl) {
	u := c.cur()
	pathConst := c.internConstant(n.Span(), bytecode.Symbol(n.RelativePath))
	u.asm.EmitU8(bytecode.LoadModule, pathConst, n.Span())

	if n.ModuleAlias != "" {
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		slot := u.AddLocal(n.ModuleAlias, resolver.LocalVar, false)
		u.asm.EmitU8(bytecode.StoreLocal, uint8(slot), n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
	}

	for _, item := range n.Items {
		localName := item.Name
		if item.Alias != "" {
			localName = item.Alias
		}
		u.asm.EmitU8(bytecode.Dup, 0, n.Span())
		k := c.internConstant(n.Span(), bytecode.Symbol(item.Name))
		slot := u.AddLocal(localName, resolver.LocalVar, false)
		u.asm.EmitU8U8(bytecode.LoadFieldToLocal, k, uint8(slot), n.Span())
		u.asm.Emit(bytecode.Pop, n.Span())
	}

	u.asm.Emit(bytecode.Pop, n.Span())
}
