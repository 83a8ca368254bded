package compiler

import (
	"testing"

	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func span() ast.Span { return ast.Span{} }

func ident(name string) *ast.LitIdent { return &ast.LitIdent{Name: name} }

func intLit(v int64) *ast.LitInt { return &ast.LitInt{Value: v} }

// opcodesOf decodes data into its sequence of opcodes. It must not be used on
// a stream containing CreateClosure, whose trailing descriptor bytes aren't
// sized by Operand() and would desync the cursor.
func opcodesOf(t *testing.T, data []byte) []bytecode.Opcode {
	t.Helper()
	var ops []bytecode.Opcode
	cur := bytecode.NewCursor(data)
	for {
		insn, ok := cur.ReadInstruction()
		if !ok {
			break
		}
		require.NotEqual(t, bytecode.CreateClosure, insn.Op, "opcodesOf cannot decode streams containing CreateClosure")
		ops = append(ops, insn.Op)
	}
	return ops
}

func containsAdjacent(ops []bytecode.Opcode, a, b bytecode.Opcode) bool {
	for i := 0; i+1 < len(ops); i++ {
		if ops[i] == a && ops[i+1] == b {
			return true
		}
	}
	return false
}

func contains(ops []bytecode.Opcode, op bytecode.Opcode) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func TestCompileScriptEmptyBodyPushesUnit(t *testing.T) {
	block := &ast.Block{}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Equal(t, []bytecode.Opcode{bytecode.PushUnit, bytecode.Return}, ops)
}

func TestCompileScriptTrailingExpression(t *testing.T) {
	block := &ast.Block{Trailing: intLit(1)}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Equal(t, []bytecode.Opcode{bytecode.PushI1, bytecode.Return}, ops)
}

// Regression test for the Store*-vs-Assign* fix: nested assignment
// (`let x = y = 1`) must bind x to the assigned value, which requires the
// assignment to leave that value on the stack (StoreLocal), not Unit
// (AssignLocal).
func TestNestedLocalAssignmentUsesStoreLocal(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.VarDecl{Kind: ast.Singular, IsMutable: true, Name: "y", Expr: intLit(0)},
			&ast.VarDecl{Kind: ast.Singular, IsMutable: true, Name: "x", Expr: &ast.Assignment{
				Operator: ast.Assign,
				Target:   ident("y"),
				Value:    intLit(1),
			}},
		},
		Trailing: ident("x"),
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Contains(t, ops, bytecode.StoreLocal)
	require.NotContains(t, ops, bytecode.AssignLocal)
}

func TestGlobalAssignmentDupsBeforeStoreGlobal(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Assignment{Operator: ast.Assign, Target: ident("g"), Value: intLit(5)}},
		},
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.True(t, containsAdjacent(ops, bytecode.Dup, bytecode.StoreGlobal),
		"global assignment must Dup the value before StoreGlobal since StoreGlobal leaves nothing on the stack")
}

func TestFieldAssignmentUsesStoreFieldNotAssignField(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Assignment{
				Operator: ast.Assign,
				Target:   &ast.FieldAccess{Target: ident("o"), Name: "f"},
				Value:    intLit(1),
			}},
		},
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Contains(t, ops, bytecode.StoreField)
	require.NotContains(t, ops, bytecode.AssignField)
}

func TestIndexAssignmentUsesStoreIndexNotAssignIndex(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Assignment{
				Operator: ast.Assign,
				Target:   &ast.Index{Target: ident("arr"), Key: intLit(0)},
				Value:    intLit(1),
			}},
		},
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Contains(t, ops, bytecode.StoreIndex)
	require.NotContains(t, ops, bytecode.AssignIndex)
}

func TestForLoopIncrementStillUsesAssignLocal(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.ForLoop{
				Var:   "i",
				Start: intLit(0),
				End:   intLit(3),
				Body:  &ast.Block{},
			}},
		},
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Contains(t, ops, bytecode.AssignLocal,
		"the for-loop's internal counter increment is a pure side-effecting write with no expression-position consumer")
}

func TestImportDeclUsesFusedLoadFieldToLocal(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ImportDecl{
				RelativePath: "util",
				Items:        []ast.ImportItem{{Name: "helper"}},
			},
		},
	}
	p, err := CompileScript("main", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.Contains(t, ops, bytecode.LoadFieldToLocal)
	require.NotContains(t, ops, bytecode.LoadField,
		"the unfused Dup;LoadField;StoreLocal sequence should no longer be emitted for import items")
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Break{}},
		},
	}
	_, err := CompileScript("main", block)
	require.Error(t, err)
	errs := err.(CompileErrors)
	require.Len(t, errs, 1)
	require.Equal(t, InvalidBreak, errs[0].Code)
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Return{}},
		},
	}
	_, err := CompileScript("main", block)
	require.Error(t, err)
	errs := err.(CompileErrors)
	require.Equal(t, InvalidReturn, errs[0].Code)
}

func TestAssignToImmutableLocalIsCompileError(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.VarDecl{Kind: ast.Singular, IsMutable: false, Name: "x", Expr: intLit(1)},
			&ast.ExprStmt{X: &ast.Assignment{Operator: ast.Assign, Target: ident("x"), Value: intLit(2)}},
		},
	}
	_, err := CompileScript("main", block)
	require.Error(t, err)
	errs := err.(CompileErrors)
	require.Equal(t, ImmutableVariable, errs[0].Code)
}

func TestFunctionWithReturnTypeEmitsAssertTypeAndReturn(t *testing.T) {
	fn := &ast.FnDecl{
		Name: "f",
		Fn: &ast.LitAnonymousFn{
			ReturnType: ident("Int"),
			Body:       &ast.Block{Trailing: intLit(1)},
		},
	}
	block := &ast.Block{Statements: []ast.Stmt{fn}}
	p, err := CompileScript("main", block)
	require.NoError(t, err)

	// The nested function's program lives in the constant pool since it
	// captures nothing.
	var nested *bytecode.Program
	for _, c := range p.Constants {
		if script, ok := c.(interface{ BytecodeProgram() *bytecode.Program }); ok {
			nested = script.BytecodeProgram()
		}
	}
	require.NotNil(t, nested)
	ops := opcodesOf(t, nested.Data)
	require.Contains(t, ops, bytecode.AssertTypeAndReturn)
	require.NotContains(t, ops, bytecode.Return)
}

func TestFunctionWithoutReturnTypeEmitsPlainReturn(t *testing.T) {
	fn := &ast.FnDecl{
		Name: "f",
		Fn: &ast.LitAnonymousFn{
			Body: &ast.Block{Trailing: intLit(1)},
		},
	}
	block := &ast.Block{Statements: []ast.Stmt{fn}}
	p, err := CompileScript("main", block)
	require.NoError(t, err)

	var nested *bytecode.Program
	for _, c := range p.Constants {
		if script, ok := c.(interface{ BytecodeProgram() *bytecode.Program }); ok {
			nested = script.BytecodeProgram()
		}
	}
	require.NotNil(t, nested)
	ops := opcodesOf(t, nested.Data)
	require.Contains(t, ops, bytecode.Return)
	require.NotContains(t, ops, bytecode.AssertTypeAndReturn)
}

func TestCompileModuleReservesExportSlotAndReturnsIt(t *testing.T) {
	block := &ast.Block{}
	p, err := CompileModule("mod", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.NotContains(t, ops, bytecode.CreateObject)
	require.Equal(t, []bytecode.Opcode{bytecode.PushUnit, bytecode.Pop, bytecode.LoadLocal, bytecode.Return}, ops)
}

func TestCompileModuleExportDeclStoresIntoExportObject(t *testing.T) {
	block := &ast.Block{
		Statements: []ast.Stmt{
			&ast.ExportDecl{Decl: &ast.VarDecl{Kind: ast.Singular, Name: "x", Expr: intLit(1)}},
		},
	}
	p, err := CompileModule("mod", block)
	require.NoError(t, err)
	ops := opcodesOf(t, p.Data)
	require.True(t, containsAdjacent(ops, bytecode.LoadLocal, bytecode.LoadLocal))
	require.Contains(t, ops, bytecode.StoreField)
}

func TestCompileScriptTooManyConstantsIsCompileError(t *testing.T) {
	stmts := make([]ast.Stmt, 0, 300)
	for i := 0; i < 300; i++ {
		stmts = append(stmts, &ast.ExprStmt{X: &ast.LitFloat{Value: float64(i) + 0.5}})
	}
	block := &ast.Block{Statements: stmts}
	_, err := CompileScript("main", block)
	require.Error(t, err)
	errs := err.(CompileErrors)
	require.Equal(t, TooManyConstants, errs[0].Code)
}
