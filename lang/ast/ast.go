// Package ast defines the syntax-tree node types consumed by the compiler.
// The lexer and parser that produce these trees are external collaborators
// and are not part of this module: ast is a black-box contract between that
// front end and the compiler in lang/compiler.
package ast

import "fmt"

// Pos is a 1-based line/column source position.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Span is the half-open source range covered by a node.
type Span struct {
	Start, End Pos
}

// Node is implemented by every syntax-tree node.
type Node interface {
	Span() Span
}

// Expr is implemented by every expression node. Almost everything in this
// language is an expression: blocks, if, while and loop all produce a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every top-level statement-position node. Most
// statements here are thin wrappers around an expression, kept distinct from
// Expr only where the grammar requires a declaration shape (see DeclStmt).
type Stmt interface {
	Node
	stmtNode()
}

// ExprStmt adapts an expression to statement position.
type ExprStmt struct {
	Span_ Span
	X     Expr
}

func (n *ExprStmt) Span() Span { return n.Span_ }
func (*ExprStmt) stmtNode()    {}

// BinaryOp enumerates the binary operators of Binary nodes.
type BinaryOp int

const (
	OpMul BinaryOp = iota
	OpDiv
	OpRem
	OpAdd
	OpSub
	OpGt
	OpGte
	OpLt
	OpLte
	OpEq
	OpNeq
	OpLogicalAnd
	OpLogicalOr
	OpRangeInclusive
	OpRangeExclusive
	OpCoalesce
	OpPipeline
	OpDiceRoll
)

// UnaryOp enumerates the unary operators of Unary nodes.
type UnaryOp int

const (
	OpNegate UnaryOp = iota
	OpNot
)

// AssignOp enumerates the assignment operators of Assignment nodes.
type AssignOp int

const (
	Assign AssignOp = iota
	MulAssign
	DivAssign
	AddAssign
	SubAssign
)

// VarDeclKind distinguishes a single-name binding from a destructured one.
type VarDeclKind int

const (
	Singular VarDeclKind = iota
	Destructured
)
