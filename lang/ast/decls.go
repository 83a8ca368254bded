package ast

// VarDecl declares one or more local bindings: `let x = ...` or the
// destructured form `let #{a, b} = ...`.
type VarDecl struct {
	Span_     Span
	Kind      VarDeclKind
	IsMutable bool
	// Name is used when Kind == Singular.
	Name string
	// Fields is used when Kind == Destructured: one local per named field,
	// extracted from the value of Expr.
	Fields []string
	Expr   Expr
	Type   Expr // nil when unannotated
}

func (n *VarDecl) Span() Span { return n.Span_ }
func (*VarDecl) stmtNode()    {}

// FnDecl declares a named function in the enclosing block: `fn name(...) {}`.
type FnDecl struct {
	Span_ Span
	Name  string
	Fn    *LitAnonymousFn
}

func (n *FnDecl) Span() Span { return n.Span_ }
func (*FnDecl) stmtNode()    {}

// OpDecl declares an operator-protocol method outside of a class, e.g. a
// free-standing `#add` used as a global fallback for the operator protocol.
type OpDecl struct {
	Span_ Span
	Name  string // protocol method name, e.g. "#add"
	Fn    *LitAnonymousFn
}

func (n *OpDecl) Span() Span { return n.Span_ }
func (*OpDecl) stmtNode()    {}

// AssociatedItemKind distinguishes the kinds of members a ClassDecl may
// declare.
type AssociatedItemKind int

const (
	ItemMethod AssociatedItemKind = iota
	ItemConstructor
	ItemStaticMethod
	ItemOperator
)

// AssociatedItem is one member (method, constructor, static method or
// operator) of a ClassDecl.
type AssociatedItem struct {
	Kind AssociatedItemKind
	Name string
	Fn   *LitAnonymousFn
}

// ClassDecl declares a class, optionally deriving from a base class
// expression.
type ClassDecl struct {
	Span_          Span
	Name           string
	Base           Expr // nil when there is no base class
	AssociatedItems []AssociatedItem
}

func (n *ClassDecl) Span() Span { return n.Span_ }
func (*ClassDecl) stmtNode()    {}

// ExportDecl wraps a declaration to additionally bind it as a field of the
// enclosing module's export object. Only legal at module top level.
type ExportDecl struct {
	Span_ Span
	Decl  Stmt // *VarDecl, *FnDecl or *ClassDecl
}

func (n *ExportDecl) Span() Span { return n.Span_ }
func (*ExportDecl) stmtNode()    {}

// ImportItem is one named item pulled out of an imported module's export
// object into a local binding.
type ImportItem struct {
	Name string
	// Alias, if non-empty, is the local binding name; otherwise Name is used.
	Alias string
}

// ImportDecl declares an import of another module by relative path.
type ImportDecl struct {
	Span_        Span
	RelativePath string
	// ModuleAlias, if non-empty, binds the whole module object locally.
	ModuleAlias string
	Items       []ImportItem
}

func (n *ImportDecl) Span() Span { return n.Span_ }
func (*ImportDecl) stmtNode()    {}
