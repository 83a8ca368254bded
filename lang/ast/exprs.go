package ast

// Literal and identifier leaves.

type (
	LitIdent struct {
		Span_ Span
		Name  string
	}

	LitNull struct{ Span_ Span }
	LitUnit struct{ Span_ Span }

	LitBool struct {
		Span_ Span
		Value bool
	}

	LitInt struct {
		Span_ Span
		Value int64
	}

	LitFloat struct {
		Span_ Span
		Value float64
	}

	LitString struct {
		Span_ Span
		Value string
	}

	LitList struct {
		Span_    Span
		Elements []Expr
	}

	// ObjectField is a single `name: value` entry of a LitObject.
	ObjectField struct {
		Name  string
		Value Expr
	}

	LitObject struct {
		Span_  Span
		Fields []ObjectField
	}

	// Param is a function parameter; Type is nil when unannotated.
	Param struct {
		Name string
		Type Expr // nil, or an expression resolving to a Class
	}

	LitAnonymousFn struct {
		Span_      Span
		Params     []Param
		HasSelf    bool // true if the first parameter is `self`
		ReturnType Expr // nil when unannotated
		Body       *Block
	}
)

func (n *LitIdent) Span() Span       { return n.Span_ }
func (n *LitNull) Span() Span        { return n.Span_ }
func (n *LitUnit) Span() Span        { return n.Span_ }
func (n *LitBool) Span() Span        { return n.Span_ }
func (n *LitInt) Span() Span         { return n.Span_ }
func (n *LitFloat) Span() Span       { return n.Span_ }
func (n *LitString) Span() Span      { return n.Span_ }
func (n *LitList) Span() Span        { return n.Span_ }
func (n *LitObject) Span() Span      { return n.Span_ }
func (n *LitAnonymousFn) Span() Span { return n.Span_ }

func (*LitIdent) exprNode()       {}
func (*LitNull) exprNode()        {}
func (*LitUnit) exprNode()        {}
func (*LitBool) exprNode()        {}
func (*LitInt) exprNode()         {}
func (*LitFloat) exprNode()       {}
func (*LitString) exprNode()      {}
func (*LitList) exprNode()        {}
func (*LitObject) exprNode()      {}
func (*LitAnonymousFn) exprNode() {}

// Access and call expressions.

type (
	FieldAccess struct {
		Span_  Span
		Target Expr
		Name   string
	}

	SafeAccess struct {
		Span_  Span
		Target Expr
		Name   string
	}

	Index struct {
		Span_  Span
		Target Expr
		Key    Expr
	}

	FnCall struct {
		Span_  Span
		Callee Expr
		Args   []Expr
	}

	SuperAccess struct {
		Span_ Span
		Name  string
	}

	SuperCall struct {
		Span_ Span
		Args  []Expr
	}
)

func (n *FieldAccess) Span() Span { return n.Span_ }
func (n *SafeAccess) Span() Span  { return n.Span_ }
func (n *Index) Span() Span       { return n.Span_ }
func (n *FnCall) Span() Span      { return n.Span_ }
func (n *SuperAccess) Span() Span { return n.Span_ }
func (n *SuperCall) Span() Span   { return n.Span_ }

func (*FieldAccess) exprNode() {}
func (*SafeAccess) exprNode()  {}
func (*Index) exprNode()       {}
func (*FnCall) exprNode()      {}
func (*SuperAccess) exprNode() {}
func (*SuperCall) exprNode()   {}

// Operators and control expressions.

type (
	Unary struct {
		Span_    Span
		Operator UnaryOp
		X        Expr
	}

	Binary struct {
		Span_    Span
		Operator BinaryOp
		X, Y     Expr
	}

	NullPropagate struct {
		Span_ Span
		X     Expr
	}

	ErrorPropagate struct {
		Span_ Span
		X     Expr
	}

	Is struct {
		Span_    Span
		X        Expr
		Class    Expr
		Nullable bool
	}

	Assignment struct {
		Span_    Span
		Operator AssignOp
		Target   Expr // LitIdent, FieldAccess or Index
		Value    Expr
	}

	IfExpression struct {
		Span_     Span
		Cond      Expr
		Primary   *Block
		Secondary *Block // nil when there is no `else`
	}

	WhileLoop struct {
		Span_ Span
		Cond  Expr
		Body  *Block
	}

	// ForLoop represents `for x in e1..e2 { ... }`. Only the range form is
	// supported; Exclusive reflects whether the range operator was `..<`
	// (exclusive) or `..` (inclusive).
	ForLoop struct {
		Span_     Span
		Var       string
		Start, End Expr
		Exclusive bool
		Body      *Block
	}

	Loop struct {
		Span_ Span
		Body  *Block
	}

	Break struct {
		Span_ Span
	}

	Continue struct {
		Span_ Span
	}

	Return struct {
		Span_ Span
		X     Expr // nil when bare `return`
	}
)

func (n *Unary) Span() Span          { return n.Span_ }
func (n *Binary) Span() Span         { return n.Span_ }
func (n *NullPropagate) Span() Span  { return n.Span_ }
func (n *ErrorPropagate) Span() Span { return n.Span_ }
func (n *Is) Span() Span             { return n.Span_ }
func (n *Assignment) Span() Span     { return n.Span_ }
func (n *IfExpression) Span() Span   { return n.Span_ }
func (n *WhileLoop) Span() Span      { return n.Span_ }
func (n *ForLoop) Span() Span        { return n.Span_ }
func (n *Loop) Span() Span           { return n.Span_ }
func (n *Break) Span() Span          { return n.Span_ }
func (n *Continue) Span() Span       { return n.Span_ }
func (n *Return) Span() Span         { return n.Span_ }

func (*Unary) exprNode()          {}
func (*Binary) exprNode()         {}
func (*NullPropagate) exprNode()  {}
func (*ErrorPropagate) exprNode() {}
func (*Is) exprNode()             {}
func (*Assignment) exprNode()     {}
func (*IfExpression) exprNode()   {}
func (*WhileLoop) exprNode()      {}
func (*ForLoop) exprNode()        {}
func (*Loop) exprNode()           {}
func (*Break) exprNode()          {}
func (*Continue) exprNode()       {}
func (*Return) exprNode()         {}

// Block is a brace-delimited sequence of statements with an optional
// trailing expression, itself an expression.
type Block struct {
	Span_      Span
	Statements []Stmt
	Trailing   Expr // nil when the block has no trailing expression
}

func (n *Block) Span() Span { return n.Span_ }
func (*Block) exprNode()    {}
