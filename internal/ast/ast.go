package ast

import "github.com/kindred-lang/kindred/internal/lexer"

// Node represents any AST node with an associated source span.
//
// The node set is closed: semantic passes switch exhaustively over the
// variants below, and results of later passes (bindings, types) are stored
// in side-tables keyed by node identity rather than on the nodes themselves.
// Nodes are never mutated after parsing.
type Node interface {
	Span() lexer.Span
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl represents a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Program represents a parsed translation unit.
type Program struct {
	Decls []Decl
	span  lexer.Span
}

// Span returns the span covering the entire file.
func (p *Program) Span() lexer.Span { return p.span }

// NewProgram constructs a program node with the provided span.
func NewProgram(decls []Decl, span lexer.Span) *Program {
	return &Program{Decls: decls, span: span}
}

// TypeName represents a named type annotation (Int, Float, Bool, String).
type TypeName struct {
	Name string
	span lexer.Span
}

// Span returns the annotation span.
func (t *TypeName) Span() lexer.Span { return t.span }

// NewTypeName constructs a type annotation node.
func NewTypeName(name string, span lexer.Span) *TypeName {
	return &TypeName{Name: name, span: span}
}

// Param represents a function parameter.
type Param struct {
	Name *Ident
	Type *TypeName
	span lexer.Span
}

// Span returns the parameter span.
func (p *Param) Span() lexer.Span { return p.span }

// NewParam constructs a parameter node.
func NewParam(name *Ident, typ *TypeName, span lexer.Span) *Param {
	return &Param{Name: name, Type: typ, span: span}
}

// FnDecl represents a function declaration.
type FnDecl struct {
	Name       *Ident
	Params     []*Param
	ReturnType *TypeName // nil means Unit
	Body       *Block
	span       lexer.Span
}

// Span returns the declaration span.
func (d *FnDecl) Span() lexer.Span { return d.span }

// NewFnDecl constructs a function declaration node.
func NewFnDecl(name *Ident, params []*Param, returnType *TypeName, body *Block, span lexer.Span) *FnDecl {
	return &FnDecl{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		span:       span,
	}
}

func (*FnDecl) declNode() {}

// VarDecl represents a variable declaration. It appears both at the top
// level (global) and inside blocks (local), so it is both a Decl and a Stmt.
type VarDecl struct {
	Name *Ident
	Type *TypeName // nil means inferred from the initializer
	Init Expr
	span lexer.Span
}

// Span returns the declaration span.
func (d *VarDecl) Span() lexer.Span { return d.span }

// NewVarDecl constructs a variable declaration node.
func NewVarDecl(name *Ident, typ *TypeName, init Expr, span lexer.Span) *VarDecl {
	return &VarDecl{Name: name, Type: typ, Init: init, span: span}
}

func (*VarDecl) declNode() {}
func (*VarDecl) stmtNode() {}

// Block represents a brace-delimited statement list introducing a scope.
type Block struct {
	Stmts []Stmt
	span  lexer.Span
}

// Span returns the block span.
func (b *Block) Span() lexer.Span { return b.span }

// NewBlock constructs a block node.
func NewBlock(stmts []Stmt, span lexer.Span) *Block {
	return &Block{Stmts: stmts, span: span}
}

func (*Block) stmtNode() {}

// If represents an if statement with an optional else branch. Else is either
// a *Block or another *If (else-if chain).
type If struct {
	Cond Expr
	Then *Block
	Else Stmt // nil, *Block, or *If
	span lexer.Span
}

// Span returns the statement span.
func (s *If) Span() lexer.Span { return s.span }

// NewIf constructs an if statement node.
func NewIf(cond Expr, then *Block, els Stmt, span lexer.Span) *If {
	return &If{Cond: cond, Then: then, Else: els, span: span}
}

func (*If) stmtNode() {}

// While represents a while loop.
type While struct {
	Cond Expr
	Body *Block
	span lexer.Span
}

// Span returns the statement span.
func (s *While) Span() lexer.Span { return s.span }

// NewWhile constructs a while statement node.
func NewWhile(cond Expr, body *Block, span lexer.Span) *While {
	return &While{Cond: cond, Body: body, span: span}
}

func (*While) stmtNode() {}

// Return represents a return statement with an optional value.
type Return struct {
	Value Expr // nil for bare return
	span  lexer.Span
}

// Span returns the statement span.
func (s *Return) Span() lexer.Span { return s.span }

// NewReturn constructs a return statement node.
func NewReturn(value Expr, span lexer.Span) *Return {
	return &Return{Value: value, span: span}
}

func (*Return) stmtNode() {}

// Assign represents an assignment statement. The target is restricted to an
// identifier by the parser.
type Assign struct {
	Target *Ident
	Value  Expr
	span   lexer.Span
}

// Span returns the statement span.
func (s *Assign) Span() lexer.Span { return s.span }

// NewAssign constructs an assignment statement node.
func NewAssign(target *Ident, value Expr, span lexer.Span) *Assign {
	return &Assign{Target: target, Value: value, span: span}
}

func (*Assign) stmtNode() {}

// ExprStmt represents an expression evaluated for its effect (a call).
type ExprStmt struct {
	X    Expr
	span lexer.Span
}

// Span returns the statement span.
func (s *ExprStmt) Span() lexer.Span { return s.span }

// NewExprStmt constructs an expression statement node.
func NewExprStmt(x Expr, span lexer.Span) *ExprStmt {
	return &ExprStmt{X: x, span: span}
}

func (*ExprStmt) stmtNode() {}

// Ident represents an identifier use or declaration name.
type Ident struct {
	Name string
	span lexer.Span
}

// Span returns the identifier span.
func (e *Ident) Span() lexer.Span { return e.span }

// NewIdent constructs an identifier node.
func NewIdent(name string, span lexer.Span) *Ident {
	return &Ident{Name: name, span: span}
}

func (*Ident) exprNode() {}

// LitKind discriminates literal variants.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
)

// Literal represents a literal expression. Raw preserves the source
// spelling; the decoded value for strings lives in Value.
type Literal struct {
	Kind  LitKind
	Raw   string
	Value string
	span  lexer.Span
}

// Span returns the literal span.
func (e *Literal) Span() lexer.Span { return e.span }

// NewLiteral constructs a literal node.
func NewLiteral(kind LitKind, raw, value string, span lexer.Span) *Literal {
	return &Literal{Kind: kind, Raw: raw, Value: value, span: span}
}

func (*Literal) exprNode() {}

// Binary represents a binary expression. Op is the source operator spelling
// (`!=` also covers the `<>` form).
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	span  lexer.Span
}

// Span returns the expression span.
func (e *Binary) Span() lexer.Span { return e.span }

// NewBinary constructs a binary expression node.
func NewBinary(op string, left, right Expr, span lexer.Span) *Binary {
	return &Binary{Op: op, Left: left, Right: right, span: span}
}

func (*Binary) exprNode() {}

// Unary represents a prefix expression (`-x`, `!ok`).
type Unary struct {
	Op      string
	Operand Expr
	span    lexer.Span
}

// Span returns the expression span.
func (e *Unary) Span() lexer.Span { return e.span }

// NewUnary constructs a unary expression node.
func NewUnary(op string, operand Expr, span lexer.Span) *Unary {
	return &Unary{Op: op, Operand: operand, span: span}
}

func (*Unary) exprNode() {}

// Call represents a function call. The callee is an expression so the type
// checker can report NotCallable on non-function targets.
type Call struct {
	Callee Expr
	Args   []Expr
	span   lexer.Span
}

// Span returns the expression span.
func (e *Call) Span() lexer.Span { return e.span }

// NewCall constructs a call expression node.
func NewCall(callee Expr, args []Expr, span lexer.Span) *Call {
	return &Call{Callee: callee, Args: args, span: span}
}

func (*Call) exprNode() {}

// Paren represents a parenthesized expression. It is preserved so the
// pretty-printer can reproduce grouping and the round-trip property holds
// without re-deriving precedence.
type Paren struct {
	X    Expr
	span lexer.Span
}

// Span returns the expression span.
func (e *Paren) Span() lexer.Span { return e.span }

// NewParen constructs a parenthesized expression node.
func NewParen(x Expr, span lexer.Span) *Paren {
	return &Paren{X: x, span: span}
}

func (*Paren) exprNode() {}
