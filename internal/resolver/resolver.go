package resolver

import (
	"fmt"

	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
)

type ErrorKind int

const (
	ErrUndefined ErrorKind = iota
	ErrDuplicateDeclaration
	ErrUsedBeforeDeclaration
)

// Error is a recoverable name-resolution error. All occurrences are
// collected rather than aborting on the first.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    lexer.Span
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUndefined:
		return diag.CodeNameUndefined
	case ErrDuplicateDeclaration:
		return diag.CodeNameDuplicate
	case ErrUsedBeforeDeclaration:
		return diag.CodeNameUsedBeforeDecl
	default:
		return diag.Code("NAME_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a resolver error into the shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageResolver,
		Severity: diag.SeverityError,
		Kind:     diag.KindName,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Bindings is the resolver's output: an immutable side-table mapping every
// identifier use and declaration to its symbol, keyed by node identity. The
// AST itself is never touched.
type Bindings struct {
	Uses  map[*ast.Ident]*Symbol
	Decls map[ast.Node]*Symbol
}

// UseOf returns the symbol a given identifier use was bound to, or nil when
// resolution failed for that use.
func (b *Bindings) UseOf(id *ast.Ident) *Symbol {
	return b.Uses[id]
}

// DeclOf returns the symbol introduced by a declaration node.
func (b *Bindings) DeclOf(n ast.Node) *Symbol {
	return b.Decls[n]
}

// Builtin function names pre-declared in every program's global scope.
var Builtins = []string{"print", "print_int"}

type resolver struct {
	global   *Scope
	scope    *Scope
	bindings *Bindings
	errors   []Error
}

// Resolve binds every identifier in the program to exactly one symbol or
// reports an error for it. Pass 1 hoists top-level declarations so forward
// references between top-level items resolve; pass 2 walks the tree with
// lexical block scoping (inner shadows outer).
func Resolve(program *ast.Program) (*Bindings, []Error) {
	r := &resolver{
		global: NewScope(nil),
		bindings: &Bindings{
			Uses:  make(map[*ast.Ident]*Symbol),
			Decls: make(map[ast.Node]*Symbol),
		},
	}
	r.scope = r.global

	for _, name := range Builtins {
		r.global.Insert(name, &Symbol{
			Name:    name,
			Kind:    SymbolFunc,
			Storage: StorageBuiltin,
		})
	}

	r.hoistTopLevel(program)
	r.resolveProgram(program)

	return r.bindings, r.errors
}

func (r *resolver) errorf(kind ErrorKind, span lexer.Span, format string, args ...any) {
	r.errors = append(r.errors, Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

// hoistTopLevel is pass 1: declare every top-level function and global
// variable before any body is examined.
func (r *resolver) hoistTopLevel(program *ast.Program) {
	for _, d := range program.Decls {
		switch d := d.(type) {
		case *ast.FnDecl:
			r.declare(d.Name, &Symbol{
				Name:    d.Name.Name,
				Kind:    SymbolFunc,
				Storage: StorageGlobal,
				Decl:    d,
			})
		case *ast.VarDecl:
			r.declare(d.Name, &Symbol{
				Name:    d.Name.Name,
				Kind:    SymbolVar,
				Storage: StorageGlobal,
				Decl:    d,
			})
		}
	}
}

// declare inserts a symbol into the current scope, reporting a duplicate if
// the name is already bound there. The first declaration wins so later uses
// still resolve to exactly one symbol.
func (r *resolver) declare(name *ast.Ident, sym *Symbol) {
	if existing := r.scope.LookupLocal(name.Name); existing != nil {
		r.errorf(ErrDuplicateDeclaration, name.Span(),
			"'%s' is already declared in this scope", name.Name)
		r.bindings.Uses[name] = existing
		return
	}
	r.scope.Insert(name.Name, sym)
	r.bindings.Decls[sym.Decl] = sym
	r.bindings.Uses[name] = sym
}

func (r *resolver) pushScope() {
	r.scope = NewScope(r.scope)
}

func (r *resolver) popScope() {
	r.scope = r.scope.Parent
}

// resolveProgram is pass 2: walk bodies binding uses.
func (r *resolver) resolveProgram(program *ast.Program) {
	for _, d := range program.Decls {
		switch d := d.(type) {
		case *ast.FnDecl:
			r.resolveFn(d)
		case *ast.VarDecl:
			// Global initializers may reference other globals (hoisted).
			r.resolveExpr(d.Init)
		}
	}
}

func (r *resolver) resolveFn(d *ast.FnDecl) {
	r.pushScope()
	defer r.popScope()

	for _, param := range d.Params {
		r.declare(param.Name, &Symbol{
			Name:    param.Name.Name,
			Kind:    SymbolVar,
			Storage: StorageParam,
			Decl:    param,
		})
	}
	r.resolveBlockInline(d.Body)
}

// resolveBlock introduces a fresh scope for the block then walks it.
func (r *resolver) resolveBlock(b *ast.Block) {
	r.pushScope()
	defer r.popScope()
	r.resolveBlockInline(b)
}

// resolveBlockInline walks a block in the current scope. Names declared by
// later statements of the same block are pre-recorded as pending so uses
// before the declaration report UsedBeforeDeclaration instead of silently
// binding to an outer shadowed symbol.
func (r *resolver) resolveBlockInline(b *ast.Block) {
	for _, s := range b.Stmts {
		if d, ok := s.(*ast.VarDecl); ok {
			r.scope.markPending(d.Name.Name, d)
		}
	}
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
}

func (r *resolver) resolveStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		// The initializer is resolved before the name is bound. The name is
		// already pending for the whole block, so `var x = x;` is a
		// use-before-declaration error rather than a read of an outer x.
		r.resolveExpr(s.Init)
		r.declare(s.Name, &Symbol{
			Name:    s.Name.Name,
			Kind:    SymbolVar,
			Storage: StorageLocal,
			Decl:    s,
		})
	case *ast.Assign:
		r.resolveIdent(s.Target)
		r.resolveExpr(s.Value)
	case *ast.ExprStmt:
		r.resolveExpr(s.X)
	case *ast.Return:
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
	case *ast.If:
		r.resolveExpr(s.Cond)
		r.resolveBlock(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.While:
		r.resolveExpr(s.Cond)
		r.resolveBlock(s.Body)
	case *ast.Block:
		r.resolveBlock(s)
	}
}

func (r *resolver) resolveExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		r.resolveIdent(e)
	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Unary:
		r.resolveExpr(e.Operand)
	case *ast.Call:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
	case *ast.Paren:
		r.resolveExpr(e.X)
	case *ast.Literal:
		// nothing to bind
	}
}

func (r *resolver) resolveIdent(id *ast.Ident) {
	sym, pendingDecl := r.scope.lookupPending(id.Name)
	if sym != nil {
		r.bindings.Uses[id] = sym
		return
	}
	if pendingDecl != nil {
		r.errorf(ErrUsedBeforeDeclaration, id.Span(),
			"'%s' is used before its declaration at %s", id.Name, pendingDecl.Name.Span().String())
		return
	}
	r.errorf(ErrUndefined, id.Span(), "undefined name '%s'", id.Name)
}
