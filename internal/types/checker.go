package types

import (
	"fmt"

	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
	"github.com/kindred-lang/kindred/internal/resolver"
)

type ErrorKind int

const (
	ErrMismatch ErrorKind = iota
	ErrArityMismatch
	ErrNotCallable
	ErrImmutableAssignment
	ErrUnknownType
)

// Error is a recoverable type error. Expected/Found are populated for
// mismatches so tests and tooling can assert on them precisely.
type Error struct {
	Kind     ErrorKind
	Message  string
	Span     lexer.Span
	Expected Type // set for ErrMismatch
	Found    Type // set for ErrMismatch
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrMismatch:
		return diag.CodeTypeMismatch
	case ErrArityMismatch:
		return diag.CodeTypeArityMismatch
	case ErrNotCallable:
		return diag.CodeTypeNotCallable
	case ErrImmutableAssignment:
		return diag.CodeTypeImmutableAssignment
	case ErrUnknownType:
		return diag.CodeTypeUnknownType
	default:
		return diag.Code("TYPE_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a type error into the shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageTypes,
		Severity: diag.SeverityError,
		Kind:     diag.KindType,
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

// Info is the checker's output: an immutable side-table keyed by node
// identity. After a successful check every expression has exactly one
// concrete type; erroneous expressions carry Unknown and a reported error.
type Info struct {
	Types   map[ast.Expr]Type
	Symbols map[*resolver.Symbol]Type
	Fns     map[*ast.FnDecl]*Function
}

// TypeOf returns the resolved type of an expression.
func (i *Info) TypeOf(e ast.Expr) Type {
	if t, ok := i.Types[e]; ok {
		return t
	}
	return Unknown
}

// SymbolType returns the declared type of a symbol.
func (i *Info) SymbolType(sym *resolver.Symbol) Type {
	if t, ok := i.Symbols[sym]; ok {
		return t
	}
	return Unknown
}

// Builtin function signatures, keyed by the names resolver pre-declares.
var builtinSignatures = map[string]*Function{
	"print":     {Params: []Type{String}, Result: Unit},
	"print_int": {Params: []Type{Int}, Result: Unit},
}

type checker struct {
	bindings *resolver.Bindings
	info     *Info
	errors   []Error

	// result type of the function currently being checked
	result Type
}

// Check infers a type for every expression bottom-up and validates statement
// contexts top-down. All errors are collected; checking never stops at the
// first mismatch.
func Check(program *ast.Program, bindings *resolver.Bindings) (*Info, []Error) {
	c := &checker{
		bindings: bindings,
		info: &Info{
			Types:   make(map[ast.Expr]Type),
			Symbols: make(map[*resolver.Symbol]Type),
			Fns:     make(map[*ast.FnDecl]*Function),
		},
	}

	// Function signatures first so bodies can call forward-declared
	// functions, then globals in source order, then bodies.
	for _, d := range program.Decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			c.declareFnSignature(fn)
		}
	}
	for _, d := range program.Decls {
		if v, ok := d.(*ast.VarDecl); ok {
			c.checkVarDecl(v)
		}
	}
	for _, d := range program.Decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			c.checkFnBody(fn)
		}
	}

	return c.info, c.errors
}

func (c *checker) errorf(kind ErrorKind, span lexer.Span, format string, args ...any) {
	c.errors = append(c.errors, Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

func (c *checker) mismatch(span lexer.Span, expected, found Type) {
	c.errors = append(c.errors, Error{
		Kind:     ErrMismatch,
		Message:  fmt.Sprintf("mismatched types: expected %s, found %s", expected, found),
		Span:     span,
		Expected: expected,
		Found:    found,
	})
}

// resolveTypeName maps a source annotation to a type, reporting unknown
// names once at the annotation's span.
func (c *checker) resolveTypeName(t *ast.TypeName) Type {
	typ, ok := ByName(t.Name)
	if !ok {
		c.errorf(ErrUnknownType, t.Span(), "unknown type '%s'", t.Name)
	}
	return typ
}

func (c *checker) declareFnSignature(fn *ast.FnDecl) {
	sig := &Function{Result: Unit}
	for _, p := range fn.Params {
		sig.Params = append(sig.Params, c.resolveTypeName(p.Type))
	}
	if fn.ReturnType != nil {
		sig.Result = c.resolveTypeName(fn.ReturnType)
	}
	c.info.Fns[fn] = sig
	if sym := c.bindings.DeclOf(fn); sym != nil {
		c.info.Symbols[sym] = sig
	}
}

func (c *checker) checkFnBody(fn *ast.FnDecl) {
	sig := c.info.Fns[fn]
	for i, p := range fn.Params {
		if sym := c.bindings.DeclOf(p); sym != nil {
			c.info.Symbols[sym] = sig.Params[i]
		}
	}
	c.result = sig.Result
	c.checkBlock(fn.Body)
}

func (c *checker) checkBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
}

func (c *checker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(s)
	case *ast.Assign:
		c.checkAssign(s)
	case *ast.ExprStmt:
		c.inferExpr(s.X)
	case *ast.Return:
		c.checkReturn(s)
	case *ast.If:
		c.expectExpr(s.Cond, Bool)
		c.checkBlock(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}
	case *ast.While:
		c.expectExpr(s.Cond, Bool)
		c.checkBlock(s.Body)
	case *ast.Block:
		c.checkBlock(s)
	}
}

// checkVarDecl infers the initializer bottom-up and, when an annotation is
// present, checks it top-down against the declared type.
func (c *checker) checkVarDecl(d *ast.VarDecl) {
	initType := c.inferExpr(d.Init)
	if Equal(initType, Unit) {
		c.errorf(ErrMismatch, d.Init.Span(),
			"expression of type Unit cannot be used as a value")
		initType = Unknown
	}

	declared := initType
	if d.Type != nil {
		declared = c.resolveTypeName(d.Type)
		if !IsUnknown(declared) && !IsUnknown(initType) && !Equal(declared, initType) {
			c.mismatch(d.Init.Span(), declared, initType)
		}
	}

	if sym := c.bindings.DeclOf(d); sym != nil {
		c.info.Symbols[sym] = declared
	}
}

func (c *checker) checkAssign(s *ast.Assign) {
	valueType := c.inferExpr(s.Value)

	sym := c.bindings.UseOf(s.Target)
	if sym == nil {
		return // resolver already reported
	}
	if sym.Kind == resolver.SymbolFunc {
		c.errorf(ErrImmutableAssignment, s.Target.Span(),
			"cannot assign to function '%s'", sym.Name)
		return
	}
	targetType := c.info.SymbolType(sym)
	c.info.Types[s.Target] = targetType
	if !IsUnknown(targetType) && !IsUnknown(valueType) && !Equal(targetType, valueType) {
		c.mismatch(s.Value.Span(), targetType, valueType)
	}
}

func (c *checker) checkReturn(s *ast.Return) {
	expected := c.result
	if expected == nil {
		expected = Unit
	}
	if s.Value == nil {
		if !Equal(expected, Unit) {
			c.mismatch(s.Span(), expected, Unit)
		}
		return
	}
	found := c.inferExpr(s.Value)
	if !IsUnknown(expected) && !IsUnknown(found) && !Equal(expected, found) {
		c.mismatch(s.Value.Span(), expected, found)
	}
}

// expectExpr infers an expression and checks it against an expected type.
func (c *checker) expectExpr(e ast.Expr, expected Type) {
	found := c.inferExpr(e)
	if !IsUnknown(expected) && !IsUnknown(found) && !Equal(expected, found) {
		c.mismatch(e.Span(), expected, found)
	}
}

// inferExpr computes an expression's type bottom-up, recording it in the
// side-table. Every expression receives exactly one entry.
func (c *checker) inferExpr(e ast.Expr) Type {
	t := c.inferExprUncached(e)
	c.info.Types[e] = t
	return t
}

func (c *checker) inferExprUncached(e ast.Expr) Type {
	switch e := e.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitInt:
			return Int
		case ast.LitFloat:
			return Float
		case ast.LitBool:
			return Bool
		case ast.LitString:
			return String
		}
		return Unknown

	case *ast.Ident:
		sym := c.bindings.UseOf(e)
		if sym == nil {
			return Unknown
		}
		if sym.Storage == resolver.StorageBuiltin {
			if sig, ok := builtinSignatures[sym.Name]; ok {
				return sig
			}
			return Unknown
		}
		return c.info.SymbolType(sym)

	case *ast.Paren:
		return c.inferExpr(e.X)

	case *ast.Unary:
		return c.inferUnary(e)

	case *ast.Binary:
		return c.inferBinary(e)

	case *ast.Call:
		return c.inferCall(e)
	}
	return Unknown
}

func (c *checker) inferUnary(e *ast.Unary) Type {
	operand := c.inferExpr(e.Operand)
	if IsUnknown(operand) {
		return Unknown
	}
	switch e.Op {
	case "-":
		if !IsNumeric(operand) {
			c.mismatch(e.Operand.Span(), Int, operand)
			return Unknown
		}
		return operand
	case "!":
		if !Equal(operand, Bool) {
			c.mismatch(e.Operand.Span(), Bool, operand)
			return Unknown
		}
		return Bool
	}
	return Unknown
}

func (c *checker) inferBinary(e *ast.Binary) Type {
	left := c.inferExpr(e.Left)
	right := c.inferExpr(e.Right)
	if IsUnknown(left) || IsUnknown(right) {
		// Still produce the operator's result category so one bad operand
		// does not cascade through the whole expression tree.
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return Bool
		}
		return Unknown
	}

	switch e.Op {
	case "+", "-", "*", "/":
		if !IsNumeric(left) {
			c.mismatch(e.Left.Span(), Int, left)
			return Unknown
		}
		if !Equal(left, right) {
			c.mismatch(e.Right.Span(), left, right)
			return Unknown
		}
		return left

	case "<", "<=", ">", ">=":
		if !IsNumeric(left) {
			c.mismatch(e.Left.Span(), Int, left)
			return Bool
		}
		if !Equal(left, right) {
			c.mismatch(e.Right.Span(), left, right)
		}
		return Bool

	case "==", "!=":
		if Equal(left, Unit) {
			c.errorf(ErrMismatch, e.Left.Span(),
				"expression of type Unit cannot be used as a value")
			return Bool
		}
		if Equal(right, Unit) {
			c.errorf(ErrMismatch, e.Right.Span(),
				"expression of type Unit cannot be used as a value")
			return Bool
		}
		if !Equal(left, right) {
			c.mismatch(e.Right.Span(), left, right)
		}
		return Bool

	case "&&", "||":
		if !Equal(left, Bool) {
			c.mismatch(e.Left.Span(), Bool, left)
		}
		if !Equal(right, Bool) {
			c.mismatch(e.Right.Span(), Bool, right)
		}
		return Bool
	}
	return Unknown
}

func (c *checker) inferCall(e *ast.Call) Type {
	calleeType := c.inferExpr(e.Callee)

	var argTypes []Type
	for _, a := range e.Args {
		argTypes = append(argTypes, c.inferExpr(a))
	}

	if IsUnknown(calleeType) {
		return Unknown
	}
	sig, ok := calleeType.(*Function)
	if !ok {
		c.errorf(ErrNotCallable, e.Callee.Span(),
			"expression of type %s is not callable", calleeType)
		return Unknown
	}

	if len(argTypes) != len(sig.Params) {
		c.errorf(ErrArityMismatch, e.Span(),
			"wrong number of arguments: expected %d, found %d", len(sig.Params), len(argTypes))
	} else {
		for i, at := range argTypes {
			if !IsUnknown(sig.Params[i]) && !IsUnknown(at) && !Equal(sig.Params[i], at) {
				c.mismatch(e.Args[i].Span(), sig.Params[i], at)
			}
		}
	}
	return sig.Result
}
