package ast

import (
	"fmt"
	"strings"
)

// Print renders a program back to Kindred source text. The output re-parses
// to a structurally equal tree (see Equal), which is the contract the
// round-trip tests rely on: parenthesization is reproduced from Paren nodes
// rather than re-derived from precedence.
func Print(p *Program) string {
	var b strings.Builder
	for i, d := range p.Decls {
		if i > 0 {
			b.WriteString("\n")
		}
		printDecl(&b, d)
	}
	return b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

func printDecl(b *strings.Builder, d Decl) {
	switch d := d.(type) {
	case *FnDecl:
		b.WriteString("fn ")
		b.WriteString(d.Name.Name)
		b.WriteString("(")
		for i, p := range d.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name.Name)
			b.WriteString(": ")
			b.WriteString(p.Type.Name)
		}
		b.WriteString(")")
		if d.ReturnType != nil {
			b.WriteString(" -> ")
			b.WriteString(d.ReturnType.Name)
		}
		b.WriteString(" ")
		printBlock(b, d.Body, 0)
		b.WriteString("\n")
	case *VarDecl:
		printVarDecl(b, d)
		b.WriteString("\n")
	default:
		panic(fmt.Sprintf("ast: unhandled declaration %T", d))
	}
}

func printVarDecl(b *strings.Builder, d *VarDecl) {
	b.WriteString("var ")
	b.WriteString(d.Name.Name)
	if d.Type != nil {
		b.WriteString(": ")
		b.WriteString(d.Type.Name)
	}
	b.WriteString(" = ")
	printExpr(b, d.Init)
	b.WriteString(";")
}

func printBlock(b *strings.Builder, blk *Block, depth int) {
	b.WriteString("{\n")
	for _, s := range blk.Stmts {
		printStmt(b, s, depth+1)
	}
	indent(b, depth)
	b.WriteString("}")
}

func printStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch s := s.(type) {
	case *VarDecl:
		printVarDecl(b, s)
	case *Assign:
		b.WriteString(s.Target.Name)
		b.WriteString(" = ")
		printExpr(b, s.Value)
		b.WriteString(";")
	case *ExprStmt:
		printExpr(b, s.X)
		b.WriteString(";")
	case *Return:
		b.WriteString("return")
		if s.Value != nil {
			b.WriteString(" ")
			printExpr(b, s.Value)
		}
		b.WriteString(";")
	case *If:
		printIf(b, s, depth)
	case *While:
		b.WriteString("while ")
		printExpr(b, s.Cond)
		b.WriteString(" ")
		printBlock(b, s.Body, depth)
	case *Block:
		printBlock(b, s, depth)
	default:
		panic(fmt.Sprintf("ast: unhandled statement %T", s))
	}
	b.WriteString("\n")
}

func printIf(b *strings.Builder, s *If, depth int) {
	b.WriteString("if ")
	printExpr(b, s.Cond)
	b.WriteString(" ")
	printBlock(b, s.Then, depth)
	switch els := s.Else.(type) {
	case nil:
	case *If:
		b.WriteString(" else ")
		printIf(b, els, depth)
	case *Block:
		b.WriteString(" else ")
		printBlock(b, els, depth)
	}
}

func printExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Ident:
		b.WriteString(e.Name)
	case *Literal:
		b.WriteString(e.Raw)
	case *Binary:
		printExpr(b, e.Left)
		b.WriteString(" ")
		b.WriteString(e.Op)
		b.WriteString(" ")
		printExpr(b, e.Right)
	case *Unary:
		b.WriteString(e.Op)
		printExpr(b, e.Operand)
	case *Call:
		printExpr(b, e.Callee)
		b.WriteString("(")
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, a)
		}
		b.WriteString(")")
	case *Paren:
		b.WriteString("(")
		printExpr(b, e.X)
		b.WriteString(")")
	default:
		panic(fmt.Sprintf("ast: unhandled expression %T", e))
	}
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("    ")
	}
}
