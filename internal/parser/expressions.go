package parser

import (
	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
)

// parseExpr is the Pratt loop: parse a prefix expression, then fold infix
// operators while their precedence binds tighter than the caller's.
func (p *Parser) parseExpr(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected expression, found %s", describeToken(p.curTok))
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.curPrecedence() {
		infix := p.infixFns[p.curTok.Type]
		if infix == nil {
			return left
		}
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Type]; ok {
		return prec
	}
	return precedenceLowest
}

func (p *Parser) parseIdentifier() ast.Expr {
	e := ast.NewIdent(p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return e
}

func (p *Parser) parseIntLiteral() ast.Expr {
	e := ast.NewLiteral(ast.LitInt, p.curTok.Raw, p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return e
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	e := ast.NewLiteral(ast.LitFloat, p.curTok.Raw, p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return e
}

func (p *Parser) parseStringLiteral() ast.Expr {
	e := ast.NewLiteral(ast.LitString, p.curTok.Raw, p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return e
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	e := ast.NewLiteral(ast.LitBool, p.curTok.Raw, p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return e
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	start := p.curTok.Span
	op := p.curTok.Raw
	p.nextToken()

	operand := p.parseExpr(precedencePrefix)
	if operand == nil {
		return nil
	}
	return ast.NewUnary(op, operand, mergeSpan(start, operand.Span()))
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	// Operator spelling is normalized through the token type so `<>` and
	// `!=` produce the same tree.
	op := string(p.curTok.Type)
	precedence := p.curPrecedence()
	p.nextToken()

	right := p.parseExpr(precedence)
	if right == nil {
		return nil
	}
	return ast.NewBinary(op, left, right, mergeSpan(left.Span(), right.Span()))
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	start := p.curTok.Span
	p.nextToken() // consume (

	inner := p.parseExpr(precedenceLowest)
	if inner == nil {
		return nil
	}

	end := p.curTok.Span
	if !p.expect(lexer.RPAREN, "')' to close expression") {
		return nil
	}
	return ast.NewParen(inner, mergeSpan(start, end))
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	p.nextToken() // consume (

	var args []ast.Expr
	for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
		arg := p.parseExpr(precedenceLowest)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.curTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		break
	}

	end := p.curTok.Span
	if !p.expect(lexer.RPAREN, "')' to close argument list") {
		return nil
	}
	return ast.NewCall(callee, args, mergeSpan(callee.Span(), end))
}
