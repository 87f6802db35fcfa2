package parser

import (
	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
)

// parseBlock parses `{ stmt* }`. The opening brace is current on entry.
func (p *Parser) parseBlock() *ast.Block {
	start := p.curTok.Span
	if !p.expect(lexer.LBRACE, "'{'") {
		p.synchronize()
		return nil
	}

	var stmts []ast.Stmt
	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
	}

	end := p.curTok.Span
	if !p.expect(lexer.RBRACE, "'}' to close block") {
		return ast.NewBlock(stmts, mergeSpan(start, end))
	}
	return ast.NewBlock(stmts, mergeSpan(start, end))
}

// parseStatement dispatches on the statement-starting token. A nil return
// means the statement could not be parsed; recovery has already run.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curTok.Type {
	case lexer.VAR:
		if d := p.parseVarDecl(); d != nil {
			return d
		}
		return nil
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		p.errorf(p.curTok.Span, diag.CodeParseReservedKeyword,
			"'for' is reserved but has no statement form; use 'while'")
		p.nextToken()
		p.synchronize()
		return nil
	case lexer.FN:
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"nested functions are not supported; declare functions at the top level")
		// Parse and discard the declaration so the block's braces stay
		// balanced and the enclosing block keeps parsing.
		p.parseFnDecl()
		return nil
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.LBRACE:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case lexer.ILLEGAL:
		// Already reported by the lexer.
		p.nextToken()
		return nil
	case lexer.SEMICOLON:
		// Stray semicolon: tolerate and move on.
		p.nextToken()
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

// parseIfStmt parses `if expr block [else (if ... | block)]`.
func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume if

	cond := p.parseExpr(precedenceLowest)
	if cond == nil {
		p.synchronize()
		return nil
	}

	then := p.parseBlock()
	if then == nil {
		return nil
	}

	var els ast.Stmt
	end := then.Span()
	if p.curTok.Type == lexer.ELSE {
		p.nextToken()
		if p.curTok.Type == lexer.IF {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
		if els == nil {
			return nil
		}
		end = els.Span()
	}

	return ast.NewIf(cond, then, els, mergeSpan(start, end))
}

// parseWhileStmt parses `while expr block`.
func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume while

	cond := p.parseExpr(precedenceLowest)
	if cond == nil {
		p.synchronize()
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return ast.NewWhile(cond, body, mergeSpan(start, body.Span()))
}

// parseReturnStmt parses `return [expr] ;`.
func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume return

	var value ast.Expr
	if p.curTok.Type != lexer.SEMICOLON {
		value = p.parseExpr(precedenceLowest)
		if value == nil {
			p.synchronize()
			return nil
		}
	}

	end := p.curTok.Span
	if !p.expect(lexer.SEMICOLON, "';' after return") {
		p.synchronize()
		return nil
	}
	return ast.NewReturn(value, mergeSpan(start, end))
}

// parseSimpleStmt parses either an assignment `target = expr ;` or an
// expression statement `expr ;`.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.curTok.Span
	expr := p.parseExpr(precedenceLowest)
	if expr == nil {
		p.synchronize()
		return nil
	}

	if p.curTok.Type == lexer.ASSIGN {
		target, ok := expr.(*ast.Ident)
		if !ok {
			p.errorf(expr.Span(), diag.CodeParseBadAssignTarget,
				"cannot assign to this expression; only variables are assignable")
			p.synchronize()
			return nil
		}
		p.nextToken() // consume =
		value := p.parseExpr(precedenceLowest)
		if value == nil {
			p.synchronize()
			return nil
		}
		end := p.curTok.Span
		if !p.expect(lexer.SEMICOLON, "';' after assignment") {
			p.synchronize()
			return nil
		}
		return ast.NewAssign(target, value, mergeSpan(start, end))
	}

	end := p.curTok.Span
	if !p.expect(lexer.SEMICOLON, "';' after expression") {
		p.synchronize()
		return nil
	}
	return ast.NewExprStmt(expr, mergeSpan(start, end))
}
