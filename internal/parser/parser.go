package parser

import (
	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

const (
	precedenceLowest = iota
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedenceCall
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.LPAREN:   precedenceCall,
}

// Parser implements a Pratt-style recursive descent parser for Kindred.
// Invariants:
//   - Lookahead: curTok always reflects the token currently under
//     examination; peekTok mirrors the next token pulled from the lexer. The
//     pair forms the parser's sole lookahead window and is only mutated via
//     nextToken.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     parse errors. Callers consult Errors() after ParseProgram; a partial
//     AST is still returned so later stages can surface independent errors.
//   - Recovery: on an unexpected token, synchronize() discards tokens until
//     a statement-starting keyword or statement terminator, then parsing
//     resumes.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []Error

	filename string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.New(input),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
		filename:  cfg.filename,
	}

	if cfg.filename != "" {
		p.lx.SetFilename(cfg.filename)
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)

	p.registerInfix(lexer.PLUS, p.parseInfixExpr)
	p.registerInfix(lexer.MINUS, p.parseInfixExpr)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpr)
	p.registerInfix(lexer.SLASH, p.parseInfixExpr)
	p.registerInfix(lexer.EQ, p.parseInfixExpr)
	p.registerInfix(lexer.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(lexer.LT, p.parseInfixExpr)
	p.registerInfix(lexer.LE, p.parseInfixExpr)
	p.registerInfix(lexer.GT, p.parseInfixExpr)
	p.registerInfix(lexer.GE, p.parseInfixExpr)
	p.registerInfix(lexer.AND, p.parseInfixExpr)
	p.registerInfix(lexer.OR, p.parseInfixExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)

	// Fill the two-token lookahead window.
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokType] = fn
}

func (p *Parser) registerInfix(tokType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokType] = fn
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
}

// Errors returns the parse errors collected so far, in source order.
func (p *Parser) Errors() []Error {
	return p.errors
}

// LexErrors returns the lexical errors recorded by the underlying lexer.
func (p *Parser) LexErrors() []lexer.Error {
	return p.lx.Errors
}

// ParseProgram parses a complete translation unit. A (possibly partial)
// program is always returned; callers must check Errors and LexErrors.
func (p *Parser) ParseProgram() *ast.Program {
	start := p.curTok.Span
	var decls []ast.Decl

	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.FN:
			if d := p.parseFnDecl(); d != nil {
				decls = append(decls, d)
			}
		case lexer.VAR:
			if d := p.parseVarDecl(); d != nil {
				decls = append(decls, d)
			}
		case lexer.ILLEGAL:
			// The lexer already reported this rune; skip it.
			p.nextToken()
		default:
			p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
				"expected declaration, found %s", describeToken(p.curTok))
			p.nextToken()
			p.synchronize()
		}
	}

	end := p.curTok.Span
	return ast.NewProgram(decls, mergeSpan(start, end))
}

// parseFnDecl parses `fn name(params) [-> Type] { ... }`.
// The fn keyword is current on entry.
func (p *Parser) parseFnDecl() *ast.FnDecl {
	start := p.curTok.Span
	p.nextToken() // consume fn

	if p.curTok.Type != lexer.IDENT {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected function name, found %s", describeToken(p.curTok))
		p.synchronize()
		return nil
	}
	name := ast.NewIdent(p.curTok.Value, p.curTok.Span)
	p.nextToken()

	if !p.expect(lexer.LPAREN, "'(' after function name") {
		p.synchronize()
		return nil
	}

	var params []*ast.Param
	for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
		param := p.parseParam()
		if param == nil {
			p.synchronize()
			return nil
		}
		params = append(params, param)
		if p.curTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(lexer.RPAREN, "')' after parameters") {
		p.synchronize()
		return nil
	}

	var retType *ast.TypeName
	if p.curTok.Type == lexer.ARROW {
		p.nextToken()
		retType = p.parseTypeName()
		if retType == nil {
			p.synchronize()
			return nil
		}
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return ast.NewFnDecl(name, params, retType, body, mergeSpan(start, body.Span()))
}

// parseParam parses `name: Type`.
func (p *Parser) parseParam() *ast.Param {
	if p.curTok.Type != lexer.IDENT {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected parameter name, found %s", describeToken(p.curTok))
		return nil
	}
	name := ast.NewIdent(p.curTok.Value, p.curTok.Span)
	p.nextToken()

	if !p.expect(lexer.COLON, "':' after parameter name") {
		return nil
	}
	typ := p.parseTypeName()
	if typ == nil {
		return nil
	}
	return ast.NewParam(name, typ, mergeSpan(name.Span(), typ.Span()))
}

// parseVarDecl parses `var name [: Type] = expr ;`.
// The var keyword is current on entry.
func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.curTok.Span
	p.nextToken() // consume var

	if p.curTok.Type != lexer.IDENT {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected variable name, found %s", describeToken(p.curTok))
		p.synchronize()
		return nil
	}
	name := ast.NewIdent(p.curTok.Value, p.curTok.Span)
	p.nextToken()

	var typ *ast.TypeName
	if p.curTok.Type == lexer.COLON {
		p.nextToken()
		typ = p.parseTypeName()
		if typ == nil {
			p.synchronize()
			return nil
		}
	}

	if !p.expect(lexer.ASSIGN, "'=' in variable declaration") {
		p.synchronize()
		return nil
	}

	init := p.parseExpr(precedenceLowest)
	if init == nil {
		p.synchronize()
		return nil
	}

	end := p.curTok.Span
	if !p.expect(lexer.SEMICOLON, "';' after declaration") {
		p.synchronize()
		return nil
	}

	return ast.NewVarDecl(name, typ, init, mergeSpan(start, end))
}

// parseTypeName parses a named type annotation.
func (p *Parser) parseTypeName() *ast.TypeName {
	if p.curTok.Type != lexer.IDENT {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected type name, found %s", describeToken(p.curTok))
		return nil
	}
	t := ast.NewTypeName(p.curTok.Value, p.curTok.Span)
	p.nextToken()
	return t
}

// expect consumes the current token if it has the wanted type, otherwise it
// records an error and leaves the token in place.
func (p *Parser) expect(tokType lexer.TokenType, what string) bool {
	if p.curTok.Type != tokType {
		p.errorf(p.curTok.Span, diag.CodeParseUnexpectedToken,
			"expected %s, found %s", what, describeToken(p.curTok))
		return false
	}
	p.nextToken()
	return true
}

// mergeSpan returns a span covering both arguments. The end never precedes
// the start, keeping node spans monotonic.
func mergeSpan(a, b lexer.Span) lexer.Span {
	merged := a
	if b.End > merged.End {
		merged.End = b.End
	}
	return merged
}

func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.IDENT, lexer.INT, lexer.FLOAT:
		return "'" + tok.Raw + "'"
	case lexer.STRING:
		return "string literal"
	default:
		if tok.Raw != "" {
			return "'" + tok.Raw + "'"
		}
		return "'" + string(tok.Type) + "'"
	}
}
