package parser

import (
	"fmt"

	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
)

// Error captures a recoverable parsing error with location context.
type Error struct {
	Message string
	Span    lexer.Span
	Code    diag.Code
}

// ToDiagnostic converts a parse error into the shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: diag.SeverityError,
		Kind:     diag.KindParse,
		Code:     e.Code,
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

func (p *Parser) errorf(span lexer.Span, code diag.Code, format string, args ...any) {
	p.errors = append(p.errors, Error{
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		Code:    code,
	})
}

// statement boundaries used by recovery: tokens that plausibly start a new
// statement or declaration.
var syncStart = map[lexer.TokenType]bool{
	lexer.FN:     true,
	lexer.VAR:    true,
	lexer.IF:     true,
	lexer.WHILE:  true,
	lexer.FOR:    true,
	lexer.RETURN: true,
}

// synchronize discards tokens until a statement-starting keyword or a
// statement terminator, so one syntax error does not cascade into spurious
// reports for the rest of the file.
func (p *Parser) synchronize() {
	for p.curTok.Type != lexer.EOF {
		if p.curTok.Type == lexer.SEMICOLON {
			p.nextToken() // the terminator itself is consumed
			return
		}
		if p.curTok.Type == lexer.RBRACE {
			// Leave the brace for the enclosing block to consume.
			return
		}
		if syncStart[p.curTok.Type] {
			return
		}
		p.nextToken()
	}
}
