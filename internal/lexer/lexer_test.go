package lexer

import (
	"testing"
)

func TestNextToken_Basic(t *testing.T) {
	input := `x = 1 + 2;`

	tests := []struct {
		expectedType TokenType
		expectedRaw  string
	}{
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "1"},
		{PLUS, "+"},
		{INT, "2"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Raw != tt.expectedRaw {
			t.Fatalf("tests[%d] - raw wrong. expected=%q, got=%q",
				i, tt.expectedRaw, tok.Raw)
		}
	}

	if len(l.Errors) != 0 {
		t.Fatalf("expected no lex errors, got %d", len(l.Errors))
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `= + - * / == != <> < > <= >= && || ! ->`

	tests := []TokenType{
		ASSIGN, PLUS, MINUS, ASTERISK, SLASH,
		EQ, NOT_EQ, NOT_EQ, LT, GT, LE, GE,
		AND, OR, BANG, ARROW, EOF,
	}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `var fn if else while for return true false intish`

	tests := []struct {
		expectedType TokenType
		expectedRaw  string
	}{
		{VAR, "var"},
		{FN, "fn"},
		{IF, "if"},
		{ELSE, "else"},
		{WHILE, "while"},
		{FOR, "for"},
		{RETURN, "return"},
		{TRUE, "true"},
		{FALSE, "false"},
		{IDENT, "intish"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Raw != tt.expectedRaw {
			t.Fatalf("tests[%d] - raw wrong. expected=%q, got=%q",
				i, tt.expectedRaw, tok.Raw)
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input        string
		expectedType TokenType
		expectedRaw  string
	}{
		{"42", INT, "42"},
		{"0", INT, "0"},
		{"3.14", FLOAT, "3.14"},
		{"10.0", FLOAT, "10.0"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("input %q - tokentype wrong. expected=%q, got=%q",
				tt.input, tt.expectedType, tok.Type)
		}
		if tok.Raw != tt.expectedRaw {
			t.Fatalf("input %q - raw wrong. expected=%q, got=%q",
				tt.input, tt.expectedRaw, tok.Raw)
		}
	}
}

// A dot not followed by a digit is not part of the number.
func TestNextToken_NumberDotIdent(t *testing.T) {
	l := New(`1.foo`)

	tests := []struct {
		expectedType TokenType
		expectedRaw  string
	}{
		{INT, "1"},
		{DOT, "."},
		{IDENT, "foo"},
		{EOF, ""},
	}

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType || tok.Raw != tt.expectedRaw {
			t.Fatalf("tests[%d] - expected (%q, %q), got (%q, %q)",
				i, tt.expectedType, tt.expectedRaw, tok.Type, tok.Raw)
		}
	}
}

func TestNextToken_StringEscapes(t *testing.T) {
	input := `"line\n\ttab \"q\" \\ \0"`

	l := New(input)
	tok := l.NextToken()

	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if tok.Raw != input {
		t.Fatalf("raw wrong. expected=%q, got=%q", input, tok.Raw)
	}
	expected := "line\n\ttab \"q\" \\ \x00"
	if tok.Value != expected {
		t.Fatalf("value wrong. expected=%q, got=%q", expected, tok.Value)
	}
	if len(l.Errors) != 0 {
		t.Fatalf("expected no lex errors, got %v", l.Errors)
	}
}

func TestNextToken_SkipsComments(t *testing.T) {
	input := "// leading comment\nvar x = 1; // trailing\n// only comments after\n"

	tests := []TokenType{VAR, IDENT, ASSIGN, INT, SEMICOLON, EOF}

	l := New(input)
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - expected %q, got %q", i, expected, tok.Type)
		}
	}
}

func TestNextToken_Spans(t *testing.T) {
	input := "var x = 1;\nx = x + 1;"

	l := New(input)
	l.SetFilename("main.kin")

	// var
	tok := l.NextToken()
	if tok.Span.Line != 1 || tok.Span.Column != 1 {
		t.Fatalf("var span wrong: %d:%d", tok.Span.Line, tok.Span.Column)
	}
	// x
	tok = l.NextToken()
	if tok.Span.Line != 1 || tok.Span.Column != 5 {
		t.Fatalf("x span wrong: %d:%d", tok.Span.Line, tok.Span.Column)
	}
	if tok.Span.Filename != "main.kin" {
		t.Fatalf("expected filename on span, got %q", tok.Span.Filename)
	}
	// = 1 ;
	l.NextToken()
	l.NextToken()
	l.NextToken()
	// x on line 2
	tok = l.NextToken()
	if tok.Span.Line != 2 || tok.Span.Column != 1 {
		t.Fatalf("second-line span wrong: %d:%d", tok.Span.Line, tok.Span.Column)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := New(`"abc`)
	tok := l.NextToken()

	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %q", tok.Type)
	}
	if len(l.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(l.Errors))
	}
	if l.Errors[0].Kind != ErrUnterminatedString {
		t.Fatalf("expected ErrUnterminatedString, got %v", l.Errors[0].Kind)
	}
}

func TestNextToken_StringAcrossNewline(t *testing.T) {
	l := New("\"abc\nvar")
	tok := l.NextToken()

	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %q", tok.Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrUnterminatedString {
		t.Fatalf("expected one ErrUnterminatedString, got %v", l.Errors)
	}

	// Lexing resumes after the broken string.
	tok = l.NextToken()
	if tok.Type != VAR {
		t.Fatalf("expected VAR after recovery, got %q", tok.Type)
	}
}

func TestNextToken_InvalidEscape(t *testing.T) {
	l := New(`"a\qb"`)
	tok := l.NextToken()

	// The string itself still terminates; the bad escape is reported.
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if len(l.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(l.Errors))
	}
	if l.Errors[0].Kind != ErrInvalidEscape {
		t.Fatalf("expected ErrInvalidEscape, got %v", l.Errors[0].Kind)
	}
	if l.Errors[0].Message != `invalid escape sequence '\q'` {
		t.Fatalf("message wrong: %q", l.Errors[0].Message)
	}
}

func TestNextToken_LoneAmpersandAndPipe(t *testing.T) {
	l := New(`& |`)

	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL for &, got %q", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL for |, got %q", tok.Type)
	}

	if len(l.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(l.Errors))
	}
	for _, e := range l.Errors {
		if e.Kind != ErrUnexpectedChar {
			t.Fatalf("expected ErrUnexpectedChar, got %v", e.Kind)
		}
	}
}

func TestNextToken_UnexpectedRuneRecovers(t *testing.T) {
	l := New(`x # y`)

	tests := []TokenType{IDENT, ILLEGAL, IDENT, EOF}
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - expected %q, got %q", i, expected, tok.Type)
		}
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrUnexpectedChar {
		t.Fatalf("expected one ErrUnexpectedChar, got %v", l.Errors)
	}
}

func TestError_ToDiagnostic(t *testing.T) {
	l := New(`"abc`)
	l.SetFilename("main.kin")
	l.NextToken()

	if len(l.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(l.Errors))
	}
	d := l.Errors[0].ToDiagnostic()
	if got := d.Line(); got != "main.kin:1:1: LexError: unterminated string literal" {
		t.Fatalf("diagnostic line wrong: %q", got)
	}
}
