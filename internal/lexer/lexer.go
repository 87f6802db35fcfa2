package lexer

import (
	"strconv"
	"unicode"

	"github.com/kindred-lang/kindred/internal/diag"
)

type ErrorKind int

const (
	ErrUnterminatedString ErrorKind = iota
	ErrInvalidEscape
	ErrUnexpectedChar
)

// Error is a recoverable lexical error. Lexing never aborts the file: the
// lexer records the error, emits an ILLEGAL token and resumes at the next
// plausible boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString:
		return diag.CodeLexUnterminatedString
	case ErrInvalidEscape:
		return diag.CodeLexInvalidEscape
	case ErrUnexpectedChar:
		return diag.CodeLexUnexpectedChar
	default:
		return diag.Code("LEX_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into the shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Kind:     diag.KindLex,
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

// Lexer represents the lexer state
type Lexer struct {
	input    []rune
	pos      int  // index of the current rune
	ch       rune // current rune (0 = EOF)
	line     int  // current line number (1-based)
	column   int  // current column number (1-based)
	filename string

	Errors []Error
}

func (l *Lexer) addError(kind ErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, Error{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

// New creates a new lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{
		input:  []rune(input),
		pos:    -1, // start before first rune
		ch:     0,
		line:   1,
		column: 0, // will be 1 after first read()
	}
	l.read() // move to first character
	return l
}

// SetFilename attributes all emitted spans to the provided filename.
func (l *Lexer) SetFilename(name string) {
	l.filename = name
}

// read advances the lexer to the next character, keeping line/column in step
// with the rune at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1
	inputLen := len(l.input)

	if l.pos >= inputLen {
		if prevPos >= 0 && prevPos < inputLen {
			if l.input[prevPos] == '\n' {
				l.line++
				l.column = 1
			} else {
				l.column++
			}
		} else if prevPos < 0 {
			l.column = 1
		}
		l.ch = 0 // EOF
		return
	}

	l.ch = l.input[l.pos]

	if prevPos >= 0 && l.input[prevPos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// peek returns the next character without advancing
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) currentSpanStart() (line, column, pos int) {
	return l.line, l.column, l.pos
}

func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos, endPos int, raw, value string) Token {
	return Token{
		Type:  tokType,
		Raw:   raw,
		Value: value,
		Span: Span{
			Filename: l.filename,
			Line:     startLine,
			Column:   startColumn,
			Start:    startPos,
			End:      endPos,
		},
	}
}

// single emits a one-rune token for the current character.
func (l *Lexer) single(tokType TokenType) Token {
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, raw, raw)
}

// pair emits a two-rune token (the current character plus its peeked pair).
func (l *Lexer) pair(tokType TokenType) Token {
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch)
	l.read()
	raw += string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, raw, raw)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.read()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.read()
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads an integer or float literal using maximal munch: a dot is
// consumed only when followed by a digit, so `1.foo` lexes as INT DOT IDENT.
func (l *Lexer) readNumber() (string, TokenType) {
	start := l.pos
	for isDigit(l.ch) {
		l.read()
	}
	tokType := INT
	if l.ch == '.' && isDigit(l.peek()) {
		tokType = FLOAT
		l.read() // consume '.'
		for isDigit(l.ch) {
			l.read()
		}
	}
	return string(l.input[start:l.pos]), tokType
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		switch l.ch {
		case 0:
			startLine, startColumn, startPos := l.currentSpanStart()
			if startColumn == 0 {
				startColumn = 1
			}
			return l.makeToken(EOF, startLine, startColumn, startPos, startPos, "", "")

		case '=':
			if l.peek() == '=' {
				return l.pair(EQ)
			}
			return l.single(ASSIGN)

		case '+':
			return l.single(PLUS)

		case '-':
			if l.peek() == '>' {
				return l.pair(ARROW)
			}
			return l.single(MINUS)

		case '!':
			if l.peek() == '=' {
				return l.pair(NOT_EQ)
			}
			return l.single(BANG)

		case '*':
			return l.single(ASTERISK)

		case '/':
			if l.peek() == '/' {
				l.skipLineComment()
				continue
			}
			return l.single(SLASH)

		case '&':
			if l.peek() == '&' {
				return l.pair(AND)
			}
			return l.illegalRune("expected '&&'")

		case '|':
			if l.peek() == '|' {
				return l.pair(OR)
			}
			return l.illegalRune("expected '||'")

		case '<':
			if l.peek() == '=' {
				return l.pair(LE)
			}
			if l.peek() == '>' {
				// `<>` is the alternate not-equal spelling.
				return l.pair(NOT_EQ)
			}
			return l.single(LT)

		case '>':
			if l.peek() == '=' {
				return l.pair(GE)
			}
			return l.single(GT)

		case ';':
			return l.single(SEMICOLON)
		case ',':
			return l.single(COMMA)
		case ':':
			return l.single(COLON)
		case '.':
			return l.single(DOT)
		case '(':
			return l.single(LPAREN)
		case ')':
			return l.single(RPAREN)
		case '{':
			return l.single(LBRACE)
		case '}':
			return l.single(RBRACE)
		case '[':
			return l.single(LBRACKET)
		case ']':
			return l.single(RBRACKET)

		case '"':
			startLine, startColumn, startPos := l.currentSpanStart()
			raw, value, terminated := l.readString(startLine, startColumn, startPos)
			if !terminated {
				return l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
			}
			return l.makeToken(STRING, startLine, startColumn, startPos, l.pos, raw, value)

		default:
			if isLetter(l.ch) {
				startLine, startColumn, startPos := l.currentSpanStart()
				literal := l.readIdentifier()
				tokType := LookupIdent(literal)
				return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, literal, literal)
			} else if isDigit(l.ch) {
				startLine, startColumn, startPos := l.currentSpanStart()
				literal, tokType := l.readNumber()
				return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, literal, literal)
			}
			return l.illegalRune("unexpected character " + strconv.Quote(string(l.ch)))
		}
	}
}

// illegalRune records an error for the current rune, emits an ILLEGAL token
// and advances past the offending character.
func (l *Lexer) illegalRune(msg string) Token {
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch)
	l.read()
	tok := l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
	l.addError(ErrUnexpectedChar, msg, tok.Span)
	return tok
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

// readString reads a string literal, handling escape sequences. Strings may
// not span lines. Returns both the raw text and the decoded value, along
// with a flag indicating whether the string was properly terminated.
func (l *Lexer) readString(startLine, startColumn, startPos int) (raw string, value string, terminated bool) {
	var rawRunes []rune
	var decodedRunes []rune

	rawRunes = append(rawRunes, '"')
	l.read() // skip opening quote

	for {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedString,
				"unterminated string literal",
				Span{Filename: l.filename, Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '"' {
			rawRunes = append(rawRunes, '"')
			l.read() // consume closing quote
			return string(rawRunes), string(decodedRunes), true
		}
		if l.ch == '\n' || l.ch == '\r' {
			l.addError(
				ErrUnterminatedString,
				"unterminated string literal before newline",
				Span{Filename: l.filename, Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '\\' {
			escLine, escColumn, escPos := l.currentSpanStart()
			rawRunes = append(rawRunes, '\\')
			l.read() // skip '\'
			if l.ch != 0 {
				rawRunes = append(rawRunes, l.ch)
				switch l.ch {
				case 'n':
					decodedRunes = append(decodedRunes, '\n')
				case 't':
					decodedRunes = append(decodedRunes, '\t')
				case 'r':
					decodedRunes = append(decodedRunes, '\r')
				case '\\':
					decodedRunes = append(decodedRunes, '\\')
				case '"':
					decodedRunes = append(decodedRunes, '"')
				case '0':
					decodedRunes = append(decodedRunes, 0)
				default:
					l.addError(
						ErrInvalidEscape,
						"invalid escape sequence '\\"+string(l.ch)+"'",
						Span{Filename: l.filename, Line: escLine, Column: escColumn, Start: escPos, End: l.pos + 1},
					)
					decodedRunes = append(decodedRunes, l.ch)
				}
				l.read() // skip escaped char
			}
			continue
		}
		rawRunes = append(rawRunes, l.ch)
		decodedRunes = append(decodedRunes, l.ch)
		l.read()
	}

	// Unterminated: return what we have so far.
	return string(rawRunes), string(decodedRunes), false
}
