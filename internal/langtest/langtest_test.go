package langtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/driver"
	"github.com/kindred-lang/kindred/internal/lexer"
	"github.com/kindred-lang/kindred/internal/parser"
)

// testFilename attributes spans in suite diagnostics.
const testFilename = "main.kin"

func TestLanguageSuite(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, file := range files {
		data, err := os.ReadFile(file)
		be.Err(t, err, nil)

		cases, err := ExtractCases(string(data))
		be.Err(t, err, nil)

		suite := strings.TrimSuffix(filepath.Base(file), ".md")
		for _, tc := range cases {
			t.Run(suite+"/"+tc.Name, func(t *testing.T) {
				runCase(t, tc)
			})
		}
	}
}

func runCase(t *testing.T, tc Case) {
	t.Helper()
	for _, a := range tc.Assertions {
		switch a.Kind {
		case AssertTokens:
			be.Equal(t, renderTokens(tc.Source), a.Content)
		case AssertAST:
			be.Equal(t, renderAST(t, tc.Source), a.Content)
		case AssertDiagnostics:
			be.Equal(t, renderDiagnostics(tc.Source), a.Content)
		}
	}
}

// renderTokens lexes the source and prints one token per line. Tokens whose
// type already spells their text (operators, keywords) print as the bare
// type; the rest carry their raw text in parentheses.
func renderTokens(source string) string {
	lx := lexer.New(source)
	var lines []string
	for {
		tok := lx.NextToken()
		if tok.Type == lexer.EOF {
			break
		}
		switch tok.Type {
		case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.ILLEGAL:
			lines = append(lines, string(tok.Type)+"("+tok.Raw+")")
		default:
			lines = append(lines, string(tok.Type))
		}
	}
	return strings.Join(lines, "\n")
}

// renderAST parses the source and pretty-prints the tree. The case is
// expected to be syntactically valid.
func renderAST(t *testing.T, source string) string {
	t.Helper()
	p := parser.New(source, parser.WithFilename(testFilename))
	program := p.ParseProgram()
	be.Equal(t, len(p.LexErrors()), 0)
	be.Equal(t, len(p.Errors()), 0)
	return strings.TrimRight(ast.Print(program), "\n")
}

// renderDiagnostics runs the full front end and prints the one-line form of
// every accumulated diagnostic.
func renderDiagnostics(source string) string {
	_, diags := driver.CompileToAssembly(source, testFilename, driver.ModeRelease)
	var lines []string
	for _, d := range diags {
		lines = append(lines, d.Line())
	}
	return strings.Join(lines, "\n")
}

func TestExtractCasesErrors(t *testing.T) {
	t.Run("fence outside case", func(t *testing.T) {
		_, err := ExtractCases("```kindred\nvar x = 1;\n```\n")
		be.Err(t, err)
	})
	t.Run("case without source", func(t *testing.T) {
		_, err := ExtractCases("# Test: empty\n\n```diagnostics\n```\n")
		be.Err(t, err)
	})
	t.Run("case without assertions", func(t *testing.T) {
		_, err := ExtractCases("# Test: no asserts\n\n```kindred\nvar x = 1;\n```\n")
		be.Err(t, err)
	})
	t.Run("unknown fence", func(t *testing.T) {
		_, err := ExtractCases("# Test: bad\n\n```kindred\nvar x = 1;\n```\n\n```wasm\n```\n")
		be.Err(t, err)
	})
}
