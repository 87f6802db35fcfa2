// Package langtest extracts end-to-end language test cases from markdown
// documents. A heading starting with "Test: " opens a case, a fenced
// `kindred` block holds its source and the `tokens`, `ast` and `diagnostics`
// fences hold the expected outputs. Cases live under testdata/.
package langtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SourceFence is the fence language holding the case's input program.
const SourceFence = "kindred"

// AssertKind is the fence language of an expectation block.
type AssertKind string

const (
	// AssertTokens expects the token stream, one token per line.
	AssertTokens AssertKind = "tokens"
	// AssertAST expects the pretty-printed program.
	AssertAST AssertKind = "ast"
	// AssertDiagnostics expects the one-line form of every diagnostic.
	AssertDiagnostics AssertKind = "diagnostics"
)

// Assertion is one expectation block inside a case.
type Assertion struct {
	Kind    AssertKind
	Content string
}

// Case is a named source program with its expectations.
type Case struct {
	Name       string
	Source     string
	Assertions []Assertion
}

// ExtractCases parses a markdown document into test cases. Malformed suites
// (a case without source, an unknown fence language) are reported as errors
// rather than silently skipped.
func ExtractCases(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var cur *Case

	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.Source == "" {
			return fmt.Errorf("test '%s' has no %s fence", cur.Name, SourceFence)
		}
		if len(cur.Assertions) == 0 {
			return fmt.Errorf("test '%s' has no assertion fences", cur.Name)
		}
		cases = append(cases, *cur)
		cur = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := headingText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimPrefix(heading, "Test: ")}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("%s fence outside of a test case", lang)
			}
			content := strings.TrimRight(fenceContent(n, source), "\n")
			switch lang {
			case SourceFence:
				if cur.Source != "" {
					return ast.WalkStop, fmt.Errorf("test '%s' has multiple %s fences", cur.Name, SourceFence)
				}
				cur.Source = content
			case string(AssertTokens), string(AssertAST), string(AssertDiagnostics):
				cur.Assertions = append(cur.Assertions, Assertion{
					Kind:    AssertKind(lang),
					Content: content,
				})
			default:
				return ast.WalkStop, fmt.Errorf("test '%s' has unknown fence language '%s'", cur.Name, lang)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}
