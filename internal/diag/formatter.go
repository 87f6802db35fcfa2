package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Formatter renders diagnostics with the offending source line and a caret
// marker underneath, one diagnostic per header line.
type Formatter struct {
	out         io.Writer
	sourceCache map[string]string // Cache of source files by filename
}

// NewFormatter creates a formatter writing to stderr.
func NewFormatter() *Formatter {
	return NewFormatterTo(os.Stderr)
}

// NewFormatterTo creates a formatter writing to the given writer.
func NewFormatterTo(out io.Writer) *Formatter {
	return &Formatter{
		out:         out,
		sourceCache: make(map[string]string),
	}
}

// AddSource registers in-memory source text for a filename, bypassing disk.
func (f *Formatter) AddSource(filename, src string) {
	f.sourceCache[filename] = src
}

// LoadSource loads source code for a file (cached).
func (f *Formatter) LoadSource(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	if src, ok := f.sourceCache[filename]; ok {
		return src, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	src := string(data)
	f.sourceCache[filename] = src
	return src, nil
}

// Format prints a single diagnostic: the header line, then the source line
// with a caret under the offending column when the source is available.
func (f *Formatter) Format(d Diagnostic) {
	fmt.Fprintln(f.out, d.Line())

	if d.Span.IsValid() {
		if src, err := f.LoadSource(d.Span.Filename); err == nil && src != "" {
			f.printSnippet(src, d.Span)
		}
	}

	for _, note := range d.Notes {
		fmt.Fprintf(f.out, "  note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.out, "  help: %s\n", d.Help)
	}
}

// FormatAll prints every diagnostic in order.
func (f *Formatter) FormatAll(diags []Diagnostic) {
	for _, d := range diags {
		f.Format(d)
	}
}

func (f *Formatter) printSnippet(src string, span Span) {
	lines := strings.Split(src, "\n")
	if span.Line < 1 || span.Line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[span.Line-1], "\r")
	fmt.Fprintf(f.out, "    %s\n", text)

	// The caret column is 1-based; tabs in the prefix are preserved so the
	// marker stays aligned in terminals.
	runes := []rune(text)
	col := span.Column
	if col > len(runes)+1 {
		col = len(runes) + 1
	}
	var pad strings.Builder
	for _, r := range runes[:col-1] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	fmt.Fprintf(f.out, "    %s^\n", pad.String())
}
