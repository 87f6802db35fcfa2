// Package driver orchestrates the compilation pipeline: source file in,
// executable (or accumulated diagnostics) out.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kindred-lang/kindred/internal/build"
	"github.com/kindred-lang/kindred/internal/codegen/x86"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/ir"
	"github.com/kindred-lang/kindred/internal/parser"
	"github.com/kindred-lang/kindred/internal/resolver"
	"github.com/kindred-lang/kindred/internal/types"
)

// Mode selects the build flavor.
type Mode int

const (
	// ModeRelease emits plain assembly and removes the intermediate .s file.
	ModeRelease Mode = iota
	// ModeDebug annotates the assembly with IR comments and keeps the .s file.
	ModeDebug
)

func (m Mode) String() string {
	if m == ModeDebug {
		return "Debug"
	}
	return "Release"
}

// ParseMode maps a CLI mode argument to a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "debug":
		return ModeDebug, nil
	case "release":
		return ModeRelease, nil
	}
	return ModeRelease, fmt.Errorf("unknown mode '%s' (expected Debug or Release)", s)
}

// DefaultOutputDir is where artifacts land unless overridden.
const DefaultOutputDir = "build"

// Options configures a single compilation.
type Options struct {
	SourcePath string
	OutputDir  string // defaults to DefaultOutputDir
	Mode       Mode
	Emitter    *build.Emitter // defaults to build.NewEmitter()
}

// Compile runs the full pipeline on one source file. It returns the path of
// the produced executable and every diagnostic accumulated along the way. No
// artifact is produced, and the returned path is empty, when any diagnostic
// is an error. The error return is reserved for context cancellation.
func Compile(ctx context.Context, opts Options) (string, []diag.Diagnostic, error) {
	src, err := os.ReadFile(opts.SourcePath)
	if err != nil {
		return "", []diag.Diagnostic{ioDiag(opts.SourcePath, "cannot read source file: %v", err)}, nil
	}

	asm, diags := CompileToAssembly(string(src), opts.SourcePath, opts.Mode)
	if diag.HasErrors(diags) {
		return "", diags, nil
	}
	if err := ctx.Err(); err != nil {
		return "", diags, err
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", append(diags, ioDiag(outDir, "cannot create output directory: %v", err)), nil
	}

	base := strings.TrimSuffix(filepath.Base(opts.SourcePath), filepath.Ext(opts.SourcePath))
	asmPath := filepath.Join(outDir, base+".s")
	exePath := filepath.Join(outDir, base)

	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return "", append(diags, ioDiag(asmPath, "cannot write assembly: %v", err)), nil
	}

	emitter := opts.Emitter
	if emitter == nil {
		emitter = build.NewEmitter()
	}
	if berr := emitter.Assemble(ctx, asmPath, exePath); berr != nil {
		return "", append(diags, berr.ToDiagnostic()), nil
	}

	if opts.Mode == ModeRelease {
		// Best effort; the executable is already in place.
		os.Remove(asmPath)
	}

	return exePath, diags, nil
}

// CompileToAssembly runs the pipeline up to code generation without touching
// the filesystem or external tools. Used by Compile and directly by tests
// that assert on assembly output.
func CompileToAssembly(source, filename string, mode Mode) (string, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	p := parser.New(source, parser.WithFilename(filename))
	program := p.ParseProgram()

	for _, e := range p.LexErrors() {
		diags = append(diags, e.ToDiagnostic())
	}
	for _, e := range p.Errors() {
		diags = append(diags, e.ToDiagnostic())
	}
	// Semantic analysis needs a syntactically trustworthy tree.
	if len(diags) > 0 {
		return "", diags
	}

	bindings, nameErrs := resolver.Resolve(program)
	for _, e := range nameErrs {
		diags = append(diags, e.ToDiagnostic())
	}

	// The checker runs even with unresolved names; unresolved uses carry
	// Unknown and further checks on them are suppressed.
	info, typeErrs := types.Check(program, bindings)
	for _, e := range typeErrs {
		diags = append(diags, e.ToDiagnostic())
	}
	if diag.HasErrors(diags) {
		return "", diags
	}

	irProg, lowerErrs := ir.Lower(program, bindings, info)
	for _, e := range lowerErrs {
		diags = append(diags, e.ToDiagnostic())
	}
	if diag.HasErrors(diags) {
		return "", diags
	}

	return x86.Generate(irProg, mode == ModeDebug), diags
}

// Clean removes the output directory and everything in it. Cleaning a
// directory that does not exist is a success, so the operation is idempotent.
func Clean(outputDir string) error {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("clean %s: %w", outputDir, err)
	}
	return nil
}

func ioDiag(path, format string, args ...any) diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageBuild,
		Severity: diag.SeverityError,
		Kind:     diag.KindIo,
		Code:     diag.CodeIoFailure,
		Message:  fmt.Sprintf(format, args...),
		Span:     diag.Span{Filename: path, Line: 1, Column: 1},
	}
}
