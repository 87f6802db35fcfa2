package x86_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/kindred-lang/kindred/internal/codegen/x86"
	"github.com/kindred-lang/kindred/internal/ir"
	"github.com/kindred-lang/kindred/internal/parser"
	"github.com/kindred-lang/kindred/internal/resolver"
	"github.com/kindred-lang/kindred/internal/types"
)

func lowerSource(t *testing.T, input string) *ir.Program {
	t.Helper()
	p := parser.New(input)
	program := p.ParseProgram()
	be.Equal(t, len(p.LexErrors()), 0)
	be.Equal(t, len(p.Errors()), 0)

	bindings, nameErrs := resolver.Resolve(program)
	be.Equal(t, len(nameErrs), 0)
	info, typeErrs := types.Check(program, bindings)
	be.Equal(t, len(typeErrs), 0)

	prog, lowerErrs := ir.Lower(program, bindings, info)
	be.Equal(t, len(lowerErrs), 0)
	return prog
}

const sampleSource = `
var greeting = "hello";
var limit: Int = 3;

fn double(n: Int) -> Int {
    return n * 2;
}

fn main() -> Int {
    print(greeting);
    var i = 0;
    while i < limit {
        print_int(double(i));
        i = i + 1;
    }
    return 0;
}
`

// Same program, byte-identical assembly.
func TestGenerate_Deterministic(t *testing.T) {
	a := x86.Generate(lowerSource(t, sampleSource), false)
	b := x86.Generate(lowerSource(t, sampleSource), false)
	be.Equal(t, a, b)

	// Debug annotation is deterministic too.
	c := x86.Generate(lowerSource(t, sampleSource), true)
	d := x86.Generate(lowerSource(t, sampleSource), true)
	be.Equal(t, c, d)
}

func TestGenerate_Structure(t *testing.T) {
	asm := x86.Generate(lowerSource(t, sampleSource), false)

	for _, want := range []string{
		"\t.section .rodata\n",
		"\t.data\n",
		"\t.text\n",
		"\t.globl main\n",
		"main:\n",
		"\t.globl double\n",
		"double:\n",
		"\tpushq %rbp\n",
		"\tmovq %rsp, %rbp\n",
		"\tleave\n",
		"\tret\n",
		// globals with their initializers
		"greeting:\n",
		"limit:\n",
		"\t.quad 3\n",
		// builtins go through libc
		"\tcall puts\n",
		"\tcall printf\n",
		// user call
		"\tcall double\n",
		"\t.section .note.GNU-stack,\"\",@progbits\n",
	} {
		if !strings.Contains(asm, want) {
			t.Fatalf("assembly missing %q:\n%s", want, asm)
		}
	}
}

func TestGenerate_StringInterning(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
fn main() -> Int {
    print("repeated");
    print("repeated");
    print("other");
    return 0;
}
`), false)

	// ".Lstr0" is the print_int format string; the two identical literals
	// share one label.
	be.Equal(t, strings.Count(asm, ".Lstr1:"), 1)
	be.True(t, strings.Contains(asm, "\t.string \"repeated\"\n"))
	be.Equal(t, strings.Count(asm, "\t.string \"repeated\"\n"), 1)
	be.True(t, strings.Contains(asm, "\t.string \"other\"\n"))
}

func TestGenerate_StringEscapes(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
fn main() -> Int {
    print("a\"b\\c\n\t");
    return 0;
}
`), false)

	be.True(t, strings.Contains(asm, `	.string "a\"b\\c\n\t"`))
}

func TestGenerate_FloatConstants(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
var pi = 3.5;

fn main() -> Int {
    var x = pi * 2.0;
    return 0;
}
`), false)

	// 3.5 is 0x400c000000000000 as IEEE-754 bits.
	be.True(t, strings.Contains(asm, "\t.quad 0x400c000000000000\n"))
	be.True(t, strings.Contains(asm, "\tmulsd %xmm1, %xmm0\n"))
}

func TestGenerate_ComparisonsAndBranches(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
fn main() -> Int {
    var i = 0;
    while i < 10 {
        i = i + 1;
    }
    if i == 10 {
        return 1;
    }
    return 0;
}
`), false)

	for _, want := range []string{
		"\tcmpq %rcx, %rax\n",
		"\tsetl %al\n",
		"\tsete %al\n",
		"\tmovzbq %al, %rax\n",
		"\ttestq %rax, %rax\n",
		"\tjne .Lmain_L2\n",
	} {
		if !strings.Contains(asm, want) {
			t.Fatalf("assembly missing %q:\n%s", want, asm)
		}
	}
}

// String == and != compare contents through strcmp, not the interned rodata
// pointers.
func TestGenerate_StringEquality(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
fn main() -> Int {
    var a = "left";
    if a == "left" {
        print("same");
    }
    if a != "right" {
        print("different");
    }
    return 0;
}
`), false)

	be.Equal(t, strings.Count(asm, "\tcall strcmp\n"), 2)
	be.True(t, strings.Contains(asm, "\tsete %al\n"))
	be.True(t, strings.Contains(asm, "\tsetne %al\n"))
}

func TestGenerate_AnnotationsOnlyInDebug(t *testing.T) {
	release := x86.Generate(lowerSource(t, sampleSource), false)
	debug := x86.Generate(lowerSource(t, sampleSource), true)

	be.True(t, !strings.Contains(release, "\t# "))
	be.True(t, strings.Contains(debug, "\t# "))
	// The IR text shows up in the annotations.
	be.True(t, strings.Contains(debug, "# call print_int(t"))
}

func TestGenerate_FrameAlignment(t *testing.T) {
	asm := x86.Generate(lowerSource(t, `
fn main() -> Int {
    var a = 1;
    return a;
}
`), false)

	// One local and two temps round up to a 32-byte frame.
	be.True(t, strings.Contains(asm, "\tsubq $32, %rsp\n"))
}
