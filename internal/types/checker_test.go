package types_test

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/parser"
	"github.com/kindred-lang/kindred/internal/resolver"
	"github.com/kindred-lang/kindred/internal/types"
)

func check(t *testing.T, input string) (*ast.Program, *types.Info, []types.Error) {
	t.Helper()
	p := parser.New(input, parser.WithFilename("main.kin"))
	program := p.ParseProgram()
	be.Equal(t, len(p.LexErrors()), 0)
	be.Equal(t, len(p.Errors()), 0)

	bindings, nameErrs := resolver.Resolve(program)
	be.Equal(t, len(nameErrs), 0)

	info, errs := types.Check(program, bindings)
	return program, info, errs
}

func TestCheck_AnnotatedMismatch(t *testing.T) {
	program, _, errs := check(t, `
fn main() -> Int {
    var x: Int = true;
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrMismatch)
	be.Equal(t, errs[0].Expected, types.Type(types.Int))
	be.Equal(t, errs[0].Found, types.Type(types.Bool))
	be.Equal(t, errs[0].Message, "mismatched types: expected Int, found Bool")

	// The error is reported at the initializer, not the declaration.
	fn := program.Decls[0].(*ast.FnDecl)
	decl := fn.Body.Stmts[0].(*ast.VarDecl)
	be.Equal(t, errs[0].Span, decl.Init.Span())
}

func TestCheck_InferenceFromInitializer(t *testing.T) {
	program, info, errs := check(t, `
fn main() -> Int {
    var s = "text";
    var f = 1.5;
    var b = true;
    var n = 7;
    return n;
}
`)

	be.Equal(t, len(errs), 0)

	fn := program.Decls[0].(*ast.FnDecl)
	wants := []types.Type{types.String, types.Float, types.Bool, types.Int}
	for i, want := range wants {
		decl := fn.Body.Stmts[i].(*ast.VarDecl)
		be.True(t, types.Equal(info.TypeOf(decl.Init), want))
	}
}

func TestCheck_ArithmeticAndComparison(t *testing.T) {
	tests := []struct {
		src     string
		errors  int
		message string
	}{
		{"fn f() -> Int {\n    return 1 + 2 * 3;\n}", 0, ""},
		{"fn f() -> Float {\n    return 1.5 / 0.5;\n}", 0, ""},
		{"fn f() -> Bool {\n    return 1 < 2;\n}", 0, ""},
		{"fn f() -> Bool {\n    return 1.0 >= 2.0;\n}", 0, ""},
		{"fn f() -> Bool {\n    return \"a\" == \"b\";\n}", 0, ""},
		{"fn f() -> Int {\n    return 1 + 1.5;\n}", 1,
			"mismatched types: expected Int, found Float"},
		{"fn f() -> Int {\n    return \"a\" + \"b\";\n}", 1,
			"mismatched types: expected Int, found String"},
		{"fn f() -> Bool {\n    return 1 == true;\n}", 1,
			"mismatched types: expected Int, found Bool"},
		{"fn f() -> Bool {\n    return true && 1;\n}", 1,
			"mismatched types: expected Bool, found Int"},
	}

	for _, tt := range tests {
		_, _, errs := check(t, tt.src)
		be.Equal(t, len(errs), tt.errors)
		if tt.errors > 0 {
			be.Equal(t, errs[0].Message, tt.message)
		}
	}
}

func TestCheck_UnaryOperators(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    var a = -1;
    var b = -1.5;
    var c = !true;
    return a;
}
`)
	be.Equal(t, len(errs), 0)

	_, _, errs = check(t, `
fn main() -> Int {
    var a = -true;
    var b = !1;
    return 0;
}
`)
	be.Equal(t, len(errs), 2)
}

func TestCheck_ConditionMustBeBool(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    if 1 {
        return 1;
    }
    while "s" {
        return 2;
    }
    return 0;
}
`)

	be.Equal(t, len(errs), 2)
	be.Equal(t, errs[0].Kind, types.ErrMismatch)
	be.Equal(t, errs[1].Kind, types.ErrMismatch)
}

func TestCheck_ReturnTypes(t *testing.T) {
	// Bare return in a function returning Int.
	_, _, errs := check(t, `
fn f() -> Int {
    return;
}
`)
	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Message, "mismatched types: expected Int, found Unit")

	// Value return in a Unit function.
	_, _, errs = check(t, `
fn f() {
    return 1;
}
`)
	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Message, "mismatched types: expected Unit, found Int")

	// Bare return in a Unit function is fine.
	_, _, errs = check(t, `
fn f() {
    return;
}
`)
	be.Equal(t, len(errs), 0)
}

// A call yielding Unit has no value to bind or compare.
func TestCheck_UnitValueRejected(t *testing.T) {
	_, _, errs := check(t, `
fn nothing() {
    print("side effect");
}

fn main() -> Int {
    var u = nothing();
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrMismatch)
	be.Equal(t, errs[0].Message, "expression of type Unit cannot be used as a value")
}

func TestCheck_UnitComparisonRejected(t *testing.T) {
	_, _, errs := check(t, `
fn nothing() {
    print("side effect");
}

fn main() -> Int {
    if nothing() == nothing() {
        return 1;
    }
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrMismatch)
	be.Equal(t, errs[0].Message, "expression of type Unit cannot be used as a value")
}

func TestCheck_CallArity(t *testing.T) {
	_, _, errs := check(t, `
fn add(a: Int, b: Int) -> Int {
    return a + b;
}

fn main() -> Int {
    return add(1);
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrArityMismatch)
	be.Equal(t, errs[0].Message, "wrong number of arguments: expected 2, found 1")
}

func TestCheck_CallArgumentTypes(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    print_int("not an int");
    print(42);
    return 0;
}
`)

	be.Equal(t, len(errs), 2)
	be.Equal(t, errs[0].Message, "mismatched types: expected Int, found String")
	be.Equal(t, errs[1].Message, "mismatched types: expected String, found Int")
}

func TestCheck_NotCallable(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    var x = 5;
    x(3);
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrNotCallable)
	be.Equal(t, errs[0].Message, "expression of type Int is not callable")
}

func TestCheck_AssignToFunction(t *testing.T) {
	_, _, errs := check(t, `
fn helper() -> Int {
    return 1;
}

fn main() -> Int {
    helper = 3;
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrImmutableAssignment)
}

func TestCheck_AssignmentTypes(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    var x = 1;
    x = 2;
    x = true;
    return x;
}
`)

	be.Equal(t, len(errs), 1)
	be.Equal(t, errs[0].Kind, types.ErrMismatch)
}

func TestCheck_UnknownTypeName(t *testing.T) {
	_, _, errs := check(t, `
fn f(a: Str) -> Int {
    return 0;
}

fn main() -> Int {
    return f(1);
}
`)

	// One for the annotation; the call argument against Unknown is suppressed.
	found := 0
	for _, e := range errs {
		if e.Kind == types.ErrUnknownType {
			found++
		}
	}
	be.Equal(t, found, 1)
	be.Equal(t, len(errs), 1)
}

// A single bad subexpression must not cascade into errors for every
// enclosing expression.
func TestCheck_UnknownSuppression(t *testing.T) {
	p := parser.New(`
fn main() -> Int {
    var x = missing + 1;
    if x < 2 {
        return x;
    }
    return 0;
}
`)
	program := p.ParseProgram()
	be.Equal(t, len(p.Errors()), 0)

	bindings, nameErrs := resolver.Resolve(program)
	be.Equal(t, len(nameErrs), 1)

	_, errs := types.Check(program, bindings)
	be.Equal(t, len(errs), 0)
}

func TestCheck_GlobalsInSourceOrder(t *testing.T) {
	program, info, errs := check(t, `
var limit: Int = 100;

fn main() -> Int {
    return limit;
}
`)

	be.Equal(t, len(errs), 0)
	fn := program.Decls[1].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	be.True(t, types.Equal(info.TypeOf(ret.Value), types.Int))
}

func TestError_ToDiagnostic(t *testing.T) {
	_, _, errs := check(t, `
fn main() -> Int {
    var x: Int = true;
    return 0;
}
`)

	be.Equal(t, len(errs), 1)
	d := errs[0].ToDiagnostic()
	be.Equal(t, d.Line(), "main.kin:3:18: TypeError: mismatched types: expected Int, found Bool")
}
