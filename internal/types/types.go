package types

import "strings"

// Type is the closed set of Kindred types. Equality is structural.
type Type interface {
	String() string
	typeNode()
}

// BasicKind enumerates the primitive types.
type BasicKind int

const (
	KindUnknown BasicKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindUnit
)

// Basic is a primitive type. The package-level singletons below are the
// canonical instances; structural equality still compares by kind so
// constructed values behave identically.
type Basic struct {
	Kind BasicKind
	name string
}

func (b *Basic) String() string { return b.name }
func (*Basic) typeNode()        {}

var (
	Unknown = &Basic{KindUnknown, "Unknown"}
	Int     = &Basic{KindInt, "Int"}
	Float   = &Basic{KindFloat, "Float"}
	Bool    = &Basic{KindBool, "Bool"}
	String  = &Basic{KindString, "String"}
	Unit    = &Basic{KindUnit, "Unit"}
)

// Function is a function type.
type Function struct {
	Params []Type
	Result Type
}

func (f *Function) String() string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(")")
	if f.Result != nil && !Equal(f.Result, Unit) {
		b.WriteString(" -> ")
		b.WriteString(f.Result.String())
	}
	return b.String()
}

func (*Function) typeNode() {}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case *Basic:
		b, ok := b.(*Basic)
		return ok && a.Kind == b.Kind
	case *Function:
		b, ok := b.(*Function)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Result, b.Result)
	}
	return false
}

// IsNumeric reports whether t supports arithmetic and ordering operators.
func IsNumeric(t Type) bool {
	return Equal(t, Int) || Equal(t, Float)
}

// IsUnknown reports whether t is the pre-inference placeholder. Checks
// against Unknown operands are suppressed to avoid cascading diagnostics.
func IsUnknown(t Type) bool {
	return Equal(t, Unknown)
}

// ByName resolves a source-level type name. The boolean is false for names
// outside the primitive set.
func ByName(name string) (Type, bool) {
	switch name {
	case "Int":
		return Int, true
	case "Float":
		return Float, true
	case "Bool":
		return Bool, true
	case "String":
		return String, true
	default:
		return Unknown, false
	}
}
