package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kindred-lang/kindred/internal/types"
)

// Program is a lowered translation unit: globals plus functions, each a list
// of basic blocks ending in exactly one control transfer.
type Program struct {
	Globals []*Global
	Funcs   []*Func
}

// Global is a module-level variable with a constant initializer.
type Global struct {
	Name string
	Type types.Type
	Init Operand // ConstInt, ConstFloat, ConstBool or ConstString
}

// Func is a lowered function.
type Func struct {
	Name    string
	Params  []Local
	Result  types.Type
	Locals  []Local // declared variables, in declaration order (params first)
	Blocks  []*Block
	NumTemp int // number of temporaries allocated during lowering
}

// Local is a named variable slot (parameter or block-local declaration).
type Local struct {
	ID   int
	Name string
	Type types.Type
}

// Temp is a compiler-generated intermediate result slot. Temporaries are
// uniquely numbered within a function and never reused.
type Temp int

func (t Temp) String() string { return "t" + strconv.Itoa(int(t)) }

// Block is a basic block: a straight-line instruction sequence with a single
// terminator.
type Block struct {
	Label  string
	Instrs []Instr
	Term   Terminator
}

// Instr is a non-terminating IR instruction.
type Instr interface {
	instrNode()
	String() string
}

// Terminator transfers control out of a block.
type Terminator interface {
	termNode()
	String() string
}

// Operand is a value consumed by an instruction.
type Operand interface {
	operandNode()
	String() string
}

// TempRef reads a temporary.
type TempRef struct {
	Temp Temp
	Type types.Type
}

func (*TempRef) operandNode()     {}
func (o *TempRef) String() string { return o.Temp.String() }

// ConstInt is an integer constant operand.
type ConstInt struct {
	Value int64
}

func (*ConstInt) operandNode()     {}
func (o *ConstInt) String() string { return strconv.FormatInt(o.Value, 10) }

// ConstFloat is a floating-point constant operand.
type ConstFloat struct {
	Value float64
}

func (*ConstFloat) operandNode()     {}
func (o *ConstFloat) String() string { return strconv.FormatFloat(o.Value, 'g', -1, 64) }

// ConstBool is a boolean constant operand.
type ConstBool struct {
	Value bool
}

func (*ConstBool) operandNode()     {}
func (o *ConstBool) String() string { return strconv.FormatBool(o.Value) }

// ConstString is a string constant operand; the code generator interns the
// value into read-only data.
type ConstString struct {
	Value string
}

func (*ConstString) operandNode()     {}
func (o *ConstString) String() string { return strconv.Quote(o.Value) }

// Copy materializes an operand into a temporary.
type Copy struct {
	Result Temp
	Src    Operand
	Type   types.Type
}

func (*Copy) instrNode()       {}
func (i *Copy) String() string { return fmt.Sprintf("%s = %s", i.Result, i.Src) }

// BinOp applies a binary operator. Type is the operand type; comparison
// results are Bool regardless.
type BinOp struct {
	Op     string // + - * / == != < <= > >=
	Result Temp
	Left   Operand
	Right  Operand
	Type   types.Type
}

func (*BinOp) instrNode() {}
func (i *BinOp) String() string {
	return fmt.Sprintf("%s = %s %s %s", i.Result, i.Left, i.Op, i.Right)
}

// UnOp applies a unary operator (neg, not).
type UnOp struct {
	Op      string // - !
	Result  Temp
	Operand Operand
	Type    types.Type
}

func (*UnOp) instrNode()       {}
func (i *UnOp) String() string { return fmt.Sprintf("%s = %s%s", i.Result, i.Op, i.Operand) }

// LoadLocal reads a local variable into a temporary.
type LoadLocal struct {
	Result Temp
	Local  Local
}

func (*LoadLocal) instrNode()       {}
func (i *LoadLocal) String() string { return fmt.Sprintf("%s = load %s", i.Result, i.Local.Name) }

// StoreLocal writes an operand into a local variable.
type StoreLocal struct {
	Local Local
	Src   Operand
}

func (*StoreLocal) instrNode()       {}
func (i *StoreLocal) String() string { return fmt.Sprintf("store %s, %s", i.Local.Name, i.Src) }

// LoadGlobal reads a module-level variable into a temporary.
type LoadGlobal struct {
	Result Temp
	Name   string
	Type   types.Type
}

func (*LoadGlobal) instrNode()       {}
func (i *LoadGlobal) String() string { return fmt.Sprintf("%s = load @%s", i.Result, i.Name) }

// StoreGlobal writes an operand into a module-level variable.
type StoreGlobal struct {
	Name string
	Src  Operand
	Type types.Type
}

func (*StoreGlobal) instrNode()       {}
func (i *StoreGlobal) String() string { return fmt.Sprintf("store @%s, %s", i.Name, i.Src) }

// Call invokes a function by name. HasResult is false for Unit calls.
type Call struct {
	Result    Temp
	HasResult bool
	Callee    string
	Builtin   bool
	Args      []Operand
	Type      types.Type // result type
}

func (*Call) instrNode() {}
func (i *Call) String() string {
	var args []string
	for _, a := range i.Args {
		args = append(args, a.String())
	}
	call := fmt.Sprintf("call %s(%s)", i.Callee, strings.Join(args, ", "))
	if i.HasResult {
		return fmt.Sprintf("%s = %s", i.Result, call)
	}
	return call
}

// Jump unconditionally transfers to Target.
type Jump struct {
	Target *Block
}

func (*Jump) termNode()        {}
func (t *Jump) String() string { return "jmp " + t.Target.Label }

// Branch transfers to True when Cond is true, otherwise to False.
type Branch struct {
	Cond  Operand
	True  *Block
	False *Block
}

func (*Branch) termNode() {}
func (t *Branch) String() string {
	return fmt.Sprintf("br %s, %s, %s", t.Cond, t.True.Label, t.False.Label)
}

// Ret returns from the function; Value is nil for Unit functions.
type Ret struct {
	Value Operand
}

func (*Ret) termNode() {}
func (t *Ret) String() string {
	if t.Value == nil {
		return "ret"
	}
	return "ret " + t.Value.String()
}

// String renders a function in a readable textual form, used by tests and
// debug output.
func (f *Func) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s:\n", f.Name)
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "%s:\n", blk.Label)
		for _, ins := range blk.Instrs {
			fmt.Fprintf(&b, "  %s\n", ins)
		}
		if blk.Term != nil {
			fmt.Fprintf(&b, "  %s\n", blk.Term)
		}
	}
	return b.String()
}
