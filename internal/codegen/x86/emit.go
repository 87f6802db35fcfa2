// Package x86 translates lowered IR into x86-64 assembly in AT&T syntax.
//
// The translation is deliberately naive and fully deterministic: every local
// variable and every temporary gets its own 8-byte stack slot, and every
// instruction loads its operands from slots into scratch registers, computes,
// and stores the result back. No register allocation, no peephole passes.
// Identical IR always produces byte-identical assembly.
//
// Calling convention is System V AMD64: integer-class arguments (Int, Bool,
// String pointers) in rdi, rsi, rdx, rcx, r8, r9; Float arguments in xmm0-7.
// Generated code links against libc for the builtins (puts, printf) and for
// string comparison (strcmp).
package x86

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kindred-lang/kindred/internal/ir"
	"github.com/kindred-lang/kindred/internal/types"
)

var intArgRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}
var floatArgRegs = []string{"%xmm0", "%xmm1", "%xmm2", "%xmm3", "%xmm4", "%xmm5", "%xmm6", "%xmm7"}

// Generate renders a lowered program as an assembly translation unit. When
// annotate is set, each instruction is preceded by a comment with its IR form.
func Generate(prog *ir.Program, annotate bool) string {
	g := &generator{
		annotate:     annotate,
		stringLabels: make(map[string]string),
		floatLabels:  make(map[uint64]string),
	}
	g.internConstants(prog)

	g.emitRodata()
	g.emitGlobals(prog)

	g.printf("\t.text\n")
	for _, fn := range prog.Funcs {
		g.emitFunc(fn)
	}
	g.printf("\t.section .note.GNU-stack,\"\",@progbits\n")

	return g.out.String()
}

type generator struct {
	out      strings.Builder
	annotate bool

	// interned read-only data, in first-encounter order
	stringLabels map[string]string
	stringOrder  []string
	floatLabels  map[uint64]string
	floatOrder   []uint64

	fn *ir.Func
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.out, format, args...)
}

// internConstants walks the program in a fixed order (globals, then functions,
// blocks and instructions in sequence) assigning labels to string and float
// constants. First encounter decides the label number, which keeps the
// read-only data section stable across runs.
func (g *generator) internConstants(prog *ir.Program) {
	// printf format for print_int
	g.internString("%ld\n")

	for _, gl := range prog.Globals {
		g.internOperand(gl.Init)
	}
	for _, fn := range prog.Funcs {
		for _, blk := range fn.Blocks {
			for _, ins := range blk.Instrs {
				for _, op := range instrOperands(ins) {
					g.internOperand(op)
				}
			}
			if ret, ok := blk.Term.(*ir.Ret); ok && ret.Value != nil {
				g.internOperand(ret.Value)
			}
		}
	}
}

func instrOperands(ins ir.Instr) []ir.Operand {
	switch ins := ins.(type) {
	case *ir.Copy:
		return []ir.Operand{ins.Src}
	case *ir.BinOp:
		return []ir.Operand{ins.Left, ins.Right}
	case *ir.UnOp:
		return []ir.Operand{ins.Operand}
	case *ir.StoreLocal:
		return []ir.Operand{ins.Src}
	case *ir.StoreGlobal:
		return []ir.Operand{ins.Src}
	case *ir.Call:
		return ins.Args
	}
	return nil
}

func (g *generator) internOperand(op ir.Operand) {
	switch op := op.(type) {
	case *ir.ConstString:
		g.internString(op.Value)
	case *ir.ConstFloat:
		g.internFloat(op.Value)
	}
}

func (g *generator) internString(s string) string {
	if label, ok := g.stringLabels[s]; ok {
		return label
	}
	label := ".Lstr" + strconv.Itoa(len(g.stringOrder))
	g.stringLabels[s] = label
	g.stringOrder = append(g.stringOrder, s)
	return label
}

func (g *generator) internFloat(v float64) string {
	bits := math.Float64bits(v)
	if label, ok := g.floatLabels[bits]; ok {
		return label
	}
	label := ".Ldbl" + strconv.Itoa(len(g.floatOrder))
	g.floatLabels[bits] = label
	g.floatOrder = append(g.floatOrder, bits)
	return label
}

func (g *generator) emitRodata() {
	g.printf("\t.section .rodata\n")
	for _, s := range g.stringOrder {
		g.printf("%s:\n", g.stringLabels[s])
		g.printf("\t.string %s\n", asmStringLit(s))
	}
	for _, bits := range g.floatOrder {
		g.printf("%s:\n", g.floatLabels[bits])
		g.printf("\t.quad 0x%016x\n", bits)
	}
}

// asmStringLit renders a Go string as a GAS .string literal.
func asmStringLit(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\000`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (g *generator) emitGlobals(prog *ir.Program) {
	if len(prog.Globals) == 0 {
		return
	}
	g.printf("\t.data\n")
	for _, gl := range prog.Globals {
		g.printf("\t.globl %s\n", gl.Name)
		g.printf("%s:\n", gl.Name)
		switch init := gl.Init.(type) {
		case *ir.ConstInt:
			g.printf("\t.quad %d\n", init.Value)
		case *ir.ConstBool:
			v := 0
			if init.Value {
				v = 1
			}
			g.printf("\t.quad %d\n", v)
		case *ir.ConstFloat:
			g.printf("\t.quad 0x%016x\n", math.Float64bits(init.Value))
		case *ir.ConstString:
			g.printf("\t.quad %s\n", g.stringLabels[init.Value])
		}
	}
}

// slotOf returns the frame offset of a local variable slot.
func (g *generator) slotOf(l ir.Local) string {
	return fmt.Sprintf("-%d(%%rbp)", 8*(l.ID+1))
}

// slotOfTemp returns the frame offset of a temporary slot. Temporaries are
// laid out after all locals.
func (g *generator) slotOfTemp(t ir.Temp) string {
	return fmt.Sprintf("-%d(%%rbp)", 8*(len(g.fn.Locals)+int(t)+1))
}

func (g *generator) blockLabel(fn *ir.Func, label string) string {
	return ".L" + fn.Name + "_" + label
}

func isFloat(t types.Type) bool {
	return types.Equal(t, types.Float)
}

func operandIsFloat(op ir.Operand) bool {
	switch op := op.(type) {
	case *ir.TempRef:
		return isFloat(op.Type)
	case *ir.ConstFloat:
		return true
	}
	return false
}

func (g *generator) emitFunc(fn *ir.Func) {
	g.fn = fn

	frame := 8 * (len(fn.Locals) + fn.NumTemp)
	if frame%16 != 0 {
		frame += 16 - frame%16
	}

	g.printf("\t.globl %s\n", fn.Name)
	g.printf("%s:\n", fn.Name)
	g.printf("\tpushq %%rbp\n")
	g.printf("\tmovq %%rsp, %%rbp\n")
	if frame > 0 {
		g.printf("\tsubq $%d, %%rsp\n", frame)
	}

	// Spill incoming arguments into their local slots.
	intIdx, floatIdx := 0, 0
	for _, p := range fn.Params {
		if isFloat(p.Type) {
			g.printf("\tmovsd %s, %s\n", floatArgRegs[floatIdx], g.slotOf(p))
			floatIdx++
		} else {
			g.printf("\tmovq %s, %s\n", intArgRegs[intIdx], g.slotOf(p))
			intIdx++
		}
	}

	for _, blk := range fn.Blocks {
		g.printf("%s:\n", g.blockLabel(fn, blk.Label))
		for _, ins := range blk.Instrs {
			if g.annotate {
				g.printf("\t# %s\n", ins)
			}
			g.emitInstr(ins)
		}
		if blk.Term != nil {
			if g.annotate {
				g.printf("\t# %s\n", blk.Term)
			}
			g.emitTerminator(fn, blk.Term)
		}
	}

	g.printf("%s:\n", g.blockLabel(fn, "epilogue"))
	g.printf("\tleave\n")
	g.printf("\tret\n")
}

// loadInt places an integer-class operand in the given register.
func (g *generator) loadInt(op ir.Operand, reg string) {
	switch op := op.(type) {
	case *ir.TempRef:
		g.printf("\tmovq %s, %s\n", g.slotOfTemp(op.Temp), reg)
	case *ir.ConstInt:
		g.printf("\tmovq $%d, %s\n", op.Value, reg)
	case *ir.ConstBool:
		v := 0
		if op.Value {
			v = 1
		}
		g.printf("\tmovq $%d, %s\n", v, reg)
	case *ir.ConstString:
		g.printf("\tleaq %s(%%rip), %s\n", g.stringLabels[op.Value], reg)
	}
}

// loadFloat places a Float operand in the given SSE register.
func (g *generator) loadFloat(op ir.Operand, reg string) {
	switch op := op.(type) {
	case *ir.TempRef:
		g.printf("\tmovsd %s, %s\n", g.slotOfTemp(op.Temp), reg)
	case *ir.ConstFloat:
		g.printf("\tmovsd %s(%%rip), %s\n", g.floatLabels[math.Float64bits(op.Value)], reg)
	}
}

func (g *generator) load(op ir.Operand) {
	if operandIsFloat(op) {
		g.loadFloat(op, "%xmm0")
		return
	}
	g.loadInt(op, "%rax")
}

// store writes the primary scratch register to a temporary slot.
func (g *generator) store(t ir.Temp, float bool) {
	if float {
		g.printf("\tmovsd %%xmm0, %s\n", g.slotOfTemp(t))
		return
	}
	g.printf("\tmovq %%rax, %s\n", g.slotOfTemp(t))
}

func (g *generator) emitInstr(ins ir.Instr) {
	switch ins := ins.(type) {
	case *ir.Copy:
		g.load(ins.Src)
		g.store(ins.Result, operandIsFloat(ins.Src))

	case *ir.BinOp:
		g.emitBinOp(ins)

	case *ir.UnOp:
		g.emitUnOp(ins)

	case *ir.LoadLocal:
		if isFloat(ins.Local.Type) {
			g.printf("\tmovsd %s, %%xmm0\n", g.slotOf(ins.Local))
			g.store(ins.Result, true)
			return
		}
		g.printf("\tmovq %s, %%rax\n", g.slotOf(ins.Local))
		g.store(ins.Result, false)

	case *ir.StoreLocal:
		if operandIsFloat(ins.Src) {
			g.loadFloat(ins.Src, "%xmm0")
			g.printf("\tmovsd %%xmm0, %s\n", g.slotOf(ins.Local))
			return
		}
		g.loadInt(ins.Src, "%rax")
		g.printf("\tmovq %%rax, %s\n", g.slotOf(ins.Local))

	case *ir.LoadGlobal:
		if isFloat(ins.Type) {
			g.printf("\tmovsd %s(%%rip), %%xmm0\n", ins.Name)
			g.store(ins.Result, true)
			return
		}
		g.printf("\tmovq %s(%%rip), %%rax\n", ins.Name)
		g.store(ins.Result, false)

	case *ir.StoreGlobal:
		if operandIsFloat(ins.Src) {
			g.loadFloat(ins.Src, "%xmm0")
			g.printf("\tmovsd %%xmm0, %s(%%rip)\n", ins.Name)
			return
		}
		g.loadInt(ins.Src, "%rax")
		g.printf("\tmovq %%rax, %s(%%rip)\n", ins.Name)

	case *ir.Call:
		g.emitCall(ins)
	}
}

func (g *generator) emitBinOp(ins *ir.BinOp) {
	if isFloat(ins.Type) {
		g.emitFloatBinOp(ins)
		return
	}

	// String equality compares contents, not the interned rodata pointers.
	if types.Equal(ins.Type, types.String) && (ins.Op == "==" || ins.Op == "!=") {
		g.loadInt(ins.Left, "%rdi")
		g.loadInt(ins.Right, "%rsi")
		g.printf("\tcall strcmp\n")
		g.printf("\ttestl %%eax, %%eax\n")
		g.printf("\t%s %%al\n", setcc(ins.Op))
		g.printf("\tmovzbq %%al, %%rax\n")
		g.store(ins.Result, false)
		return
	}

	g.loadInt(ins.Left, "%rax")
	g.loadInt(ins.Right, "%rcx")

	switch ins.Op {
	case "+":
		g.printf("\taddq %%rcx, %%rax\n")
	case "-":
		g.printf("\tsubq %%rcx, %%rax\n")
	case "*":
		g.printf("\timulq %%rcx, %%rax\n")
	case "/":
		g.printf("\tcqto\n")
		g.printf("\tidivq %%rcx\n")
	case "==", "!=", "<", "<=", ">", ">=":
		g.printf("\tcmpq %%rcx, %%rax\n")
		g.printf("\t%s %%al\n", setcc(ins.Op))
		g.printf("\tmovzbq %%al, %%rax\n")
	}
	g.store(ins.Result, false)
}

func setcc(op string) string {
	switch op {
	case "==":
		return "sete"
	case "!=":
		return "setne"
	case "<":
		return "setl"
	case "<=":
		return "setle"
	case ">":
		return "setg"
	case ">=":
		return "setge"
	}
	return "sete"
}

// emitFloatBinOp handles Float operands. Comparisons use the SSE compare
// instructions, which produce an all-ones mask that is masked down to 0/1.
func (g *generator) emitFloatBinOp(ins *ir.BinOp) {
	g.loadFloat(ins.Left, "%xmm0")
	g.loadFloat(ins.Right, "%xmm1")

	switch ins.Op {
	case "+":
		g.printf("\taddsd %%xmm1, %%xmm0\n")
	case "-":
		g.printf("\tsubsd %%xmm1, %%xmm0\n")
	case "*":
		g.printf("\tmulsd %%xmm1, %%xmm0\n")
	case "/":
		g.printf("\tdivsd %%xmm1, %%xmm0\n")
	case "==":
		g.emitFloatCompare("cmpeqsd", false, ins.Result)
		return
	case "!=":
		g.emitFloatCompare("cmpneqsd", false, ins.Result)
		return
	case "<":
		g.emitFloatCompare("cmpltsd", false, ins.Result)
		return
	case "<=":
		g.emitFloatCompare("cmplesd", false, ins.Result)
		return
	case ">":
		g.emitFloatCompare("cmpltsd", true, ins.Result)
		return
	case ">=":
		g.emitFloatCompare("cmplesd", true, ins.Result)
		return
	}
	g.store(ins.Result, true)
}

// emitFloatCompare applies an SSE compare with operands in xmm0/xmm1. There is
// no cmpgtsd; > and >= swap the operands and reuse the < forms.
func (g *generator) emitFloatCompare(instr string, swap bool, result ir.Temp) {
	if swap {
		g.printf("\t%s %%xmm0, %%xmm1\n", instr)
		g.printf("\tmovq %%xmm1, %%rax\n")
	} else {
		g.printf("\t%s %%xmm1, %%xmm0\n", instr)
		g.printf("\tmovq %%xmm0, %%rax\n")
	}
	g.printf("\tandq $1, %%rax\n")
	g.store(result, false)
}

func (g *generator) emitUnOp(ins *ir.UnOp) {
	switch ins.Op {
	case "-":
		if isFloat(ins.Type) {
			g.loadFloat(ins.Operand, "%xmm1")
			g.printf("\txorpd %%xmm0, %%xmm0\n")
			g.printf("\tsubsd %%xmm1, %%xmm0\n")
			g.store(ins.Result, true)
			return
		}
		g.loadInt(ins.Operand, "%rax")
		g.printf("\tnegq %%rax\n")
		g.store(ins.Result, false)
	case "!":
		g.loadInt(ins.Operand, "%rax")
		g.printf("\txorq $1, %%rax\n")
		g.store(ins.Result, false)
	}
}

func (g *generator) emitCall(ins *ir.Call) {
	if ins.Builtin {
		g.emitBuiltinCall(ins)
		return
	}

	intIdx, floatIdx := 0, 0
	for _, a := range ins.Args {
		if operandIsFloat(a) {
			g.loadFloat(a, floatArgRegs[floatIdx])
			floatIdx++
		} else {
			g.loadInt(a, intArgRegs[intIdx])
			intIdx++
		}
	}
	g.printf("\tcall %s\n", ins.Callee)

	if ins.HasResult {
		if isFloat(ins.Type) {
			g.store(ins.Result, true)
			return
		}
		g.store(ins.Result, false)
	}
}

// emitBuiltinCall lowers the runtime builtins onto libc.
func (g *generator) emitBuiltinCall(ins *ir.Call) {
	switch ins.Callee {
	case "print":
		g.loadInt(ins.Args[0], "%rdi")
		g.printf("\tcall puts\n")
	case "print_int":
		g.printf("\tleaq %s(%%rip), %%rdi\n", g.stringLabels["%ld\n"])
		g.loadInt(ins.Args[0], "%rsi")
		g.printf("\tmovl $0, %%eax\n")
		g.printf("\tcall printf\n")
	}
}

func (g *generator) emitTerminator(fn *ir.Func, term ir.Terminator) {
	switch term := term.(type) {
	case *ir.Jump:
		g.printf("\tjmp %s\n", g.blockLabel(fn, term.Target.Label))

	case *ir.Branch:
		g.loadInt(term.Cond, "%rax")
		g.printf("\ttestq %%rax, %%rax\n")
		g.printf("\tjne %s\n", g.blockLabel(fn, term.True.Label))
		g.printf("\tjmp %s\n", g.blockLabel(fn, term.False.Label))

	case *ir.Ret:
		if term.Value != nil {
			g.load(term.Value)
		} else {
			g.printf("\tmovq $0, %%rax\n")
		}
		g.printf("\tjmp %s\n", g.blockLabel(fn, "epilogue"))
	}
}
