package ir

import (
	"fmt"
	"strconv"

	"github.com/kindred-lang/kindred/internal/ast"
	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/lexer"
	"github.com/kindred-lang/kindred/internal/resolver"
	"github.com/kindred-lang/kindred/internal/types"
)

// Error is a lowering error (reported as CodegenError to users).
type Error struct {
	Code    diag.Code
	Message string
	Span    lexer.Span
}

// ToDiagnostic converts a lowering error into the shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLowering,
		Severity: diag.SeverityError,
		Kind:     diag.KindCodegen,
		Code:     e.Code,
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

// Lower flattens a typed AST into linear IR. It is a pure function of its
// inputs: no lowering state survives between calls, so lowering the same
// program twice yields identical IR.
func Lower(program *ast.Program, bindings *resolver.Bindings, info *types.Info) (*Program, []Error) {
	l := &lowerer{
		bindings: bindings,
		info:     info,
		prog:     &Program{},
	}

	hasMain := false
	for _, d := range program.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			l.lowerGlobal(d)
		case *ast.FnDecl:
			if d.Name.Name == "main" {
				hasMain = true
			}
			l.lowerFn(d)
		}
	}

	if !hasMain {
		l.errorf(diag.CodeGenMissingMain, program.Span(),
			"no 'main' function declared; an executable needs fn main() -> Int")
	}

	return l.prog, l.errors
}

type lowerer struct {
	bindings *resolver.Bindings
	info     *types.Info
	prog     *Program
	errors   []Error
}

func (l *lowerer) errorf(code diag.Code, span lexer.Span, format string, args ...any) {
	l.errors = append(l.errors, Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

// lowerGlobal lowers a module-level variable. Global initializers are
// restricted to literal constants (optionally negated); anything else cannot
// be placed in the data section.
func (l *lowerer) lowerGlobal(d *ast.VarDecl) {
	sym := l.bindings.DeclOf(d)
	if sym == nil {
		return
	}
	init, ok := constOperand(d.Init)
	if !ok {
		l.errorf(diag.CodeGenNonConstantGlobal, d.Init.Span(),
			"global '%s' must be initialized with a constant literal", d.Name.Name)
		return
	}
	l.prog.Globals = append(l.prog.Globals, &Global{
		Name: d.Name.Name,
		Type: l.info.SymbolType(sym),
		Init: init,
	})
}

// constOperand evaluates a constant initializer expression.
func constOperand(e ast.Expr) (Operand, bool) {
	switch e := e.(type) {
	case *ast.Paren:
		return constOperand(e.X)
	case *ast.Unary:
		if e.Op != "-" {
			return nil, false
		}
		inner, ok := constOperand(e.Operand)
		if !ok {
			return nil, false
		}
		switch inner := inner.(type) {
		case *ConstInt:
			return &ConstInt{Value: -inner.Value}, true
		case *ConstFloat:
			return &ConstFloat{Value: -inner.Value}, true
		}
		return nil, false
	case *ast.Literal:
		return literalOperand(e), true
	}
	return nil, false
}

func literalOperand(e *ast.Literal) Operand {
	switch e.Kind {
	case ast.LitInt:
		v, _ := strconv.ParseInt(e.Raw, 10, 64)
		return &ConstInt{Value: v}
	case ast.LitFloat:
		v, _ := strconv.ParseFloat(e.Raw, 64)
		return &ConstFloat{Value: v}
	case ast.LitBool:
		return &ConstBool{Value: e.Raw == "true"}
	case ast.LitString:
		return &ConstString{Value: e.Value}
	}
	return &ConstInt{}
}

// fnLowerer carries the per-function state: the current block, the temp
// counter and the symbol-to-local mapping.
type fnLowerer struct {
	*lowerer
	fn        *Func
	cur       *Block
	nextLabel int
	locals    map[*resolver.Symbol]Local
}

func (l *lowerer) lowerFn(d *ast.FnDecl) {
	sig := l.info.Fns[d]
	fl := &fnLowerer{
		lowerer: l,
		fn: &Func{
			Name:   d.Name.Name,
			Result: types.Unit,
		},
		locals: make(map[*resolver.Symbol]Local),
	}
	if sig != nil {
		fl.fn.Result = sig.Result
	}

	intParams, floatParams := 0, 0
	for _, p := range d.Params {
		sym := l.bindings.DeclOf(p)
		loc := fl.newLocal(p.Name.Name, l.info.SymbolType(sym))
		fl.fn.Params = append(fl.fn.Params, loc)
		if sym != nil {
			fl.locals[sym] = loc
		}
		if loc.Type != nil && types.Equal(loc.Type, types.Float) {
			floatParams++
		} else {
			intParams++
		}
	}

	// The calling convention passes arguments in registers only: 6 for the
	// integer class, 8 for Float. Nothing spills to the stack yet.
	if intParams > 6 || floatParams > 8 {
		l.errorf(diag.CodeGenTooManyParams, d.Name.Span(),
			"function '%s' has too many parameters: at most 6 Int, Bool or String and 8 Float parameters are supported",
			d.Name.Name)
	}

	fl.cur = fl.newBlock("entry")
	fl.lowerBlock(d.Body)

	// Falling off the end returns the zero value of the result type.
	if fl.cur.Term == nil {
		fl.cur.Term = &Ret{Value: zeroValue(fl.fn.Result)}
	}

	l.prog.Funcs = append(l.prog.Funcs, fl.fn)
}

func zeroValue(t types.Type) Operand {
	switch {
	case t == nil || types.Equal(t, types.Unit):
		return nil
	case types.Equal(t, types.Float):
		return &ConstFloat{}
	case types.Equal(t, types.Bool):
		return &ConstBool{}
	case types.Equal(t, types.String):
		return &ConstString{}
	default:
		return &ConstInt{}
	}
}

func (fl *fnLowerer) newBlock(label string) *Block {
	if label == "" {
		fl.nextLabel++
		label = "L" + strconv.Itoa(fl.nextLabel)
	}
	b := &Block{Label: label}
	fl.fn.Blocks = append(fl.fn.Blocks, b)
	return b
}

func (fl *fnLowerer) newTemp() Temp {
	t := Temp(fl.fn.NumTemp)
	fl.fn.NumTemp++
	return t
}

func (fl *fnLowerer) newLocal(name string, t types.Type) Local {
	loc := Local{ID: len(fl.fn.Locals), Name: name, Type: t}
	fl.fn.Locals = append(fl.fn.Locals, loc)
	return loc
}

// emit appends an instruction to the current block. Statements lowered after
// a terminator land in a fresh unreachable block rather than corrupting the
// terminated one.
func (fl *fnLowerer) emit(ins Instr) {
	if fl.cur.Term != nil {
		fl.cur = fl.newBlock("")
	}
	fl.cur.Instrs = append(fl.cur.Instrs, ins)
}

// terminate seals the current block; a second terminator is dropped.
func (fl *fnLowerer) terminate(t Terminator) {
	if fl.cur.Term != nil {
		return
	}
	fl.cur.Term = t
}

// setCur moves lowering to a block.
func (fl *fnLowerer) setCur(b *Block) {
	fl.cur = b
}

func (fl *fnLowerer) lowerBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		fl.lowerStmt(s)
	}
}

func (fl *fnLowerer) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		fl.lowerVarDecl(s)
	case *ast.Assign:
		fl.lowerAssign(s)
	case *ast.ExprStmt:
		fl.lowerExprStmt(s)
	case *ast.Return:
		fl.lowerReturn(s)
	case *ast.If:
		fl.lowerIf(s)
	case *ast.While:
		fl.lowerWhile(s)
	case *ast.Block:
		fl.lowerBlock(s)
	}
}

func (fl *fnLowerer) lowerVarDecl(d *ast.VarDecl) {
	val := fl.lowerExpr(d.Init)
	sym := fl.bindings.DeclOf(d)
	loc := fl.newLocal(d.Name.Name, fl.info.SymbolType(sym))
	if sym != nil {
		fl.locals[sym] = loc
	}
	fl.emit(&StoreLocal{Local: loc, Src: val})
}

func (fl *fnLowerer) lowerAssign(s *ast.Assign) {
	val := fl.lowerExpr(s.Value)
	sym := fl.bindings.UseOf(s.Target)
	if sym == nil {
		return
	}
	if sym.Storage == resolver.StorageGlobal {
		fl.emit(&StoreGlobal{Name: sym.Name, Src: val, Type: fl.info.SymbolType(sym)})
		return
	}
	if loc, ok := fl.locals[sym]; ok {
		fl.emit(&StoreLocal{Local: loc, Src: val})
	}
}

func (fl *fnLowerer) lowerExprStmt(s *ast.ExprStmt) {
	if call, ok := s.X.(*ast.Call); ok {
		fl.lowerCall(call, false)
		return
	}
	fl.lowerExpr(s.X)
}

func (fl *fnLowerer) lowerReturn(s *ast.Return) {
	if s.Value == nil {
		fl.terminate(&Ret{})
		return
	}
	// `return f();` where f yields Unit evaluates the call for its effect
	// only; there is no result temp to carry.
	if types.Equal(fl.info.TypeOf(s.Value), types.Unit) {
		expr := s.Value
		for {
			p, ok := expr.(*ast.Paren)
			if !ok {
				break
			}
			expr = p.X
		}
		if call, ok := expr.(*ast.Call); ok {
			fl.lowerCall(call, false)
		}
		fl.terminate(&Ret{})
		return
	}
	val := fl.lowerExpr(s.Value)
	fl.terminate(&Ret{Value: val})
}

// lowerIf lowers structured conditionals to explicit blocks:
//
//	branch cond -> then, else
//	then: ... jmp join
//	else: ... jmp join
//	join:
func (fl *fnLowerer) lowerIf(s *ast.If) {
	cond := fl.lowerExpr(s.Cond)

	thenB := fl.newBlock("")
	var elseB *Block
	joinB := &Block{} // appended lazily so block order stays source-ordered

	if s.Else != nil {
		elseB = fl.newBlock("")
		fl.terminate(&Branch{Cond: cond, True: thenB, False: elseB})
	} else {
		fl.terminate(&Branch{Cond: cond, True: thenB, False: joinB})
	}

	fl.setCur(thenB)
	fl.lowerBlock(s.Then)
	fl.terminate(&Jump{Target: joinB})

	if elseB != nil {
		fl.setCur(elseB)
		fl.lowerStmt(s.Else)
		fl.terminate(&Jump{Target: joinB})
	}

	fl.nextLabel++
	joinB.Label = "L" + strconv.Itoa(fl.nextLabel)
	fl.fn.Blocks = append(fl.fn.Blocks, joinB)
	fl.setCur(joinB)
}

// lowerWhile lowers loops to a header/body/exit block triple:
//
//	head: branch cond -> body, exit
//	body: ... jmp head
//	exit:
func (fl *fnLowerer) lowerWhile(s *ast.While) {
	headB := fl.newBlock("")
	fl.terminate(&Jump{Target: headB})

	fl.setCur(headB)
	cond := fl.lowerExpr(s.Cond)

	bodyB := fl.newBlock("")
	exitB := &Block{}
	fl.terminate(&Branch{Cond: cond, True: bodyB, False: exitB})

	fl.setCur(bodyB)
	fl.lowerBlock(s.Body)
	fl.terminate(&Jump{Target: headB})

	fl.nextLabel++
	exitB.Label = "L" + strconv.Itoa(fl.nextLabel)
	fl.fn.Blocks = append(fl.fn.Blocks, exitB)
	fl.setCur(exitB)
}

// lowerExpr flattens an expression, materializing every subexpression into a
// fresh temporary. The returned operand always refers to the result.
func (fl *fnLowerer) lowerExpr(e ast.Expr) Operand {
	switch e := e.(type) {
	case *ast.Literal:
		t := fl.newTemp()
		fl.emit(&Copy{Result: t, Src: literalOperand(e), Type: fl.info.TypeOf(e)})
		return &TempRef{Temp: t, Type: fl.info.TypeOf(e)}

	case *ast.Ident:
		return fl.lowerIdent(e)

	case *ast.Paren:
		return fl.lowerExpr(e.X)

	case *ast.Unary:
		operand := fl.lowerExpr(e.Operand)
		t := fl.newTemp()
		fl.emit(&UnOp{Op: e.Op, Result: t, Operand: operand, Type: fl.info.TypeOf(e.Operand)})
		return &TempRef{Temp: t, Type: fl.info.TypeOf(e)}

	case *ast.Binary:
		if e.Op == "&&" || e.Op == "||" {
			return fl.lowerShortCircuit(e)
		}
		left := fl.lowerExpr(e.Left)
		right := fl.lowerExpr(e.Right)
		t := fl.newTemp()
		fl.emit(&BinOp{
			Op:     e.Op,
			Result: t,
			Left:   left,
			Right:  right,
			Type:   fl.info.TypeOf(e.Left),
		})
		return &TempRef{Temp: t, Type: fl.info.TypeOf(e)}

	case *ast.Call:
		return fl.lowerCall(e, true)
	}

	// Unreachable for well-typed programs.
	t := fl.newTemp()
	fl.emit(&Copy{Result: t, Src: &ConstInt{}, Type: types.Unknown})
	return &TempRef{Temp: t, Type: types.Unknown}
}

func (fl *fnLowerer) lowerIdent(e *ast.Ident) Operand {
	sym := fl.bindings.UseOf(e)
	t := fl.newTemp()
	typ := fl.info.TypeOf(e)
	if sym != nil && sym.Storage == resolver.StorageGlobal && sym.Kind == resolver.SymbolVar {
		fl.emit(&LoadGlobal{Result: t, Name: sym.Name, Type: typ})
		return &TempRef{Temp: t, Type: typ}
	}
	if sym != nil {
		if loc, ok := fl.locals[sym]; ok {
			fl.emit(&LoadLocal{Result: t, Local: loc})
			return &TempRef{Temp: t, Type: typ}
		}
	}
	fl.emit(&Copy{Result: t, Src: &ConstInt{}, Type: typ})
	return &TempRef{Temp: t, Type: typ}
}

// lowerShortCircuit lowers && and || to branching so the right operand is
// only evaluated when it can affect the result.
func (fl *fnLowerer) lowerShortCircuit(e *ast.Binary) Operand {
	result := fl.newTemp()

	left := fl.lowerExpr(e.Left)
	fl.emit(&Copy{Result: result, Src: left, Type: types.Bool})

	rhsB := fl.newBlock("")
	joinB := &Block{}

	if e.Op == "&&" {
		fl.terminate(&Branch{Cond: left, True: rhsB, False: joinB})
	} else {
		fl.terminate(&Branch{Cond: left, True: joinB, False: rhsB})
	}

	fl.setCur(rhsB)
	right := fl.lowerExpr(e.Right)
	fl.emit(&Copy{Result: result, Src: right, Type: types.Bool})
	fl.terminate(&Jump{Target: joinB})

	fl.nextLabel++
	joinB.Label = "L" + strconv.Itoa(fl.nextLabel)
	fl.fn.Blocks = append(fl.fn.Blocks, joinB)
	fl.setCur(joinB)

	return &TempRef{Temp: result, Type: types.Bool}
}

func (fl *fnLowerer) lowerCall(e *ast.Call, wantResult bool) Operand {
	var args []Operand
	for _, a := range e.Args {
		args = append(args, fl.lowerExpr(a))
	}

	callee := "<indirect>"
	builtin := false
	if id, ok := e.Callee.(*ast.Ident); ok {
		callee = id.Name
		if sym := fl.bindings.UseOf(id); sym != nil {
			builtin = sym.Storage == resolver.StorageBuiltin
		}
	}

	resultType := fl.info.TypeOf(e)
	call := &Call{
		Callee:  callee,
		Builtin: builtin,
		Args:    args,
		Type:    resultType,
	}
	if wantResult && !types.Equal(resultType, types.Unit) {
		call.Result = fl.newTemp()
		call.HasResult = true
	}
	fl.emit(call)
	if call.HasResult {
		return &TempRef{Temp: call.Result, Type: resultType}
	}
	return &TempRef{Temp: call.Result, Type: types.Unit}
}
