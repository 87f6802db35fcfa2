package ast

// Equal reports structural equality of two programs, ignoring spans.
func Equal(a, b *Program) bool {
	if len(a.Decls) != len(b.Decls) {
		return false
	}
	for i := range a.Decls {
		if !equalDecl(a.Decls[i], b.Decls[i]) {
			return false
		}
	}
	return true
}

// EqualExpr reports structural equality of two expressions, ignoring spans.
func EqualExpr(a, b Expr) bool {
	return equalExpr(a, b)
}

func equalDecl(a, b Decl) bool {
	switch a := a.(type) {
	case *FnDecl:
		b, ok := b.(*FnDecl)
		if !ok || a.Name.Name != b.Name.Name || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if a.Params[i].Name.Name != b.Params[i].Name.Name ||
				a.Params[i].Type.Name != b.Params[i].Type.Name {
				return false
			}
		}
		if !equalTypeName(a.ReturnType, b.ReturnType) {
			return false
		}
		return equalBlock(a.Body, b.Body)
	case *VarDecl:
		b, ok := b.(*VarDecl)
		return ok && equalVarDecl(a, b)
	}
	return false
}

func equalVarDecl(a, b *VarDecl) bool {
	return a.Name.Name == b.Name.Name &&
		equalTypeName(a.Type, b.Type) &&
		equalExpr(a.Init, b.Init)
}

func equalTypeName(a, b *TypeName) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name
}

func equalBlock(a, b *Block) bool {
	if len(a.Stmts) != len(b.Stmts) {
		return false
	}
	for i := range a.Stmts {
		if !equalStmt(a.Stmts[i], b.Stmts[i]) {
			return false
		}
	}
	return true
}

func equalStmt(a, b Stmt) bool {
	switch a := a.(type) {
	case *VarDecl:
		b, ok := b.(*VarDecl)
		return ok && equalVarDecl(a, b)
	case *Assign:
		b, ok := b.(*Assign)
		return ok && a.Target.Name == b.Target.Name && equalExpr(a.Value, b.Value)
	case *ExprStmt:
		b, ok := b.(*ExprStmt)
		return ok && equalExpr(a.X, b.X)
	case *Return:
		b, ok := b.(*Return)
		if !ok {
			return false
		}
		if a.Value == nil || b.Value == nil {
			return a.Value == nil && b.Value == nil
		}
		return equalExpr(a.Value, b.Value)
	case *If:
		b, ok := b.(*If)
		if !ok || !equalExpr(a.Cond, b.Cond) || !equalBlock(a.Then, b.Then) {
			return false
		}
		if a.Else == nil || b.Else == nil {
			return a.Else == nil && b.Else == nil
		}
		return equalStmt(a.Else, b.Else)
	case *While:
		b, ok := b.(*While)
		return ok && equalExpr(a.Cond, b.Cond) && equalBlock(a.Body, b.Body)
	case *Block:
		b, ok := b.(*Block)
		return ok && equalBlock(a, b)
	}
	return false
}

func equalExpr(a, b Expr) bool {
	switch a := a.(type) {
	case *Ident:
		b, ok := b.(*Ident)
		return ok && a.Name == b.Name
	case *Literal:
		b, ok := b.(*Literal)
		return ok && a.Kind == b.Kind && a.Raw == b.Raw
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && equalExpr(a.Left, b.Left) && equalExpr(a.Right, b.Right)
	case *Unary:
		b, ok := b.(*Unary)
		return ok && a.Op == b.Op && equalExpr(a.Operand, b.Operand)
	case *Call:
		b, ok := b.(*Call)
		if !ok || !equalExpr(a.Callee, b.Callee) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !equalExpr(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Paren:
		b, ok := b.(*Paren)
		return ok && equalExpr(a.X, b.X)
	}
	return false
}
