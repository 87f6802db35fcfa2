package resolver

import "github.com/kindred-lang/kindred/internal/ast"

// SymbolKind discriminates what a name refers to.
type SymbolKind int

const (
	SymbolVar SymbolKind = iota
	SymbolFunc
)

// Storage describes where a symbol's value lives at run time. The code
// generator keys its slot assignment off this.
type Storage int

const (
	StorageGlobal Storage = iota
	StorageLocal
	StorageParam
	StorageBuiltin
)

// Symbol represents a named entity in the source code.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Storage Storage
	Decl    ast.Node // declaration site; nil for builtins
	Scope   *Scope   // owning scope
}

// Scope represents a lexical scope containing symbols. A child scope holds a
// back-reference to its parent for lookup chaining; its lifetime is bounded
// by the enclosing AST subtree.
type Scope struct {
	Parent  *Scope
	Symbols map[string]*Symbol

	// pending holds names declared later in this block, so uses before the
	// declaration can be distinguished from plain undefined names.
	pending map[string]*ast.VarDecl
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	}
}

// Insert adds a symbol to the current scope and returns it. The symbol's
// owning scope is set here.
func (s *Scope) Insert(name string, sym *Symbol) *Symbol {
	sym.Scope = s
	s.Symbols[name] = sym
	delete(s.pending, name)
	return sym
}

// LookupLocal finds a symbol declared directly in this scope.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// lookupPending walks the scope chain looking for either a bound symbol or a
// declaration that has not been reached yet. A pending declaration shadows
// outer bindings, so a hit is reported before continuing the chain.
func (s *Scope) lookupPending(name string) (*Symbol, *ast.VarDecl) {
	if sym, ok := s.Symbols[name]; ok {
		return sym, nil
	}
	if decl, ok := s.pending[name]; ok {
		return nil, decl
	}
	if s.Parent != nil {
		return s.Parent.lookupPending(name)
	}
	return nil, nil
}

func (s *Scope) markPending(name string, decl *ast.VarDecl) {
	if s.pending == nil {
		s.pending = make(map[string]*ast.VarDecl)
	}
	if _, exists := s.pending[name]; !exists {
		s.pending[name] = decl
	}
}
