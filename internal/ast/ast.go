// Package ast defines the statement and expression node types produced by
// the parser and walked by the evaluator.
//
// Stmt variants are actions, Expr variants produce a Value. Every node
// carries a lexer.Position so parse and runtime errors can point at
// source.
package ast

import (
	"embedscript/internal/lexer"
	"embedscript/internal/module"
)

// Node is the base interface every Stmt and Expr node implements.
type Node interface {
	Pos() lexer.Position
	String() string
}

// Stmt is any node that performs an action but produces no Value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any node that evaluates to a Value.
type Expr interface {
	Node
	exprNode()
}

// AST owns a compiled program: its top-level statements plus the Module
// of script-defined functions accumulated while parsing (`fn` definitions
// go into Lib, not the statement list). AST is freely cloneable; cloning
// shares Lib by reference rather than deep-copying it.
type AST struct {
	Statements []Stmt
	Lib        *module.Module
}

// New builds an empty AST with a fresh, empty function library.
func New() *AST {
	return &AST{Lib: module.New()}
}

// CloneStatementsOnly returns a shallow copy of a with a fresh, empty
// Lib, used when an AST's statements are being reused as a template
// (e.g. re-running a script body) but its function definitions should
// not be merged into the caller's namespace.
func (a *AST) CloneStatementsOnly() *AST {
	out := &AST{Statements: make([]Stmt, len(a.Statements)), Lib: module.New()}
	copy(out.Statements, a.Statements)
	return out
}

// CloneFunctionsOnly returns a new AST with no top-level statements but
// sharing a's Lib by reference, used to extract just the callable
// surface of a compiled unit (e.g. for import) without re-running its
// top-level code.
func (a *AST) CloneFunctionsOnly() *AST {
	return &AST{Lib: a.Lib}
}

// Merge folds other's statements and functions into a, in place,
// returning a. Function collisions overwrite per module.Merge's
// contract.
func (a *AST) Merge(other *AST, filter module.Filter) *AST {
	a.Statements = append(a.Statements, other.Statements...)
	module.Merge(a.Lib, other.Lib, filter)
	return a
}
