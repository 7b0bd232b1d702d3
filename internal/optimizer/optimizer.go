// Package optimizer implements the engine's three optimization levels
// over a compiled *ast.AST: None, Simple and Full.
package optimizer

import (
	"embedscript/internal/ast"
	"embedscript/internal/value"
)

// Level selects how aggressively Optimize rewrites an AST.
type Level int

const (
	// None performs no rewriting.
	None Level = iota
	// Simple applies constant folding, dead-branch elimination, pure
	// statement elision, no-op removal and constant-literal array/map
	// inlining.
	Simple
	// Full additionally folds references to host-provided scope
	// constants.
	Full
)

// Optimizer rewrites an AST in place to the configured Level, walking
// the tree until a pass makes no further change.
type Optimizer struct {
	level     Level
	constants map[string]value.Value // consulted only at Full
}

// New builds an Optimizer at the given level. constants is the set of
// host-provided compile-time constants available for folding at Full;
// it is ignored at lower levels.
func New(level Level, constants map[string]value.Value) *Optimizer {
	return &Optimizer{level: level, constants: constants}
}

// Optimize rewrites tree's statements in place to fixpoint and returns
// it. Optimization never changes observable side effects or the timing
// of errors from non-pure expressions: every fold below only fires when the
// operands it consumes (for `&&`/`||`, the left operand) are
// already literal constants, never when evaluating them could have
// deferred a side effect or error.
func (o *Optimizer) Optimize(tree *ast.AST) *ast.AST {
	if o.level == None {
		return tree
	}
	for {
		changed := false
		tree.Statements, changed = o.foldStmts(tree.Statements)
		if !changed {
			break
		}
	}
	return tree
}

func (o *Optimizer) foldStmts(in []ast.Stmt) ([]ast.Stmt, bool) {
	changed := false
	out := make([]ast.Stmt, 0, len(in))
	for i, s := range in {
		// A block's final expression statement is the block's value, so
		// it is folded but never elided.
		if es, ok := s.(*ast.ExprStmt); ok && i == len(in)-1 {
			newExpr, exprChanged := o.foldExpr(es.Value)
			es.Value = newExpr
			if exprChanged {
				changed = true
			}
			out = append(out, es)
			continue
		}
		folded, stmtChanged := o.foldStmt(s)
		if stmtChanged {
			changed = true
		}
		if folded == nil {
			changed = true
			continue
		}
		out = append(out, folded)
	}
	return out, changed
}

// foldStmt returns the rewritten statement, or nil if it should be
// elided entirely: a redundant no-op, or a pure expression statement
// whose result is discarded.
func (o *Optimizer) foldStmt(s ast.Stmt) (ast.Stmt, bool) {
	switch st := s.(type) {
	case *ast.NoopStmt:
		return nil, true

	case *ast.ExprStmt:
		newExpr, exprChanged := o.foldExpr(st.Value)
		if isPureDiscardable(newExpr) {
			return nil, true
		}
		if exprChanged {
			st.Value = newExpr
		}
		return st, exprChanged

	case *ast.BlockStmt:
		newList, changed := o.foldStmts(st.List)
		if changed {
			st.List = newList
		}
		return st, changed

	case *ast.IfThenElseStmt:
		cond, condChanged := o.foldExpr(st.Condition)
		st.Condition = cond
		if lit, ok := ast.UnwrapExpr(cond).(*ast.LiteralExpr); ok {
			if truthy, ok := value.Truthy(lit.Value); ok {
				if truthy {
					body, _ := o.foldStmt(st.Then)
					return body, true
				}
				if st.Alternative == nil {
					return nil, true
				}
				body, _ := o.foldStmt(st.Alternative)
				return body, true
			}
		}
		then, thenChanged := o.foldStmt(st.Then)
		st.Then = then
		var altChanged bool
		if st.Alternative != nil {
			st.Alternative, altChanged = o.foldStmt(st.Alternative)
		}
		return st, condChanged || thenChanged || altChanged

	case *ast.WhileStmt:
		cond, condChanged := o.foldExpr(st.Condition)
		st.Condition = cond
		if lit, ok := ast.UnwrapExpr(cond).(*ast.LiteralExpr); ok {
			if truthy, ok := value.Truthy(lit.Value); ok && !truthy {
				return nil, true
			}
		}
		body, bodyChanged := o.foldStmt(st.Body)
		st.Body = body
		return st, condChanged || bodyChanged

	case *ast.LoopStmt:
		body, changed := o.foldStmt(st.Body)
		st.Body = body
		return st, changed

	case *ast.ForStmt:
		iterable, iterChanged := o.foldExpr(st.Iterable)
		st.Iterable = iterable
		body, bodyChanged := o.foldStmt(st.Body)
		st.Body = body
		return st, iterChanged || bodyChanged

	case *ast.TryCatchStmt:
		body, bodyChanged := o.foldStmt(st.Body)
		st.Body = body
		handler, handlerChanged := o.foldStmt(st.Handler)
		st.Handler = handler
		return st, bodyChanged || handlerChanged

	case *ast.LetStmt:
		if st.Init != nil {
			var changed bool
			st.Init, changed = o.foldExpr(st.Init)
			return st, changed
		}
		return st, false

	case *ast.ConstStmt:
		if st.Init != nil {
			var changed bool
			st.Init, changed = o.foldExpr(st.Init)
			return st, changed
		}
		return st, false

	case *ast.AssignmentStmt:
		rhs, changed := o.foldExpr(st.RHS)
		st.RHS = rhs
		return st, changed

	case *ast.ReturnStmt:
		if st.Value != nil {
			var changed bool
			st.Value, changed = o.foldExpr(st.Value)
			return st, changed
		}
		return st, false

	case *ast.ThrowStmt:
		if st.Value != nil {
			var changed bool
			st.Value, changed = o.foldExpr(st.Value)
			return st, changed
		}
		return st, false

	default:
		return s, false
	}
}

// isPureDiscardable reports whether a folded expression statement has no
// observable effect and can be dropped: a bare literal or variable
// reference. Anything else (calls, index/dot chains, which may invoke
// user code or error) is kept, since the optimizer must never change
// error timing.
func isPureDiscardable(e ast.Expr) bool {
	switch ast.UnwrapExpr(e).(type) {
	case *ast.LiteralExpr, *ast.VariableExpr:
		return true
	default:
		return false
	}
}
