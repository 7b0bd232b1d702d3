package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// ctrlKind tags a non-local exit propagating up through execStmt/
// runBlock, modeling break/continue/return without Go panics.
type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

type ctrlSignal struct {
	kind  ctrlKind
	value value.Value
}

var noSignal = ctrlSignal{}

// runBlock evaluates list in a fresh scope frame range, returning the
// value of the block's final statement when that is a bare expression or
// a tail if/block (used when the block appears in expression position
// via StmtExpr).
func (e *Evaluator) runBlock(list []ast.Stmt) (value.Value, ctrlSignal, error) {
	mark := e.Scope.Len()
	defer e.Scope.Truncate(mark)
	importMark := len(e.Imports)
	aliasMark := len(e.importAliasOrder)
	defer func() {
		e.Imports = e.Imports[:importMark]
		for _, alias := range e.importAliasOrder[aliasMark:] {
			delete(e.importAliases, alias)
		}
		e.importAliasOrder = e.importAliasOrder[:aliasMark]
	}()

	result := value.Value(value.Unit{})
	for i, stmt := range list {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			if err := e.tick(es.Position); err != nil {
				return nil, noSignal, err
			}
			v, err := e.evalExpr(es.Value)
			if err != nil {
				return nil, noSignal, err
			}
			result = v
			continue
		}
		// The final statement of a block contributes the block's value,
		// so a tail `if`/`{ }` yields its chosen branch's value the way a
		// bare expression would.
		if i == len(list)-1 {
			v, sig, err := e.execTailStmt(stmt)
			if err != nil {
				return nil, noSignal, err
			}
			if sig.kind != ctrlNone {
				return value.Unit{}, sig, nil
			}
			return v, noSignal, nil
		}
		result = value.Unit{}
		sig, err := e.execStmt(stmt)
		if err != nil {
			return nil, noSignal, err
		}
		if sig.kind != ctrlNone {
			return value.Unit{}, sig, nil
		}
	}
	return result, noSignal, nil
}

// execTailStmt executes the final statement of a block, producing the
// block's value for the variants that can carry one (a nested block, or
// an if/else whose taken branch ends in a bare expression). Every other
// variant executes normally and yields Unit.
func (e *Evaluator) execTailStmt(s ast.Stmt) (value.Value, ctrlSignal, error) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		if err := e.tick(st.Position); err != nil {
			return nil, noSignal, err
		}
		return e.runBlock(st.List)

	case *ast.IfThenElseStmt:
		if err := e.tick(st.Position); err != nil {
			return nil, noSignal, err
		}
		cond, err := e.evalExpr(st.Condition)
		if err != nil {
			return nil, noSignal, err
		}
		truthy, ok := value.Truthy(cond)
		if !ok {
			return nil, noSignal, errors.MismatchDataType(st.Condition.Pos(), "bool", cond.Kind().String())
		}
		if truthy {
			return e.execTailStmt(st.Then)
		}
		if st.Alternative != nil {
			return e.execTailStmt(st.Alternative)
		}
		return value.Unit{}, noSignal, nil

	default:
		sig, err := e.execStmt(s)
		return value.Unit{}, sig, err
	}
}

// execStmt dispatches a single Stmt variant.
func (e *Evaluator) execStmt(s ast.Stmt) (ctrlSignal, error) {
	if err := e.tick(s.Pos()); err != nil {
		return noSignal, err
	}
	switch st := s.(type) {
	case *ast.NoopStmt:
		return noSignal, nil

	case *ast.BlockStmt:
		_, sig, err := e.runBlock(st.List)
		return sig, err

	case *ast.IfThenElseStmt:
		cond, err := e.evalExpr(st.Condition)
		if err != nil {
			return noSignal, err
		}
		truthy, ok := value.Truthy(cond)
		if !ok {
			return noSignal, errors.MismatchDataType(st.Condition.Pos(), "bool", cond.Kind().String())
		}
		if truthy {
			return e.execStmt(st.Then)
		}
		if st.Alternative != nil {
			return e.execStmt(st.Alternative)
		}
		return noSignal, nil

	case *ast.WhileStmt:
		for {
			cond, err := e.evalExpr(st.Condition)
			if err != nil {
				return noSignal, err
			}
			truthy, ok := value.Truthy(cond)
			if !ok {
				return noSignal, errors.MismatchDataType(st.Condition.Pos(), "bool", cond.Kind().String())
			}
			if !truthy {
				return noSignal, nil
			}
			sig, err := e.execStmt(st.Body)
			if err != nil {
				return noSignal, err
			}
			switch sig.kind {
			case ctrlBreak:
				return noSignal, nil
			case ctrlReturn:
				return sig, nil
			}
		}

	case *ast.LoopStmt:
		for {
			sig, err := e.execStmt(st.Body)
			if err != nil {
				return noSignal, err
			}
			switch sig.kind {
			case ctrlBreak:
				return noSignal, nil
			case ctrlReturn:
				return sig, nil
			}
		}

	case *ast.ForStmt:
		return e.execFor(st)

	case *ast.LetStmt:
		var v value.Value = value.Unit{}
		if st.Init != nil {
			var err error
			v, err = e.evalExpr(st.Init)
			if err != nil {
				return noSignal, err
			}
		}
		e.Scope.Push(st.Name, v, scope.Mutable)
		return noSignal, nil

	case *ast.ConstStmt:
		var v value.Value = value.Unit{}
		if st.Init != nil {
			var err error
			v, err = e.evalExpr(st.Init)
			if err != nil {
				return noSignal, err
			}
		}
		e.Scope.Push(st.Name, v, scope.Constant)
		return noSignal, nil

	case *ast.AssignmentStmt:
		return noSignal, e.execAssignment(st)

	case *ast.TryCatchStmt:
		return e.execTryCatch(st)

	case *ast.ExprStmt:
		_, err := e.evalExpr(st.Value)
		return noSignal, err

	case *ast.ContinueStmt:
		return ctrlSignal{kind: ctrlContinue}, nil

	case *ast.BreakStmt:
		return ctrlSignal{kind: ctrlBreak}, nil

	case *ast.ReturnStmt:
		v := value.Value(value.Unit{})
		if st.Value != nil {
			var err error
			v, err = e.evalExpr(st.Value)
			if err != nil {
				return noSignal, err
			}
		}
		return ctrlSignal{kind: ctrlReturn, value: v}, nil

	case *ast.ThrowStmt:
		var v value.Value = value.NewStr("")
		if st.Value != nil {
			var err error
			v, err = e.evalExpr(st.Value)
			if err != nil {
				return noSignal, err
			}
		}
		return noSignal, errors.Runtime(st.Position, v, v.String())

	case *ast.ImportStmt:
		return noSignal, e.execImport(st)

	case *ast.ExportStmt:
		return noSignal, e.execExport(st)

	case *ast.ShareStmt:
		return noSignal, e.execShare(st)

	default:
		return noSignal, errors.Newf(errors.KindSystem, s.Pos(), "unhandled statement type %T", s)
	}
}

// execShare converts name's current binding into a Shared cell in
// place, idempotently.
func (e *Evaluator) execShare(st *ast.ShareStmt) error {
	cur, ok := e.Scope.Get(st.Name)
	if !ok {
		return errors.VariableNotFound(st.Position, st.Name)
	}
	if _, already := cur.(value.SharedValue); already {
		return nil
	}
	shared := value.Share(cur)
	if err := e.Scope.Set(st.Name, shared); err != nil {
		return scopeErr(err, st.Position, st.Name)
	}
	return nil
}
