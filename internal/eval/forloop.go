package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/module"
	"embedscript/internal/scope"
)

// execFor implements the for-loop: the iterable's type
// identity selects a registered IteratorFn (built-in for
// array/map/string/range, or host-registered for any other type via
// RegisterIterator); the loop variable gets a fresh frame per
// iteration, and the iterator itself is consulted exactly once: finite
// and non-restartable.
func (e *Evaluator) execFor(st *ast.ForStmt) (ctrlSignal, error) {
	iterable, err := e.evalExpr(st.Iterable)
	if err != nil {
		return noSignal, err
	}
	typeID := propertyTypeID(iterable)
	iterFn, ok := e.lookupIterator(typeID)
	if !ok {
		return noSignal, errors.MismatchDataType(st.Position, "iterable type", typeID)
	}
	it, err := iterFn(iterable)
	if err != nil {
		return noSignal, err
	}

	for {
		item, ok := it.Next()
		if !ok {
			return noSignal, nil
		}
		if err := e.tick(st.Position); err != nil {
			return noSignal, err
		}
		mark := e.Scope.Len()
		e.Scope.Push(st.VarName, item, scope.Mutable)
		sig, err := e.execStmt(st.Body)
		e.Scope.Truncate(mark)
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
}

// lookupIterator searches Lib/Imports/Global/builtins, in dispatch
// order, for the IteratorFn registered against typeID.
func (e *Evaluator) lookupIterator(typeID string) (module.IteratorFn, bool) {
	for _, m := range e.modules() {
		if fn, ok := m.IteratorFor(typeID); ok {
			return fn, true
		}
	}
	return nil, false
}
