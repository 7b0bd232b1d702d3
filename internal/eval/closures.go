package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/value"
)

// evalFnPointer evaluates an FnPointerExpr into an FnPtrValue, currying
// in each Curry slot in order.
func (e *Evaluator) evalFnPointer(v *ast.FnPointerExpr) (value.Value, error) {
	fp := value.NewFnPtr(v.Name)
	for _, c := range v.Curry {
		val, err := e.captureValue(c, v.Position)
		if err != nil {
			return nil, err
		}
		fp = fp.WithCurry(val)
	}
	return fp, nil
}

// captureValue evaluates one closure-capture slot of a FnPointerExpr. A
// bare VariableExpr slot names a variable captured from the enclosing
// scope: it is converted to a Shared cell in place, idempotently, so
// the closure body and the defining scope see the same mutable cell
// from then on.
// A capture name with no binding in scope (e.g. one that freeVariables
// recorded defensively because it turned out to name a global function
// rather than a local) curries in Unit, harmless since nothing in the
// closure body reads it as a value in that case. Any other slot kind is
// an already-built curry expression, evaluated normally.
func (e *Evaluator) captureValue(expr ast.Expr, pos lexer.Position) (value.Value, error) {
	v, ok := expr.(*ast.VariableExpr)
	if !ok {
		return e.evalExpr(expr)
	}
	raw, ok := e.rawVariable(v)
	if !ok {
		return value.Unit{}, nil
	}
	if shared, isShared := raw.(value.SharedValue); isShared {
		return shared, nil
	}
	shared := value.Share(raw)
	lv, err := e.variableLValue(v)
	if err != nil {
		return nil, err
	}
	if err := lv.set(shared); err != nil {
		return nil, err
	}
	return shared, nil
}
