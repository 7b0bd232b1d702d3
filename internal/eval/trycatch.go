package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// execTryCatch implements `try body catch (errVar?) handler`: an
// escaping error is caught iff its Kind is catchable; ErrVar, when
// named, is bound to the error's Value for the duration of Handler.
func (e *Evaluator) execTryCatch(st *ast.TryCatchStmt) (ctrlSignal, error) {
	sig, err := e.execStmt(st.Body)
	if err == nil {
		return sig, nil
	}
	ee, ok := err.(*errors.EvalError)
	if !ok || !ee.Catchable() {
		return noSignal, err
	}

	mark := e.Scope.Len()
	defer e.Scope.Truncate(mark)
	if st.ErrVar != "" {
		e.Scope.Push(st.ErrVar, errorValue(ee), scope.Mutable)
	}
	return e.execStmt(st.Handler)
}

// errorValue renders a caught EvalError as the Value a catch handler
// sees. `throw expr` (errors.Runtime)
// carries the thrown expr's own Value in ee.Value; every other kind
// synthesizes a small descriptive map instead of a bare string, so a
// handler can branch on `err.kind` without string-parsing the message.
func errorValue(ee *errors.EvalError) value.Value {
	// An error that crossed a function-call boundary arrives wrapped in
	// InFunctionCall; the handler wants the innermost thrown value.
	for ee.Value == nil {
		inner, ok := ee.Cause.(*errors.EvalError)
		if !ok {
			break
		}
		ee = inner
	}
	if ee.Value != nil {
		if v, ok := ee.Value.(value.Value); ok {
			return v
		}
	}
	m := value.NewMap()
	m.Set("kind", value.NewStr(string(ee.Kind)))
	m.Set("message", value.NewStr(ee.Message))
	if ee.Name != "" {
		m.Set("name", value.NewStr(ee.Name))
	}
	return m
}
