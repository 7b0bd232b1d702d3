package eval

import (
	"strings"

	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/value"
)

// execAssignment implements `lhs op= rhs`. A compound op first reads
// the current value through the same lvalue the write goes back
// through, then resolves the combine step the same way a compiled
// "+ - * / % & | ^ << >>" FnCallExpr does (native-only, over every
// module in dispatch order), so compound assignment
// can never drift from plain binary-operator semantics.
func (e *Evaluator) execAssignment(st *ast.AssignmentStmt) error {
	lv, err := e.evalLValue(st.LHS)
	if err != nil {
		return err
	}
	rhsVal, err := e.evalExpr(st.RHS)
	if err != nil {
		return err
	}

	newVal := rhsVal
	if st.Op != "=" {
		curVal, err := lv.get()
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(st.Op, "=")
		newVal, err = e.applyBuiltinBinary(base, curVal, rhsVal, st.Position)
		if err != nil {
			return err
		}
	}

	if lv.set == nil {
		return errors.Newf(errors.KindSystem, st.Position, "left side of %q is not assignable", st.Op)
	}
	return lv.set(newVal)
}

// applyBuiltinBinary invokes the native operator fn for name over
// (a, b), the same lookup a compiled `a name b` FnCallExpr would reach
// (NativeOnly, every module in dispatch order), used by compound
// assignment so e.g. `x += 1` and `x = x + 1` dispatch through identical
// code.
func (e *Evaluator) applyBuiltinBinary(name string, a, b value.Value, pos lexer.Position) (value.Value, error) {
	fn, ok := e.lookupNative(e.modules(), &ast.FnCallInfo{Name: name, NativeOnly: true}, []value.Value{a, b})
	if !ok {
		return nil, errors.MismatchDataType(pos, "compatible operand types for "+name, a.Kind().String()+", "+b.Kind().String())
	}
	return fn.Invoke([]value.Value{a, b})
}
