package eval

import (
	"strings"

	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/value"
)

// evalExpr dispatches a single Expr variant to its Value.
// Variable/Index/Dot reads go through evalLValue so a bare read and an
// assignment target share one resolution path.
func (e *Evaluator) evalExpr(expr ast.Expr) (value.Value, error) {
	switch v := expr.(type) {
	case *ast.LiteralExpr:
		return v.Value, nil

	case *ast.ParenExpr:
		return e.evalExpr(v.Inner)

	case *ast.VariableExpr:
		lv, err := e.variableLValue(v)
		if err != nil {
			return nil, err
		}
		return lv.get()

	case *ast.IndexExpr:
		lv, err := e.indexLValue(v)
		if err != nil {
			return nil, err
		}
		return lv.get()

	case *ast.DotExpr:
		lv, err := e.dotLValue(v)
		if err != nil {
			return nil, err
		}
		return lv.get()

	case *ast.FnPointerExpr:
		return e.evalFnPointer(v)

	case *ast.StmtExpr:
		result, sig, err := e.runBlock(v.Block.List)
		if err != nil {
			return nil, err
		}
		if sig.kind != ctrlNone {
			return nil, errors.Newf(errors.KindSystem, v.Position, "%s not allowed inside an expression block", sig.kind)
		}
		return result, nil

	case *ast.FnCallExpr:
		return e.evalFnCall(v)

	case *ast.ArrayExpr:
		items := make([]value.Value, len(v.Items))
		for i, it := range v.Items {
			val, err := e.evalExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return value.NewArray(items), nil

	case *ast.MapExpr:
		m := value.NewMap()
		for _, p := range v.Pairs {
			val, err := e.evalExpr(p.Value)
			if err != nil {
				return nil, err
			}
			m.Set(p.Key, val)
		}
		return m, nil

	case *ast.InExpr:
		return e.evalIn(v)

	case *ast.RangeExpr:
		return e.evalRange(v)

	case *ast.AndExpr:
		lhs, err := e.evalExpr(v.LHS)
		if err != nil {
			return nil, err
		}
		truthy, ok := value.Truthy(lhs)
		if !ok {
			return nil, errors.MismatchDataType(v.LHS.Pos(), "bool", lhs.Kind().String())
		}
		if !truthy {
			return value.Bool(false), nil
		}
		rhs, err := e.evalExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		if _, ok := value.Truthy(rhs); !ok {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "bool", rhs.Kind().String())
		}
		return rhs, nil

	case *ast.OrExpr:
		lhs, err := e.evalExpr(v.LHS)
		if err != nil {
			return nil, err
		}
		truthy, ok := value.Truthy(lhs)
		if !ok {
			return nil, errors.MismatchDataType(v.LHS.Pos(), "bool", lhs.Kind().String())
		}
		if truthy {
			return value.Bool(true), nil
		}
		rhs, err := e.evalExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		if _, ok := value.Truthy(rhs); !ok {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "bool", rhs.Kind().String())
		}
		return rhs, nil

	case *ast.PropertyExpr:
		// Reached only if a bare property name somehow appears outside a
		// Dot chain; treat it as a variable reference to its Ident.
		return e.evalExpr(&ast.VariableExpr{Position: v.Position, Ident: v.Ident, Index: -1})

	case *ast.CustomExpr:
		return v.Eval(e, v.Slots)

	default:
		return nil, errors.Newf(errors.KindSystem, expr.Pos(), "unhandled expression type %T", expr)
	}
}

// evalFnCall evaluates a bare call `name(args)` (not part of a Dot
// chain): first checking whether name resolves to a local variable
// holding an FnPtr value, then
// falling back to the ordinary module search dispatch.
func (e *Evaluator) evalFnCall(call *ast.FnCallExpr) (value.Value, error) {
	info := call.Info

	if len(info.Namespace) == 0 {
		if v, ok, err := e.evalSpecialCall(info, call.Position); ok {
			return v, err
		}
		if raw, ok := e.Scope.Get(info.Name); ok {
			unwrapped, err := value.Unwrap(raw)
			if err != nil {
				return nil, err
			}
			if fp, ok := unwrapped.(value.FnPtrValue); ok {
				return e.callFnPtr(fp, info, call.Position)
			}
		}
	}

	// The first argument doubles as a Method callable's mutable receiver
	// (`push(a, 1)` mutates a the way `a.push(1)` does), so it is
	// evaluated as an lvalue and handed to dispatch for write-back.
	args := make([]value.Value, len(info.Args))
	var argLVs []*lvalue
	for i, a := range info.Args {
		if i == 0 {
			lv, err := e.evalLValue(a)
			if err != nil {
				return nil, err
			}
			val, err := lv.get()
			if err != nil {
				return nil, err
			}
			args[0] = val
			argLVs = make([]*lvalue, len(info.Args))
			argLVs[0] = lv
			continue
		}
		val, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return e.dispatchCall(info, args, argLVs, call.Position)
}

// callFnPtr invokes the function fp names, prepending its curried
// arguments ahead of the call site's own arguments.
func (e *Evaluator) callFnPtr(fp value.FnPtrValue, info *ast.FnCallInfo, pos lexer.Position) (value.Value, error) {
	curry := fp.Curry()
	args := make([]value.Value, 0, len(curry)+len(info.Args))
	args = append(args, curry...)
	for _, a := range info.Args {
		val, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	resolved := &ast.FnCallInfo{Name: fp.Name(), Args: info.Args, Default: info.Default}
	return e.dispatchCall(resolved, args, nil, pos)
}

// evalRange evaluates `lhs..rhs`/`lhs..=rhs` to the same "range"
// NativeValue the range() built-in produces (internal/eval/builtins.go),
// so both forms share one Iterator registration and `in`-containment
// rule.
func (e *Evaluator) evalRange(v *ast.RangeExpr) (value.Value, error) {
	lhs, err := e.evalExpr(v.LHS)
	if err != nil {
		return nil, err
	}
	start, ok := lhs.(value.Int)
	if !ok {
		return nil, errors.MismatchDataType(v.LHS.Pos(), "int", lhs.Kind().String())
	}
	rhs, err := e.evalExpr(v.RHS)
	if err != nil {
		return nil, err
	}
	end, ok := rhs.(value.Int)
	if !ok {
		return nil, errors.MismatchDataType(v.RHS.Pos(), "int", rhs.Kind().String())
	}
	endVal := int64(end)
	if v.Inclusive {
		endVal++
	}
	return newRange(int64(start), endVal, 1), nil
}

func (e *Evaluator) evalIn(v *ast.InExpr) (value.Value, error) {
	lhs, err := e.evalExpr(v.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := e.evalExpr(v.RHS)
	if err != nil {
		return nil, err
	}
	switch container := rhs.(type) {
	case value.ArrayValue:
		for _, item := range container.Items() {
			if value.Equal(lhs, item) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil

	case value.MapValue:
		key, ok := lhs.(value.StrValue)
		if !ok {
			return nil, errors.MismatchDataType(v.LHS.Pos(), "string", lhs.Kind().String())
		}
		_, ok = container.Get(key.String())
		return value.Bool(ok), nil

	case value.StrValue:
		needle, ok := lhs.(value.StrValue)
		if !ok {
			return nil, errors.MismatchDataType(v.LHS.Pos(), "string", lhs.Kind().String())
		}
		return value.Bool(strings.Contains(container.String(), needle.String())), nil

	case value.NativeValue:
		if container.TypeName() != rangeTypeName {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "array, map, string, or range", rhs.Kind().String())
		}
		needle, ok := lhs.(value.Int)
		if !ok {
			return nil, errors.MismatchDataType(v.LHS.Pos(), "int", lhs.Kind().String())
		}
		bounds, err := rangeBounds(v.RHS.Pos(), container)
		if err != nil {
			return nil, err
		}
		n := int64(needle)
		start, end, step := bounds[0], bounds[1], bounds[2]
		if step > 0 {
			return value.Bool(n >= start && n < end), nil
		}
		return value.Bool(n <= start && n > end), nil

	default:
		return nil, errors.MismatchDataType(v.RHS.Pos(), "array, map, string, or range", rhs.Kind().String())
	}
}
