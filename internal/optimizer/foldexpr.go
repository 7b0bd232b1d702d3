package optimizer

import (
	"embedscript/internal/ast"
	"embedscript/internal/value"
)

// foldExpr rewrites e bottom-up, returning the (possibly) new node and
// whether anything changed.
func (o *Optimizer) foldExpr(e ast.Expr) (ast.Expr, bool) {
	switch ex := e.(type) {
	case *ast.ParenExpr:
		inner, changed := o.foldExpr(ex.Inner)
		ex.Inner = inner
		return ex, changed

	case *ast.VariableExpr:
		if o.level == Full && len(ex.Namespace) == 0 {
			if c, ok := o.constants[ex.Ident]; ok {
				return &ast.LiteralExpr{Position: ex.Position, Value: c}, true
			}
		}
		return ex, false

	case *ast.AndExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		rhs, rc := o.foldExpr(ex.RHS)
		ex.LHS, ex.RHS = lhs, rhs
		changed := lc || rc
		if lit, ok := ast.UnwrapExpr(lhs).(*ast.LiteralExpr); ok {
			if truthy, ok := value.Truthy(lit.Value); ok {
				if !truthy {
					return lit, true
				}
				return rhs, true
			}
		}
		return ex, changed

	case *ast.OrExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		rhs, rc := o.foldExpr(ex.RHS)
		ex.LHS, ex.RHS = lhs, rhs
		changed := lc || rc
		if lit, ok := ast.UnwrapExpr(lhs).(*ast.LiteralExpr); ok {
			if truthy, ok := value.Truthy(lit.Value); ok {
				if truthy {
					return lit, true
				}
				return rhs, true
			}
		}
		return ex, changed

	case *ast.InExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		rhs, rc := o.foldExpr(ex.RHS)
		ex.LHS, ex.RHS = lhs, rhs
		return ex, lc || rc

	case *ast.RangeExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		rhs, rc := o.foldExpr(ex.RHS)
		ex.LHS, ex.RHS = lhs, rhs
		return ex, lc || rc

	case *ast.DotExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		ex.LHS = lhs
		return ex, lc

	case *ast.IndexExpr:
		lhs, lc := o.foldExpr(ex.LHS)
		rhs, rc := o.foldExpr(ex.RHS)
		ex.LHS, ex.RHS = lhs, rhs
		return ex, lc || rc

	case *ast.ArrayExpr:
		return o.foldArray(ex)

	case *ast.MapExpr:
		return o.foldMap(ex)

	case *ast.FnCallExpr:
		return o.foldCall(ex)

	case *ast.StmtExpr:
		changed := false
		ex.Block.List, changed = o.foldStmts(ex.Block.List)
		return ex, changed

	default:
		return e, false
	}
}

// foldArray rewrites each item and, if every item folded to a literal,
// collapses the whole expression into a single LiteralExpr wrapping an
// ArrayValue.
func (o *Optimizer) foldArray(ex *ast.ArrayExpr) (ast.Expr, bool) {
	changed := false
	allLiteral := true
	items := make([]value.Value, len(ex.Items))
	for i, item := range ex.Items {
		folded, itemChanged := o.foldExpr(item)
		ex.Items[i] = folded
		if itemChanged {
			changed = true
		}
		lit, ok := ast.UnwrapExpr(folded).(*ast.LiteralExpr)
		if !ok {
			allLiteral = false
			continue
		}
		items[i] = lit.Value
	}
	if allLiteral {
		return &ast.LiteralExpr{Position: ex.Position, Value: value.NewArray(items)}, true
	}
	return ex, changed
}

// foldMap mirrors foldArray for #{ } literals.
func (o *Optimizer) foldMap(ex *ast.MapExpr) (ast.Expr, bool) {
	changed := false
	allLiteral := true
	m := value.NewMap()
	for i, pair := range ex.Pairs {
		folded, pairChanged := o.foldExpr(pair.Value)
		ex.Pairs[i].Value = folded
		if pairChanged {
			changed = true
		}
		lit, ok := ast.UnwrapExpr(folded).(*ast.LiteralExpr)
		if !ok {
			allLiteral = false
			continue
		}
		m.Set(pair.Key, lit.Value)
	}
	if allLiteral {
		return &ast.LiteralExpr{Position: ex.Position, Value: m}, true
	}
	return ex, changed
}

// foldCall folds arguments, then, for native_only binary/unary operator
// calls over literal operands, evaluates the operator at compile
// time. Anything that
// might error or dispatch to script-overridable behavior (non-native
// calls) is left alone so error timing never shifts.
func (o *Optimizer) foldCall(ex *ast.FnCallExpr) (ast.Expr, bool) {
	changed := false
	for i, arg := range ex.Info.Args {
		folded, argChanged := o.foldExpr(arg)
		ex.Info.Args[i] = folded
		if argChanged {
			changed = true
		}
	}
	if !ex.Info.NativeOnly {
		return ex, changed
	}
	lits := make([]value.Value, len(ex.Info.Args))
	for i, arg := range ex.Info.Args {
		lit, ok := ast.UnwrapExpr(arg).(*ast.LiteralExpr)
		if !ok {
			return ex, changed
		}
		lits[i] = lit.Value
	}
	if result, ok := foldOperator(ex.Info.Name, lits); ok {
		return &ast.LiteralExpr{Position: ex.Position, Value: result}, true
	}
	return ex, changed
}

// foldOperator evaluates a native_only operator call over literal
// operands at compile time, covering the arithmetic/comparison/logical
// built-ins the lexer/parser emit for `+ - * / % == != < <= > >= & | ^
// << >>` and the `unary-`/`unary!` forms. Anything outside this set (user
// overloads, host-registered operators) is left to the evaluator.
func foldOperator(name string, args []value.Value) (value.Value, bool) {
	if len(args) == 1 {
		return foldUnary(name, args[0])
	}
	if len(args) != 2 {
		return nil, false
	}
	a, b := args[0], args[1]
	switch name {
	case "+", "-", "*", "/", "%":
		return foldArith(name, a, b)
	case "==":
		return value.Bool(value.Equal(a, b)), true
	case "!=":
		return value.Bool(!value.Equal(a, b)), true
	case "<", "<=", ">", ">=":
		cmp, err := value.Compare(a, b)
		if err != nil {
			return nil, false
		}
		switch name {
		case "<":
			return value.Bool(cmp < 0), true
		case "<=":
			return value.Bool(cmp <= 0), true
		case ">":
			return value.Bool(cmp > 0), true
		default:
			return value.Bool(cmp >= 0), true
		}
	case "&", "|", "^", "<<", ">>":
		ai, aok := a.(value.Int)
		bi, bok := b.(value.Int)
		if !aok || !bok {
			return nil, false
		}
		switch name {
		case "&":
			return ai & bi, true
		case "|":
			return ai | bi, true
		case "^":
			return ai ^ bi, true
		case "<<":
			return ai << uint(bi), true
		default:
			return ai >> uint(bi), true
		}
	default:
		return nil, false
	}
}

func foldArith(op string, a, b value.Value) (value.Value, bool) {
	ai, aInt := a.(value.Int)
	bi, bInt := b.(value.Int)
	if aInt && bInt {
		switch op {
		case "+":
			return ai + bi, true
		case "-":
			return ai - bi, true
		case "*":
			return ai * bi, true
		case "/":
			if bi == 0 {
				return nil, false // preserve the runtime division-by-zero error
			}
			return ai / bi, true
		case "%":
			if bi == 0 {
				return nil, false
			}
			return ai % bi, true
		}
	}
	af, aFloatOK := asFloat(a)
	bf, bFloatOK := asFloat(b)
	if aFloatOK && bFloatOK {
		switch op {
		case "+":
			return value.Float(af + bf), true
		case "-":
			return value.Float(af - bf), true
		case "*":
			return value.Float(af * bf), true
		case "/":
			return value.Float(af / bf), true
		}
	}
	if op == "+" {
		as, aStr := a.(value.StrValue)
		bs, bStr := b.(value.StrValue)
		if aStr && bStr {
			return value.NewStr(as.String() + bs.String()), true
		}
	}
	return nil, false
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Float:
		return float64(n), true
	case value.Int:
		return float64(n), true
	default:
		return 0, false
	}
}

func foldUnary(name string, a value.Value) (value.Value, bool) {
	switch name {
	case "unary-":
		switch n := a.(type) {
		case value.Int:
			return -n, true
		case value.Float:
			return -n, true
		}
	case "unary!":
		if b, ok := a.(value.Bool); ok {
			return !b, true
		}
	}
	return nil, false
}
