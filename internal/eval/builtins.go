package eval

import (
	"fmt"

	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/value"
)

// newBuiltins builds the engine's own operator and container-iterator
// module, always consulted last in dispatch order and never
// script-overridable. internal/optimizer/foldexpr.go folds the same
// operator set at compile time over literal operands; this is its
// runtime twin for operands that aren't constant.
func newBuiltins() *module.Module {
	m := module.New()
	registerArithmetic(m)
	registerComparison(m)
	registerBitwise(m)
	registerUnary(m)
	registerIterables(m)
	registerRange(m)
	registerJSON(m)
	return m
}

// specialCalls names the bare-call forms that bypass the ordinary
// Lib/Imports/Global/builtins module search because they need direct
// access to evaluator state (the Print/Debug sinks, the Scope itself)
// rather than operating purely over their argument Values.
// Always resolved before the variable-holds-an-FnPtr check, so a script
// can still shadow the name as a local variable without colliding
// (evalSpecialCall only fires for a bare, unnamespaced call).
var specialCalls = map[string]bool{"print": true, "debug": true, "is_def_var": true}

// evalSpecialCall evaluates one of specialCalls, returning ok=false for
// any other name so the caller falls through to ordinary dispatch.
func (e *Evaluator) evalSpecialCall(info *ast.FnCallInfo, pos lexer.Position) (value.Value, bool, error) {
	if !specialCalls[info.Name] {
		return nil, false, nil
	}
	if err := e.tick(pos); err != nil {
		return nil, true, err
	}

	switch info.Name {
	case "print", "debug":
		if len(info.Args) != 1 {
			return nil, true, errors.InFunctionCall(pos, info.Name, module.ErrWrongArgCount)
		}
		v, err := e.evalExpr(info.Args[0])
		if err != nil {
			return nil, true, err
		}
		line := v.String()
		if info.Name == "print" {
			if e.Print != nil {
				e.Print(line)
			} else {
				fmt.Println(line)
			}
		} else {
			if e.Debug != nil {
				e.Debug(line)
			} else {
				fmt.Println(line)
			}
		}
		return value.Unit{}, true, nil

	case "is_def_var":
		if len(info.Args) != 1 {
			return nil, true, errors.InFunctionCall(pos, info.Name, module.ErrWrongArgCount)
		}
		v, err := e.evalExpr(info.Args[0])
		if err != nil {
			return nil, true, err
		}
		name, ok := v.(value.StrValue)
		if !ok {
			return nil, true, errors.MismatchDataType(pos, "string", v.Kind().String())
		}
		_, defined := e.Scope.Get(name.String())
		return value.Bool(defined), true, nil
	}
	return nil, false, nil
}

func registerPure2(m *module.Module, name, lhsKind, rhsKind string, fn module.PureFn) {
	m.RegisterNative(name, 2, module.Public, []string{lhsKind, rhsKind}, module.NewPure(fn))
}

// registerArithmetic wires `+ - * / %` over int/int (exact), `+ - * /`
// over any pairing involving a Float (promoted to Float; `%` is int-only),
// and `+` between a string and a value of any kind, which concatenates.
func registerArithmetic(m *module.Module) {
	intKind, floatKind, strKind := value.KindInt.String(), value.KindFloat.String(), value.KindStr.String()

	registerPure2(m, "+", intKind, intKind, pureArith2(func(a, b value.Int) (value.Value, error) { return a + b, nil }))
	registerPure2(m, "-", intKind, intKind, pureArith2(func(a, b value.Int) (value.Value, error) { return a - b, nil }))
	registerPure2(m, "*", intKind, intKind, pureArith2(func(a, b value.Int) (value.Value, error) { return a * b, nil }))
	registerPure2(m, "/", intKind, intKind, pureIntDivMod("/"))
	registerPure2(m, "%", intKind, intKind, pureIntDivMod("%"))

	for _, pair := range [][2]string{{intKind, floatKind}, {floatKind, intKind}, {floatKind, floatKind}} {
		l, r := pair[0], pair[1]
		registerPure2(m, "+", l, r, pureFloatArith("+"))
		registerPure2(m, "-", l, r, pureFloatArith("-"))
		registerPure2(m, "*", l, r, pureFloatArith("*"))
		registerPure2(m, "/", l, r, pureFloatArith("/"))
	}

	// `+` with a string on either side concatenates, rendering the other
	// operand the way print does.
	concat := func(args []value.Value) (value.Value, error) {
		return value.NewStr(args[0].String() + args[1].String()), nil
	}
	for _, k := range allKinds {
		registerPure2(m, "+", strKind, k.String(), concat)
		registerPure2(m, "+", k.String(), strKind, concat)
	}
}

func pureArith2(fn func(a, b value.Int) (value.Value, error)) module.PureFn {
	return func(args []value.Value) (value.Value, error) {
		return fn(args[0].(value.Int), args[1].(value.Int))
	}
}

// pureIntDivMod implements `/` and `%` over two Ints, surfacing division
// by zero as ErrorArithmetic, the one case
// internal/optimizer's foldArith deliberately leaves unfolded so its
// timing is preserved, and the runtime path this function backs is
// exactly where that deferred error fires.
func pureIntDivMod(op string) module.PureFn {
	return func(args []value.Value) (value.Value, error) {
		a, b := args[0].(value.Int), args[1].(value.Int)
		if b == 0 {
			return nil, errors.Arithmetic(lexer.None, fmt.Sprintf("%s by zero", opName(op)))
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
}

func opName(op string) string {
	if op == "/" {
		return "division"
	}
	return "modulo"
}

func asFloat(v value.Value) float64 {
	switch n := v.(type) {
	case value.Float:
		return float64(n)
	case value.Int:
		return float64(n)
	default:
		return 0
	}
}

func pureFloatArith(op string) module.PureFn {
	return func(args []value.Value) (value.Value, error) {
		a, b := asFloat(args[0]), asFloat(args[1])
		switch op {
		case "+":
			return value.Float(a + b), nil
		case "-":
			return value.Float(a - b), nil
		case "*":
			return value.Float(a * b), nil
		default:
			return value.Float(a / b), nil
		}
	}
}

// registerComparison wires `== != < <= > >=`. Equality/inequality are
// registered over every ordered pair of the built-in kinds listed below,
// cross-kind pairs included (value.Equal already defines cross Int/Float
// equality and reports any other kind mismatch as unequal rather than
// an error). Ordering comparisons are
// registered only where value.Compare succeeds.
func registerComparison(m *module.Module) {
	kinds := []value.Kind{
		value.KindUnit, value.KindBool, value.KindInt, value.KindFloat, value.KindChar,
		value.KindStr, value.KindArray, value.KindMap, value.KindFnPtr, value.KindTimeStamp,
	}
	for _, l := range kinds {
		for _, r := range kinds {
			registerPure2(m, "==", l.String(), r.String(), func(args []value.Value) (value.Value, error) {
				return value.Bool(value.Equal(args[0], args[1])), nil
			})
			registerPure2(m, "!=", l.String(), r.String(), func(args []value.Value) (value.Value, error) {
				return value.Bool(!value.Equal(args[0], args[1])), nil
			})
		}
	}

	ordered := [][2]string{
		{value.KindInt.String(), value.KindInt.String()},
		{value.KindInt.String(), value.KindFloat.String()},
		{value.KindFloat.String(), value.KindInt.String()},
		{value.KindFloat.String(), value.KindFloat.String()},
		{value.KindChar.String(), value.KindChar.String()},
		{value.KindStr.String(), value.KindStr.String()},
	}
	for _, pair := range ordered {
		l, r := pair[0], pair[1]
		registerPure2(m, "<", l, r, pureOrdered(func(c int) bool { return c < 0 }))
		registerPure2(m, "<=", l, r, pureOrdered(func(c int) bool { return c <= 0 }))
		registerPure2(m, ">", l, r, pureOrdered(func(c int) bool { return c > 0 }))
		registerPure2(m, ">=", l, r, pureOrdered(func(c int) bool { return c >= 0 }))
	}
}

func pureOrdered(accept func(cmp int) bool) module.PureFn {
	return func(args []value.Value) (value.Value, error) {
		cmp, err := value.Compare(args[0], args[1])
		if err != nil {
			return nil, errors.MismatchDataType(lexer.None, "comparable operands", fmt.Sprintf("%s, %s", args[0].Kind(), args[1].Kind()))
		}
		return value.Bool(accept(cmp)), nil
	}
}

// registerBitwise wires `& | ^ << >>`, Int-only.
func registerBitwise(m *module.Module) {
	intKind := value.KindInt.String()
	ops := map[string]func(a, b value.Int) value.Int{
		"&":  func(a, b value.Int) value.Int { return a & b },
		"|":  func(a, b value.Int) value.Int { return a | b },
		"^":  func(a, b value.Int) value.Int { return a ^ b },
		"<<": func(a, b value.Int) value.Int { return a << uint(b) },
		">>": func(a, b value.Int) value.Int { return a >> uint(b) },
	}
	for name, fn := range ops {
		fn := fn
		registerPure2(m, name, intKind, intKind, func(args []value.Value) (value.Value, error) {
			return fn(args[0].(value.Int), args[1].(value.Int)), nil
		})
	}
}

// registerUnary wires `unary-` and `unary!`.
func registerUnary(m *module.Module) {
	intKind, floatKind, boolKind := value.KindInt.String(), value.KindFloat.String(), value.KindBool.String()
	m.RegisterNative("unary-", 1, module.Public, []string{intKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return -args[0].(value.Int), nil
	}))
	m.RegisterNative("unary-", 1, module.Public, []string{floatKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return -args[0].(value.Float), nil
	}))
	m.RegisterNative("unary!", 1, module.Public, []string{boolKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return !args[0].(value.Bool), nil
	}))
}

// sliceIterator is the Iterator over an already-materialized []Value,
// backing arrays, map keys and string characters.
type sliceIterator struct {
	items []value.Value
	pos   int
}

func (it *sliceIterator) Next() (value.Value, bool) {
	if it.pos >= len(it.items) {
		return value.Unit{}, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// registerIterables wires the built-in container iterators a for-loop
// consults by the iterable's type identity: arrays yield
// their elements, maps yield their keys as strings, strings yield their
// characters.
func registerIterables(m *module.Module) {
	m.RegisterIterator(value.KindArray.String(), func(v value.Value) (module.Iterator, error) {
		arr, ok := v.(value.ArrayValue)
		if !ok {
			return nil, errors.MismatchDataType(lexer.None, "array", v.Kind().String())
		}
		items := make([]value.Value, len(arr.Items()))
		copy(items, arr.Items())
		return &sliceIterator{items: items}, nil
	})
	m.RegisterIterator(value.KindMap.String(), func(v value.Value) (module.Iterator, error) {
		mv, ok := v.(value.MapValue)
		if !ok {
			return nil, errors.MismatchDataType(lexer.None, "map", v.Kind().String())
		}
		keys := mv.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.NewStr(k)
		}
		return &sliceIterator{items: items}, nil
	})
	m.RegisterIterator(value.KindStr.String(), func(v value.Value) (module.Iterator, error) {
		sv, ok := v.(value.StrValue)
		if !ok {
			return nil, errors.MismatchDataType(lexer.None, "string", v.Kind().String())
		}
		runes := []rune(sv.String())
		items := make([]value.Value, len(runes))
		for i, r := range runes {
			items[i] = value.Char(r)
		}
		return &sliceIterator{items: items}, nil
	})
}

// rangeIterator lazily produces start, start+step, … up to (exclusive
// of) end, never materializing the whole sequence.
type rangeIterator struct {
	cur, end, step int64
}

func (it *rangeIterator) Next() (value.Value, bool) {
	if it.step > 0 && it.cur >= it.end {
		return value.Unit{}, false
	}
	if it.step < 0 && it.cur <= it.end {
		return value.Unit{}, false
	}
	v := value.Int(it.cur)
	it.cur += it.step
	return v, true
}

const rangeTypeName = "range"

// newRange builds the NativeValue representation shared by the
// `range(start, end[, step])` built-in and a `lhs..rhs`/`lhs..=rhs`
// RangeExpr (internal/eval/expr.go), so both forms feed the same
// iterator and `in`-containment support.
func newRange(start, end, step int64) value.Value {
	return value.NewNative(rangeTypeName, [3]int64{start, end, step}, func(h any) any { return h })
}

// rangeBounds extracts a range NativeValue's [start, end, step], failing
// if v isn't one.
func rangeBounds(pos lexer.Position, v value.Value) ([3]int64, error) {
	nv, ok := v.(value.NativeValue)
	if !ok || nv.TypeName() != rangeTypeName {
		return [3]int64{}, errors.MismatchDataType(pos, rangeTypeName, v.Kind().String())
	}
	return nv.Handle().([3]int64), nil
}

// registerRange wires the `range(start, end)` / `range(start, end,
// step)` built-in, returning a NativeValue tagged
// "range" with a registered Iterator so a for-loop can consume it
// without ever building an intermediate array.
func registerRange(m *module.Module) {
	intKind := value.KindInt.String()
	m.RegisterNative("range", 2, module.Public, []string{intKind, intKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		start, end := int64(args[0].(value.Int)), int64(args[1].(value.Int))
		return newRange(start, end, 1), nil
	}))
	m.RegisterNative("range", 3, module.Public, []string{intKind, intKind, intKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		start, end, step := int64(args[0].(value.Int)), int64(args[1].(value.Int)), int64(args[2].(value.Int))
		if step == 0 {
			return nil, errors.Arithmetic(lexer.None, "range step must not be zero")
		}
		return newRange(start, end, step), nil
	}))
	m.RegisterIterator(rangeTypeName, func(v value.Value) (module.Iterator, error) {
		bounds, err := rangeBounds(lexer.None, v)
		if err != nil {
			return nil, err
		}
		return &rangeIterator{cur: bounds[0], end: bounds[1], step: bounds[2]}, nil
	})
}
