package engine

import (
	"fmt"
	"testing"

	"embedscript/internal/ast"
	"embedscript/internal/optimizer"
	"embedscript/internal/parser"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// "const x = 123; x" evaluates to Int(123); assigning to x afterwards
// yields ErrorAssignmentToConstant.
func TestConstScenario(t *testing.T) {
	e := New()
	v, err := e.Run(`const x = 123; x`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 123 {
		t.Fatalf("got %#v, want Int(123)", v)
	}

	_, err = e.Run(`const x = 123; x = 456; x`)
	if err == nil {
		t.Fatalf("expected ErrorAssignmentToConstant, got nil")
	}
}

// With scope constant x = 42 and full optimization,
// "if x > 40 { x } else { 0 }" evaluates to Int(42) even without x
// in the eval-time Scope (constant-folded away at compile time).
func TestScopeConstantFoldsUnderFullOptimization(t *testing.T) {
	e := New(WithOptimizationLevel(optimizer.Full), WithScopeConstant("x", value.Int(42)))
	v, err := e.Run(`if x > 40 { x } else { 0 }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 42 {
		t.Fatalf("got %#v, want Int(42)", v)
	}
}

// Redefining a script function overrides the first definition under the
// same (name, arity) script hash.
func TestFunctionRedefinitionOverrides(t *testing.T) {
	e := New()
	v, err := e.Run(`
		fn foo(x) { 42 + x }
		fn foo(n) { "hello" + n }
		foo("!")
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := v.(value.StrValue)
	if !ok || s.String() != "hello!" {
		t.Fatalf("got %#v, want Str(\"hello!\")", v)
	}
}

// is_def_var reports whether a name is bound in the current scope.
func TestIsDefVar(t *testing.T) {
	e := New()
	v, err := e.Run(`let x = 42; is_def_var("x")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true)", v)
	}

	v, err = e.Run(`let x = 42; is_def_var("y")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || bool(b) {
		t.Fatalf("got %#v, want Bool(false)", v)
	}
}

// A for-loop over range(0, 50000) aborts with ErrorTerminated once the
// progress callback returns a stop value, and the callback fires at
// least once before the quota used in this test.
func TestProgressCallbackTerminates(t *testing.T) {
	e := New()
	calls := 0
	e.OnProgress(func(ops uint64) (value.Value, bool) {
		calls++
		if ops >= 10001 {
			return value.Int(-1), true
		}
		return nil, false
	})

	_, err := e.Run(`for x in range(0, 50000) { }`)
	if err == nil {
		t.Fatalf("expected ErrorTerminated, got nil")
	}
	if calls == 0 {
		t.Fatalf("progress callback was never invoked")
	}
}

// print(x) dispatches to the host's OnPrint sink.
func TestPrintDispatchesToSink(t *testing.T) {
	e := New()
	var got string
	e.OnPrint(func(line string) { got = line })

	if _, err := e.Run(`print("hi " + 1)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi 1" {
		t.Fatalf("got %q, want %q", got, "hi 1")
	}
}

// Closures: a function literal capturing an outer variable shares a
// mutable cell with the defining scope.
func TestClosureCapturesSharedCell(t *testing.T) {
	e := New()
	v, err := e.Run(`
		let counter = 0;
		let inc = || { counter += 1; };
		inc();
		inc();
		counter
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 2 {
		t.Fatalf("got %#v, want Int(2)", v)
	}
}

// try/catch intercepts a thrown value and binds it to the error
// variable.
func TestTryCatchBindsThrownValue(t *testing.T) {
	e := New()
	v, err := e.Run(`
		let result = 0;
		try {
			throw "boom";
		} catch (err) {
			result = 1;
		}
		result
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 1 {
		t.Fatalf("got %#v, want Int(1)", v)
	}
}

// ErrorStackOverflow fires once recursion exceeds the configured depth
// limit.
func TestStackOverflow(t *testing.T) {
	e := New(WithMaxCallDepth(16))
	_, err := e.Run(`
		fn recurse(n) { recurse(n + 1) }
		recurse(0)
	`)
	if err == nil {
		t.Fatalf("expected ErrorStackOverflow, got nil")
	}
}

// Host-registered native functions dispatch by (name, arity, arg-type)
// via reflection-wrapped RegisterFn.
func TestRegisterFnDispatch(t *testing.T) {
	e := New()
	if err := e.RegisterFn("double", func(n int64) int64 { return n * 2 }); err != nil {
		t.Fatalf("RegisterFn: %v", err)
	}
	v, err := e.Run(`double(21)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 42 {
		t.Fatalf("got %#v, want Int(42)", v)
	}
}

// Custom syntax: `exec |x| -> { x += 1 }
// while x < 42` binds a fresh variable and re-evaluates its block and
// condition slots in a loop, something a pre-evaluated-value callback
// could never do: the block and condition must run once per iteration,
// against a binding the custom syntax itself introduces.
func TestCustomSyntaxLoopWhile(t *testing.T) {
	e := New()
	e.RegisterCustomSyntax("exec", []parser.SlotKind{
		parser.SlotSymbol, parser.SlotIdent, parser.SlotSymbol,
		parser.SlotSymbol, parser.SlotBlock, parser.SlotKeyword, parser.SlotExpr,
	}, func(ctx ast.CustomContext, slots []ast.Expr) (value.Value, error) {
		name, ok := ast.IdentName(slots[0])
		if !ok {
			return nil, fmt.Errorf("exec: expected an identifier in the |x| slot")
		}
		body, cond := slots[1], slots[2]

		ctx.PushVar(name, value.Int(0))
		for {
			if _, err := ctx.EvalExpressionTree(body); err != nil {
				return nil, err
			}
			v, err := ctx.EvalExpressionTree(cond)
			if err != nil {
				return nil, err
			}
			truthy, ok := value.Truthy(v)
			if !ok {
				return nil, fmt.Errorf("exec: while-condition must be a bool")
			}
			if !truthy {
				break
			}
		}
		return value.Unit{}, nil
	})

	tree, err := e.Compile(`exec |x| -> { x += 1 } while x < 42; x`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	v, err := e.RunAST(tree)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 42 {
		t.Fatalf("got %#v, want Int(42)", v)
	}
}

// Generic Eval[T] converts the script's result Value to a Go type,
// failing with ErrorMismatchOutputType on a shape mismatch.
func TestEvalGenericConversion(t *testing.T) {
	n, err := Eval[int64](New(), `1 + 2 * 3`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("got %d, want 7", n)
	}

	if _, err := Eval[string](New(), `42`); err == nil {
		t.Fatalf("expected ErrorMismatchOutputType, got nil")
	}
}

// Calling a script function through CallFunction yields the same Value
// as evaluating the equivalent call expression, and the argument buffer
// is consumed (zeroed to Unit) either way.
func TestCallFunctionMatchesDirectCall(t *testing.T) {
	e := New()
	tree, err := e.Compile(`fn add(a, b) { a + b }`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	args := []value.Value{value.Int(2), value.Int(3)}
	got, err := e.CallFunction(tree, scope.New(), "add", args)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if i, ok := got.(value.Int); !ok || i != 5 {
		t.Fatalf("got %#v, want Int(5)", got)
	}
	for i, a := range args {
		if _, ok := a.(value.Unit); !ok {
			t.Errorf("args[%d] not consumed: %#v", i, a)
		}
	}

	direct, err := e.Run(`fn add(a, b) { a + b } add(2, 3)`)
	if err != nil {
		t.Fatalf("direct call: %v", err)
	}
	if !value.Equal(got, direct) {
		t.Errorf("CallFunction result %v differs from direct evaluation %v", got, direct)
	}
}

// CallFunctionWithThis binds a mutable `this` and writes its post-call
// value back through the pointer.
func TestCallFunctionWithThisMutatesBinding(t *testing.T) {
	e := New()
	tree, err := e.Compile(`fn bump() { this = this + 1; }`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	this := value.Value(value.Int(41))
	if _, err := e.CallFunctionWithThis(tree, scope.New(), "bump", &this, nil); err != nil {
		t.Fatalf("CallFunctionWithThis: %v", err)
	}
	if i, ok := this.(value.Int); !ok || i != 42 {
		t.Fatalf("this = %#v, want Int(42)", this)
	}
}

// CompileWithScope feeds a host scope's Constant bindings to the Full
// optimizer level, so the compiled tree no longer needs them at eval
// time.
func TestCompileWithScopeFoldsConstants(t *testing.T) {
	e := New(WithOptimizationLevel(optimizer.Full))
	sc := scope.New()
	sc.Push("LIMIT", value.Int(10), scope.Constant)

	tree, err := e.CompileWithScope(sc, `LIMIT * 2`)
	if err != nil {
		t.Fatalf("CompileWithScope: %v", err)
	}
	v, err := e.RunAST(tree)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 20 {
		t.Fatalf("got %#v, want Int(20)", v)
	}
}

// OnVar shadows normal lookup for names it resolves, and ordinary
// lookup continues for the rest.
func TestOnVarResolverShadowsLookup(t *testing.T) {
	e := New()
	e.OnVar(func(name string) (value.Value, bool) {
		if name == "magic" {
			return value.Int(7), true
		}
		return nil, false
	})

	v, err := e.Run(`magic * 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 14 {
		t.Fatalf("got %#v, want Int(14)", v)
	}

	if _, err := e.Run(`missing`); err == nil {
		t.Fatalf("expected ErrorVariableNotFound for an unresolved name")
	}
}

// DisableSymbol turns a spelling into a lex error in later compiles.
func TestDisableSymbolRejectsSpelling(t *testing.T) {
	e := New()
	e.DisableSymbol("while")
	if _, err := e.Compile(`while true { }`); err == nil {
		t.Fatalf("expected a compile error for a disabled symbol")
	}
}

// ParseJSON builds a Value tree from a JSON object literal, mapping
// null to Unit.
func TestParseJSONMapsNullToUnit(t *testing.T) {
	e := New()
	v, err := e.ParseJSON(`{"a": 1, "b": null}`)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	m, ok := v.(value.MapValue)
	if !ok {
		t.Fatalf("got %T, want MapValue", v)
	}
	b, _ := m.Get("b")
	if _, ok := b.(value.Unit); !ok {
		t.Fatalf("b: got %#v, want Unit", b)
	}
}
