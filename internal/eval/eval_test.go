package eval

import (
	"testing"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/parser"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

func compile(t *testing.T, src string) *ast.AST {
	t.Helper()
	lex := lexer.New([]string{src})
	p := parser.New(lex)
	tree, errs := p.ParseProgram()
	if len(lex.Errors()) > 0 || len(errs) > 0 {
		t.Fatalf("compile %q: lex=%v parse=%v", src, lex.Errors(), errs)
	}
	return tree
}

func run(t *testing.T, src string, opts ...Option) (value.Value, error) {
	t.Helper()
	tree := compile(t, src)
	ev := New(scope.New(), opts...)
	return ev.Run(tree)
}

func TestArithmeticAndPrecedence(t *testing.T) {
	v, err := run(t, `1 + 2 * 3 - 4 / 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 5 {
		t.Fatalf("got %#v, want Int(5)", v)
	}
}

func TestWhileLoopAndBreak(t *testing.T) {
	v, err := run(t, `
		let i = 0;
		while true {
			i += 1;
			if i >= 5 { break }
		}
		i
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 5 {
		t.Fatalf("got %#v, want Int(5)", v)
	}
}

func TestForLoopOverArray(t *testing.T) {
	v, err := run(t, `
		let sum = 0;
		for x in [1, 2, 3, 4] {
			sum += x;
		}
		sum
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 10 {
		t.Fatalf("got %#v, want Int(10)", v)
	}
}

func TestInOperator(t *testing.T) {
	v, err := run(t, `"ell" in "hello"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true)", v)
	}

	v, err = run(t, `3 in [1, 2, 3]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true)", v)
	}
}

func TestRangeLiteralAndForLoop(t *testing.T) {
	v, err := run(t, `
		let sum = 0;
		for x in 1..5 {
			sum += x;
		}
		sum
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 10 {
		t.Fatalf("got %#v, want Int(10) (half-open 1..5 excludes 5)", v)
	}

	v, err = run(t, `
		let sum = 0;
		for x in 1..=5 {
			sum += x;
		}
		sum
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 15 {
		t.Fatalf("got %#v, want Int(15) (inclusive 1..=5 includes 5)", v)
	}
}

func TestRangeContainment(t *testing.T) {
	v, err := run(t, `5 in 1..10`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true)", v)
	}

	v, err = run(t, `10 in 1..10`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || bool(b) {
		t.Fatalf("got %#v, want Bool(false) (half-open excludes the end)", v)
	}

	v, err = run(t, `10 in 1..=10`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true) (inclusive includes the end)", v)
	}
}

func TestShortCircuitAndOr(t *testing.T) {
	var rhsEvaluated bool
	sideEffect := func(args []value.Value) (value.Value, error) {
		rhsEvaluated = true
		return value.Bool(true), nil
	}
	glob := module.New()
	glob.RegisterNative("sideEffect", 0, module.Public, nil, module.NewPure(sideEffect))

	ev := New(scope.New(), WithGlobal(glob))
	tree := compile(t, `false && sideEffect()`)
	v, err := ev.Run(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v.(value.Bool); !ok || bool(b) {
		t.Fatalf("got %#v, want Bool(false)", v)
	}
	if rhsEvaluated {
		t.Fatalf("&&'s right operand was evaluated despite a false left operand")
	}

	rhsEvaluated = false
	ev2 := New(scope.New(), WithGlobal(glob))
	tree2 := compile(t, `true || sideEffect()`)
	v2, err := ev2.Run(tree2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v2.(value.Bool); !ok || !bool(b) {
		t.Fatalf("got %#v, want Bool(true)", v2)
	}
	if rhsEvaluated {
		t.Fatalf("||'s right operand was evaluated despite a true left operand")
	}
}

func TestPropertyGetSetOnHostType(t *testing.T) {
	glob := module.New()
	glob.RegisterTypeName("point", "Point")
	glob.RegisterNative("get_x", 1, module.Public, []string{"point"}, module.NewPure(func(args []value.Value) (value.Value, error) {
		nv := args[0].(value.NativeValue)
		return value.Int(nv.Handle().(int)), nil
	}))
	glob.RegisterNative("set_x", 2, module.Public, []string{"point", "any"}, module.NewMethod(func(recv *value.Value, rest []value.Value) (value.Value, error) {
		*recv = value.NewNative("point", int(rest[0].(value.Int)), nil)
		return value.Unit{}, nil
	}))

	sc := scope.New()
	sc.Push("p", value.NewNative("point", 10, func(h any) any { return h }), scope.Mutable)

	ev := New(sc, WithGlobal(glob))
	tree := compile(t, `p.x = p.x + 5; p.x`)
	v, err := ev.Run(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 15 {
		t.Fatalf("got %#v, want Int(15)", v)
	}
}

type fakeResolver struct{ mod *module.Module }

func (r *fakeResolver) Resolve(path string) (*module.Module, error) { return r.mod, nil }

func TestImportNamespacedCall(t *testing.T) {
	sub := module.New()
	sub.RegisterNative("triple", 1, module.Public, []string{value.KindInt.String()}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return args[0].(value.Int) * 3, nil
	}))

	ev := New(scope.New(), WithResolver(&fakeResolver{mod: sub}))
	tree := compile(t, `import "mathx" as mx; mx::triple(4)`)
	v, err := ev.Run(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.(value.Int); !ok || i != 12 {
		t.Fatalf("got %#v, want Int(12)", v)
	}
}

func TestArrayAndStringBoundsErrors(t *testing.T) {
	if _, err := run(t, `let a = [1, 2, 3]; a[10]`); err == nil {
		t.Fatalf("expected an array-bounds error")
	}
	if _, err := run(t, `let s = "abc"; s[10]`); err == nil {
		t.Fatalf("expected a string-bounds error")
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := run(t, `1 / 0`); err == nil {
		t.Fatalf("expected an arithmetic error for division by zero")
	}
}
