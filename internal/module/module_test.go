package module

import (
	"testing"

	"embedscript/internal/value"
)

func TestRegisterAndLookupNative(t *testing.T) {
	m := New()
	m.RegisterNative("add", 2, Public, []string{"int", "int"}, NewPure(func(args []value.Value) (value.Value, error) {
		return args[0].(value.Int) + args[1].(value.Int), nil
	}))

	fn, ok := m.LookupNative("add", []string{"int", "int"})
	if !ok {
		t.Fatalf("expected to find registered native function")
	}
	result, err := fn.Invoke([]value.Value{value.Int(1), value.Int(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(value.Int) != 3 {
		t.Errorf("expected 3, got %v", result)
	}
}

func TestScriptHashOverride(t *testing.T) {
	m := New()
	m.RegisterScript("foo", 1, Public, &ScriptDef{Params: []string{"x"}, Body: "first"})
	m.RegisterScript("foo", 1, Public, &ScriptDef{Params: []string{"n"}, Body: "second"})

	fn, _, ok := m.LookupScript("foo", 1)
	if !ok {
		t.Fatalf("expected script function")
	}
	if fn.Script().Body.(string) != "second" {
		t.Errorf("expected second definition to override first, got %v", fn.Script().Body)
	}
}

func TestMethodCallableMutatesReceiver(t *testing.T) {
	m := New()
	m.RegisterNative("push", 2, Public, []string{"array", "int"}, NewMethod(func(recv *value.Value, rest []value.Value) (value.Value, error) {
		arr := (*recv).(value.ArrayValue)
		arr.Push(rest[0])
		*recv = arr
		return value.Unit{}, nil
	}))

	fn, _ := m.LookupNative("push", []string{"array", "int"})
	arr := value.NewArray([]value.Value{value.Int(1)})
	args := []value.Value{arr, value.Int(2)}
	if _, err := fn.Invoke(args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mutated := args[0].(value.ArrayValue)
	if mutated.Len() != 2 {
		t.Errorf("expected receiver mutation visible to caller, got len %d", mutated.Len())
	}
}

func TestMergeCollisionsOverwrite(t *testing.T) {
	dst := New()
	dst.RegisterScript("foo", 0, Public, &ScriptDef{Body: "dst"})
	src := New()
	src.RegisterScript("foo", 0, Public, &ScriptDef{Body: "src"})

	Merge(dst, src, nil)

	fn, _, _ := dst.LookupScript("foo", 0)
	if fn.Script().Body.(string) != "src" {
		t.Errorf("expected src to overwrite dst on merge, got %v", fn.Script().Body)
	}
}

func TestMergeFilterPublicOnly(t *testing.T) {
	dst := New()
	src := New()
	src.RegisterScript("pub", 0, Public, &ScriptDef{})
	src.RegisterScript("priv", 0, Private, &ScriptDef{})

	Merge(dst, src, PublicOnly)

	if _, _, ok := dst.LookupScript("pub", 0); !ok {
		t.Errorf("expected public function to survive merge")
	}
	if _, _, ok := dst.LookupScript("priv", 0); ok {
		t.Errorf("expected private function to be filtered out")
	}
}

func TestByNamePattern(t *testing.T) {
	filter := ByNamePattern("get_*")
	if !filter(Public, "get_x", 0) {
		t.Errorf("expected get_x to match get_*")
	}
	if filter(Public, "set_x", 0) {
		t.Errorf("expected set_x to not match get_*")
	}
}

func TestSymbolsNaturalSort(t *testing.T) {
	m := New()
	m.RegisterScript("fn10", 0, Public, &ScriptDef{})
	m.RegisterScript("fn2", 0, Public, &ScriptDef{})
	symbols := m.Symbols()
	idx2, idx10 := -1, -1
	for i, s := range symbols {
		if s == "fn2" {
			idx2 = i
		}
		if s == "fn10" {
			idx10 = i
		}
	}
	if idx2 == -1 || idx10 == -1 {
		t.Fatalf("expected both symbols present, got %v", symbols)
	}
	if idx2 > idx10 {
		t.Errorf("expected natural sort to place fn2 before fn10, got %v", symbols)
	}
}
