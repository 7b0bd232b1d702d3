package value

import (
	"testing"
	"unsafe"
)

func TestCloneIsIdempotentForScalars(t *testing.T) {
	tests := []Value{Unit{}, Bool(true), Int(42), Float(3.5), Char('x')}
	for _, v := range tests {
		clone := v.Clone()
		if !Equal(v, clone) {
			t.Errorf("Clone() of %v produced unequal value %v", v, clone)
		}
	}
}

func TestStrValueCloneSharesContent(t *testing.T) {
	s := NewStr("hello")
	clone := s.Clone().(StrValue)
	if clone.String() != "hello" {
		t.Errorf("expected cloned string to read 'hello', got %q", clone.String())
	}
	if !Equal(s, clone) {
		t.Errorf("expected original and clone to be Equal")
	}
}

func TestArrayCloneIsSharedUntilMutated(t *testing.T) {
	arr := NewArray([]Value{Int(1), Int(2), Int(3)})
	clone := arr.Clone().(ArrayValue)

	if clone.Len() != 3 {
		t.Fatalf("expected cloned array len 3, got %d", clone.Len())
	}

	// Mutating the clone must not affect the original (copy-on-write).
	clone.Set(0, Int(99))
	first, _ := arr.At(0)
	if first.(Int) != 1 {
		t.Errorf("expected original array untouched by clone mutation, got %v", first)
	}
	cloneFirst, _ := clone.At(0)
	if cloneFirst.(Int) != 99 {
		t.Errorf("expected clone mutation to take effect, got %v", cloneFirst)
	}
}

func TestMapCloneCopyOnWrite(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	clone := m.Clone().(MapValue)
	clone.Set("a", Int(2))

	orig, _ := m.Get("a")
	cloned, _ := clone.Get("a")
	if orig.(Int) != 1 {
		t.Errorf("expected original map untouched, got %v", orig)
	}
	if cloned.(Int) != 2 {
		t.Errorf("expected clone updated, got %v", cloned)
	}
}

func TestShareIsIdempotent(t *testing.T) {
	shared := Share(Int(5))
	reshared := Share(shared)
	if shared.Cell() != reshared.Cell() {
		t.Errorf("expected Share(Share(x)) to reuse the same cell")
	}
}

func TestSharedWriteVisibleThroughEveryHolder(t *testing.T) {
	shared := Share(Int(1))
	holder2 := shared.Clone().(SharedValue)

	if err := shared.Write(Int(2)); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	got, err := holder2.Read()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if got.(Int) != 2 {
		t.Errorf("expected write through shared.Write to be visible via holder2, got %v", got)
	}
}

func TestFnPtrCurry(t *testing.T) {
	fp := NewFnPtr("add").WithCurry(Int(1)).WithCurry(Int(2))
	if len(fp.Curry()) != 2 {
		t.Fatalf("expected 2 curried args, got %d", len(fp.Curry()))
	}
	if fp.Name() != "add" {
		t.Errorf("expected name 'add', got %q", fp.Name())
	}
}

func TestAnonymousFnPrefix(t *testing.T) {
	fp := NewFnPtr(AnonymousFnPrefix + "0")
	if !fp.IsAnonymous() {
		t.Errorf("expected %q to be recognized as anonymous", fp.Name())
	}
	if NewFnPtr("foo").IsAnonymous() {
		t.Errorf("expected 'foo' to not be anonymous")
	}
}

func TestCompareNumeric(t *testing.T) {
	cases := []struct {
		a, b Value
		want int
	}{
		{Int(1), Int(2), -1},
		{Int(2), Int(2), 0},
		{Float(3.0), Int(2), 1},
		{NewStr("a"), NewStr("b"), -1},
	}
	for _, c := range cases {
		got, err := Compare(c.a, c.b)
		if err != nil {
			t.Fatalf("unexpected error comparing %v, %v: %v", c.a, c.b, err)
		}
		if got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	if v, ok := Truthy(Bool(true)); !ok || !v {
		t.Errorf("expected Bool(true) to be truthy")
	}
	if _, ok := Truthy(Int(1)); ok {
		t.Errorf("expected Int to not participate in truthiness")
	}
}

// A Value handle is two machine words: the interface header itself.
func TestValueHandleStaysTwoWords(t *testing.T) {
	var v Value
	if size := unsafe.Sizeof(v); size > 16 {
		t.Errorf("Value handle is %d bytes, want at most 16", size)
	}
}
