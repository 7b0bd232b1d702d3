package scope

import (
	"testing"

	"embedscript/internal/value"
)

func TestNewScopeEmpty(t *testing.T) {
	s := New()
	if s.Len() != 0 {
		t.Errorf("new scope should have zero frames, got %d", s.Len())
	}
	if _, ok := s.Get("x"); ok {
		t.Errorf("expected undefined variable to return false")
	}
}

func TestPushAndGetInnermostShadows(t *testing.T) {
	s := New()
	s.Push("x", value.Int(1), Mutable)
	s.Push("x", value.Int(2), Mutable)

	val, ok := s.Get("x")
	if !ok {
		t.Fatalf("expected x to be found")
	}
	if val.(value.Int) != 2 {
		t.Errorf("expected innermost binding to shadow outer, got %v", val)
	}
}

func TestSetUndefinedReturnsError(t *testing.T) {
	s := New()
	if err := s.Set("missing", value.Int(1)); err == nil {
		t.Errorf("expected error setting an undefined variable")
	}
}

func TestSetConstantRejected(t *testing.T) {
	s := New()
	s.Push("pi", value.Float(3.14), Constant)
	err := s.Set("pi", value.Float(3.15))
	if err == nil {
		t.Fatalf("expected assignment to a constant frame to fail")
	}
	if _, ok := err.(*ErrConstantAssignment); !ok {
		t.Errorf("expected ErrConstantAssignment, got %T", err)
	}
}

func TestTruncateRestoresDepth(t *testing.T) {
	s := New()
	s.Push("outer", value.Int(1), Mutable)
	mark := s.Len()
	s.Push("inner", value.Int(2), Mutable)

	if _, ok := s.Get("inner"); !ok {
		t.Fatalf("expected inner binding to be visible before truncate")
	}
	s.Truncate(mark)
	if _, ok := s.Get("inner"); ok {
		t.Errorf("expected inner binding to be gone after truncate")
	}
	if _, ok := s.Get("outer"); !ok {
		t.Errorf("expected outer binding to survive truncate")
	}
}

func TestGetAtResolvesByDepthFromTop(t *testing.T) {
	s := New()
	s.Push("a", value.Int(1), Mutable)
	s.Push("b", value.Int(2), Mutable)
	s.Push("c", value.Int(3), Mutable)

	// depth 0 is the top-most frame ("c"), depth 2 is the bottom ("a").
	val, ok := s.GetAt(0)
	if !ok || val.(value.Int) != 3 {
		t.Errorf("expected depth 0 to resolve to top frame 'c', got %v, %v", val, ok)
	}
	val, ok = s.GetAt(2)
	if !ok || val.(value.Int) != 1 {
		t.Errorf("expected depth 2 to resolve to bottom frame 'a', got %v, %v", val, ok)
	}
}

func TestGetAtOutOfRangeFalse(t *testing.T) {
	s := New()
	s.Push("a", value.Int(1), Mutable)
	if _, ok := s.GetAt(5); ok {
		t.Errorf("expected out-of-range depth to return false")
	}
}

func TestSetAtRejectsConstant(t *testing.T) {
	s := New()
	s.Push("pi", value.Float(3.14), Constant)
	err := s.SetAt(0, "pi", value.Float(9))
	if _, ok := err.(*ErrConstantAssignment); !ok {
		t.Errorf("expected ErrConstantAssignment, got %T (%v)", err, err)
	}
}

func TestKindOf(t *testing.T) {
	s := New()
	s.Push("x", value.Int(1), Mutable)
	s.Push("y", value.Int(2), Constant)

	if kind, ok := s.KindOf("x"); !ok || kind != Mutable {
		t.Errorf("expected x to be Mutable, got %v, %v", kind, ok)
	}
	if kind, ok := s.KindOf("y"); !ok || kind != Constant {
		t.Errorf("expected y to be Constant, got %v, %v", kind, ok)
	}
	if _, ok := s.KindOf("z"); ok {
		t.Errorf("expected KindOf on undefined name to return false")
	}
}
