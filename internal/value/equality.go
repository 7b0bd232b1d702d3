package value

// Equal implements the engine's default `==` for variants that don't
// dispatch to a registered operator function. Mismatched kinds are
// unequal, except that Int and Float compare by numeric value and a
// Shared value compares by its current contents.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return Float(av) == bv
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Float:
			return av == bv
		case Int:
			return av == Float(bv)
		}
		return false
	case Char:
		bv, ok := b.(Char)
		return ok && av == bv
	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av.s.Equal(bv.s)
	case ArrayValue:
		bv, ok := b.(ArrayValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, item := range av.Items() {
			if !Equal(item, bv.Items()[i]) {
				return false
			}
		}
		return true
	case MapValue:
		bv, ok := b.(MapValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			left, _ := av.Get(k)
			right, ok := bv.Get(k)
			if !ok || !Equal(left, right) {
				return false
			}
		}
		return true
	case FnPtrValue:
		bv, ok := b.(FnPtrValue)
		return ok && av.Name() == bv.Name() && len(av.Curry()) == len(bv.Curry())
	case TimeStampValue:
		bv, ok := b.(TimeStampValue)
		return ok && av.t.Equal(bv.t)
	case SharedValue:
		left, err := av.Read()
		if err != nil {
			return false
		}
		if bv, ok := b.(SharedValue); ok {
			right, err := bv.Read()
			return err == nil && Equal(left, right)
		}
		return Equal(left, b)
	case NativeValue:
		bv, ok := b.(NativeValue)
		return ok && av.typeName == bv.typeName && av.handle == bv.handle
	default:
		return false
	}
}

// Truthy reports whether val counts as true for `if`/`while`/`&&`/`||`.
// Only Bool values are truthy; every other kind is a type error the
// evaluator surfaces as ErrorMismatchDataType, except Unit which is
// conventionally falsey (used by uninitialized-variant checks).
func Truthy(val Value) (bool, bool) {
	switch v := val.(type) {
	case Bool:
		return bool(v), true
	case Unit:
		return false, true
	default:
		return false, false
	}
}

// Unwrap dereferences a Shared value down to its concrete contents,
// snapshotting through the borrow discipline. Non-Shared values are
// returned unchanged. Used wherever the evaluator needs the "real" value
// regardless of whether the variable happens to be captured.
func Unwrap(val Value) (Value, error) {
	if s, ok := val.(SharedValue); ok {
		return s.Read()
	}
	return val, nil
}
