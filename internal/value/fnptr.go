package value

import "strings"

// FnPtrValue is a function name plus an optional curried argument list.
// Calling through it prepends the curried values to the supplied
// arguments.
type FnPtrValue struct {
	name  ImmutableString
	curry []Value
}

// NewFnPtr builds a function pointer with no curried arguments.
func NewFnPtr(name string) FnPtrValue {
	return FnPtrValue{name: NewImmutableString(name)}
}

func (FnPtrValue) Kind() Kind { return KindFnPtr }

func (v FnPtrValue) Clone() Value {
	curry := make([]Value, len(v.curry))
	for i, c := range v.curry {
		curry[i] = c.Clone()
	}
	return FnPtrValue{name: v.name.Share(), curry: curry}
}

func (v FnPtrValue) String() string {
	var b strings.Builder
	b.WriteString("Fn(")
	b.WriteString(v.name.Str())
	b.WriteByte(')')
	return b.String()
}

// Name returns the callee's name.
func (v FnPtrValue) Name() string { return v.name.Str() }

// Curry returns the curried argument list.
func (v FnPtrValue) Curry() []Value { return v.curry }

// WithCurry returns a new FnPtrValue with an additional curried argument
// appended. Used when an FnPointerExpr's Curry slots (a closure's
// captured variables) are evaluated.
func (v FnPtrValue) WithCurry(arg Value) FnPtrValue {
	curry := make([]Value, len(v.curry), len(v.curry)+1)
	copy(curry, v.curry)
	curry = append(curry, arg)
	return FnPtrValue{name: v.name, curry: curry}
}

// IsAnonymous reports whether this function pointer names a closure
// synthesized by the engine rather than a user-declared function.
func (v FnPtrValue) IsAnonymous() bool {
	return strings.HasPrefix(v.name.Str(), AnonymousFnPrefix)
}

// AnonymousFnPrefix is the fixed prefix the engine uses to name
// anonymous closures.
const AnonymousFnPrefix = "__anon_"
