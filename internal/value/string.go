package value

import (
	"hash/fnv"
	"sync/atomic"
)

// ImmutableString is a refcounted, immutable UTF-8 string used as a map
// key and function-name carrier. Equality and hashing are by content;
// cloning only bumps the refcount. Identifiers are case-sensitive, so
// no case folding happens anywhere.
type ImmutableString struct {
	data *stringData
}

type stringData struct {
	s    string
	refs int32
}

// NewImmutableString interns s into a fresh refcounted handle.
func NewImmutableString(s string) ImmutableString {
	return ImmutableString{data: &stringData{s: s, refs: 1}}
}

// Share increments the refcount and returns a handle sharing the same data.
func (s ImmutableString) Share() ImmutableString {
	if s.data != nil {
		atomic.AddInt32(&s.data.refs, 1)
	}
	return s
}

// Str returns the underlying Go string.
func (s ImmutableString) Str() string {
	if s.data == nil {
		return ""
	}
	return s.data.s
}

// Len reports the byte length of the string.
func (s ImmutableString) Len() int { return len(s.Str()) }

// Equal compares two immutable strings by content.
func (s ImmutableString) Equal(other ImmutableString) bool {
	return s.Str() == other.Str()
}

// Hash returns a content hash suitable for use as a map/function key.
func (s ImmutableString) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s.Str()))
	return h.Sum64()
}

// StrValue is the Value wrapper around an ImmutableString.
type StrValue struct {
	s ImmutableString
}

// NewStr builds a StrValue from a raw Go string.
func NewStr(s string) StrValue {
	return StrValue{s: NewImmutableString(s)}
}

// NewStrFromImmutable wraps an already-interned ImmutableString.
func NewStrFromImmutable(s ImmutableString) StrValue {
	return StrValue{s: s}
}

func (StrValue) Kind() Kind { return KindStr }

func (v StrValue) Clone() Value {
	return StrValue{s: v.s.Share()}
}

func (v StrValue) String() string { return v.s.Str() }

// Immutable exposes the underlying interned string (e.g. for use as a map key).
func (v StrValue) Immutable() ImmutableString { return v.s }
