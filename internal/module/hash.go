package module

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// ScriptHash computes the hash family used to key scripted functions:
// (name, arity) only.
func ScriptHash(name string, arity int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(arity)))
	return h.Sum64()
}

// NativeHash computes the hash family used to key native functions,
// additionally covering argument type identities so overloaded native
// functions with the same name/arity but different signatures don't
// collide.
func NativeHash(name string, argTypeIDs []string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(len(argTypeIDs))))
	for _, id := range argTypeIDs {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(id))
	}
	return h.Sum64()
}

// CanonicalKey renders a human-readable key for debugging/introspection,
// e.g. "add" (no argument types) or "add(int,int)".
func CanonicalKey(name string, argTypeIDs []string) string {
	if len(argTypeIDs) == 0 {
		return name
	}
	return name + "(" + strings.Join(argTypeIDs, ",") + ")"
}
