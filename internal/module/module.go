package module

import (
	"sort"
	"sync"

	"github.com/maruel/natural"
)

// entry pairs a registered Callable with the metadata dispatch needs to
// check visibility and report good error messages.
type entry struct {
	Name   string
	Arity  int
	Access AccessMode
	Fn     Callable
}

// Module is a named table of functions (native + scripted), sub-modules,
// iterable-type registrations, and host type pretty-names. Native and
// scripted functions live in separate hash families: native entries are
// keyed by argument type identities for overload dispatch, scripted
// entries by (name, arity) only.
type Module struct {
	mu sync.RWMutex

	native map[uint64]*entry // keyed by NativeHash(name, argTypeIDs)
	script map[uint64]*entry // keyed by ScriptHash(name, arity)

	// nameIndex supports by-name introspection (Symbols, FunctionsByName)
	// without scanning every hash bucket.
	nameIndex map[string][]*entry

	subModules map[string]*Module
	iterables  map[string]IteratorFn // keyed by a host type identifier
	typeNames  map[string]string     // host type identifier -> pretty name
}

// New creates an empty Module.
func New() *Module {
	return &Module{
		native:     map[uint64]*entry{},
		script:     map[uint64]*entry{},
		nameIndex:  map[string][]*entry{},
		subModules: map[string]*Module{},
		iterables:  map[string]IteratorFn{},
		typeNames:  map[string]string{},
	}
}

// RegisterNative adds a Pure/Method/Iterator/Plugin callable, keyed by
// its native hash (name, arity, argument type identities).
func (m *Module) RegisterNative(name string, arity int, access AccessMode, argTypeIDs []string, fn Callable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entry{Name: name, Arity: arity, Access: access, Fn: fn}
	m.native[NativeHash(name, argTypeIDs)] = e
	m.nameIndex[name] = append(m.nameIndex[name], e)
}

// RegisterScript adds a scripted function, keyed only by (name, arity).
// Re-registering the same (name, arity) replaces the previous
// definition.
func (m *Module) RegisterScript(name string, arity int, access AccessMode, def *ScriptDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entry{Name: name, Arity: arity, Access: access, Fn: NewScript(def)}
	// A later definition with the same (name, arity) overrides an earlier
	// one.
	m.script[ScriptHash(name, arity)] = e
	m.nameIndex[name] = append(m.nameIndex[name], e)
}

// LookupScript resolves a scripted function by (name, arity).
func (m *Module) LookupScript(name string, arity int) (Callable, AccessMode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.script[ScriptHash(name, arity)]
	if !ok {
		return Callable{}, Public, false
	}
	return e.Fn, e.Access, true
}

// LookupNative resolves a native function by (name, arity, argTypeIDs).
func (m *Module) LookupNative(name string, argTypeIDs []string) (Callable, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.native[NativeHash(name, argTypeIDs)]
	if !ok {
		return Callable{}, false
	}
	return e.Fn, true
}

// RegisterSubModule attaches a named child module.
func (m *Module) RegisterSubModule(name string, sub *Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subModules[name] = sub
}

// SubModule retrieves a previously registered child module.
func (m *Module) SubModule(name string) (*Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subModules[name]
	return sub, ok
}

// RegisterIterator registers the IteratorFn for a host type identifier,
// consulted by the for-loop's iterable-type lookup.
func (m *Module) RegisterIterator(typeID string, fn IteratorFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterables[typeID] = fn
}

// IteratorFor returns the IteratorFn registered for a type identifier.
func (m *Module) IteratorFor(typeID string) (IteratorFn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.iterables[typeID]
	return fn, ok
}

// RegisterTypeName records a pretty name for a host-registered opaque
// type identifier (used by error messages and debug/print output).
func (m *Module) RegisterTypeName(typeID, pretty string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeNames[typeID] = pretty
}

// TypeName looks up the pretty name for a type identifier, falling back
// to the identifier itself.
func (m *Module) TypeName(typeID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pretty, ok := m.typeNames[typeID]; ok {
		return pretty
	}
	return typeID
}

// FunctionsByName returns every registered overload/arity of name,
// across both the native and script hash families.
func (m *Module) FunctionsByName(name string) []Callable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.nameIndex[name]
	out := make([]Callable, len(entries))
	for i, e := range entries {
		out[i] = e.Fn
	}
	return out
}

// Symbols returns every registered function and sub-module name,
// naturally sorted (so "fn2" sorts before "fn10") for deterministic,
// human-friendly introspection output, used by the CLI's `symbols`
// command.
func (m *Module) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var names []string
	for name := range m.nameIndex {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range m.subModules {
		if !seen[name] {
			seen[name] = true
			names = append(names, name+"::")
		}
	}
	sort.Sort(natural.StringSlice(names))
	return names
}
