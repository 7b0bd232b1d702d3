// Package module implements the engine's function-table abstraction: a
// named table of native and scripted callables, sub-modules, iterable
// type registrations and a type-name map.
package module

import "embedscript/internal/value"

// AccessMode controls whether a function is visible outside the
// compilation unit that declared it.
type AccessMode uint8

const (
	Public AccessMode = iota
	Private
)

// PureFn takes all arguments by value.
type PureFn func(args []value.Value) (value.Value, error)

// MethodFn receives its first argument by mutable reference: writes
// through recv are visible to the caller after the call returns.
type MethodFn func(recv *value.Value, rest []value.Value) (value.Value, error)

// Iterator produces a lazy, finite sequence of Values for a for-loop.
type Iterator interface {
	// Next returns the next element and true, or an undefined Value and
	// false once exhausted.
	Next() (value.Value, bool)
}

// IteratorFn builds an Iterator over an iterable Value.
type IteratorFn func(v value.Value) (Iterator, error)

// PluginFn is a self-describing callable: it reports its own name and
// arity, letting the module register it without a separate name/arity
// pair.
type PluginFn interface {
	Name() string
	Arity() int
	Call(args []value.Value) (value.Value, error)
}

// ScriptDef is a scripted function: its AST body, parameter names, access
// mode, and any captured free variables recorded by the closure-capture
// AST pass.
//
// Body is `any` rather than *ast.FunctionDef to avoid an import cycle
// (ast.AST owns a *Module, so Module cannot import ast back); the
// evaluator, which imports both packages, type-asserts it.
type ScriptDef struct {
	Body     any
	Params   []string
	Access   AccessMode
	Captures []string
}

// CallableKind tags which of the five Callable variants a Callable
// holds.
type CallableKind uint8

const (
	KindPure CallableKind = iota
	KindMethod
	KindIterator
	KindPlugin
	KindScript
)

// Callable is one of Pure, Method, Iterator, Plugin or Script.
type Callable struct {
	kind     CallableKind
	pureFn   PureFn
	methodFn MethodFn
	iterFn   IteratorFn
	pluginFn PluginFn
	script   *ScriptDef
}

func NewPure(fn PureFn) Callable         { return Callable{kind: KindPure, pureFn: fn} }
func NewMethod(fn MethodFn) Callable     { return Callable{kind: KindMethod, methodFn: fn} }
func NewIterator(fn IteratorFn) Callable { return Callable{kind: KindIterator, iterFn: fn} }
func NewPlugin(fn PluginFn) Callable     { return Callable{kind: KindPlugin, pluginFn: fn} }
func NewScript(def *ScriptDef) Callable  { return Callable{kind: KindScript, script: def} }

func (c Callable) Kind() CallableKind     { return c.kind }
func (c Callable) Pure() PureFn           { return c.pureFn }
func (c Callable) Method() MethodFn       { return c.methodFn }
func (c Callable) IteratorFn() IteratorFn { return c.iterFn }
func (c Callable) Plugin() PluginFn       { return c.pluginFn }
func (c Callable) Script() *ScriptDef     { return c.script }

// Invoke calls a Pure, Method or Plugin callable uniformly, used by call
// sites that don't care about the mutable-receiver distinction (e.g.
// operator dispatch, which is always Pure or Method with two args).
func (c Callable) Invoke(args []value.Value) (value.Value, error) {
	switch c.kind {
	case KindPure:
		return c.pureFn(args)
	case KindMethod:
		if len(args) == 0 {
			return nil, ErrWrongArgCount
		}
		recv := args[0]
		result, err := c.methodFn(&recv, args[1:])
		args[0] = recv
		return result, err
	case KindPlugin:
		return c.pluginFn.Call(args)
	default:
		return nil, ErrNotInvocable
	}
}
