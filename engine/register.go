package engine

import (
	"fmt"
	"reflect"

	"embedscript/internal/ast"
	"embedscript/internal/module"
	"embedscript/internal/parser"
	"embedscript/internal/value"
)

// RegisterFn registers a native function under name, dispatched by the
// argument types its Go signature declares. A trailing
// `error` return aborts the call with that error; a single
// non-error return becomes the call's Value via goToValue.
func (e *Engine) RegisterFn(name string, fn any) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("engine: RegisterFn(%q): not a function: %T", name, fn)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("engine: RegisterFn(%q): variadic functions are not supported", name)
	}

	numOut := ft.NumOut()
	hasErr := numOut > 0 && ft.Out(numOut-1) == reflect.TypeOf((*error)(nil)).Elem()
	if numOut > 2 || (numOut == 2 && !hasErr) {
		return fmt.Errorf("engine: RegisterFn(%q): at most one value plus a trailing error may be returned", name)
	}

	argTypeIDs := make([]string, ft.NumIn())
	for i := range argTypeIDs {
		argTypeIDs[i] = goKindTypeID(ft.In(i))
	}

	pureFn := func(args []value.Value) (value.Value, error) {
		in := make([]reflect.Value, ft.NumIn())
		for i, arg := range args {
			rv, err := valueToGo(arg, ft.In(i))
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			in[i] = rv
		}
		out := fv.Call(in)
		if hasErr {
			if errVal := out[numOut-1]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
			out = out[:numOut-1]
		}
		if len(out) == 0 {
			return value.Unit{}, nil
		}
		return goToValue(out[0])
	}

	e.global.RegisterNative(name, ft.NumIn(), module.Public, argTypeIDs, module.NewPure(pureFn))
	return nil
}

// goKindTypeID maps a Go parameter type to the native-hash argument type
// identity it accepts: the
// built-in Kind name for primitives/containers, and the native Kind name
// for every other Go type (structs, pointers, interfaces, ...); a type
// identity given by RegisterType is not consulted here.
func goKindTypeID(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.KindInt.String()
	case reflect.Float32, reflect.Float64:
		return value.KindFloat.String()
	case reflect.String:
		return value.KindStr.String()
	case reflect.Bool:
		return value.KindBool.String()
	case reflect.Slice, reflect.Array:
		return value.KindArray.String()
	case reflect.Map:
		return value.KindMap.String()
	default:
		return value.KindNative.String()
	}
}

// RegisterType records typeID's host-facing pretty name, used by error
// messages and print/debug output for a NativeValue the host boxes with
// that typeID.
func (e *Engine) RegisterType(typeID string) {
	e.global.RegisterTypeName(typeID, typeID)
}

// RegisterTypeWithName records typeID's pretty name as prettyName rather
// than typeID itself.
func (e *Engine) RegisterTypeWithName(typeID, prettyName string) {
	e.global.RegisterTypeName(typeID, prettyName)
}

// RegisterGet registers a `.prop` getter for values whose type identity
// is typeID: a native function named "get_"+prop, arity 1.
func (e *Engine) RegisterGet(typeID, prop string, fn func(recv value.Value) (value.Value, error)) {
	e.global.RegisterNative("get_"+prop, 1, module.Public, []string{typeID}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return fn(args[0])
	}))
}

// RegisterSet registers a `.prop = value` setter for typeID, as a Method
// callable so a mutating setter's receiver writes back to the call site.
func (e *Engine) RegisterSet(typeID, prop string, fn func(recv *value.Value, newVal value.Value) error) {
	e.global.RegisterNative("set_"+prop, 2, module.Public, []string{typeID, "any"}, module.NewMethod(func(recv *value.Value, rest []value.Value) (value.Value, error) {
		if len(rest) != 1 {
			return nil, module.ErrWrongArgCount
		}
		if err := fn(recv, rest[0]); err != nil {
			return nil, err
		}
		return value.Unit{}, nil
	}))
}

// RegisterGetSet is a convenience wrapper registering both halves of a
// read/write property in one call.
func (e *Engine) RegisterGetSet(typeID, prop string, get func(value.Value) (value.Value, error), set func(recv *value.Value, newVal value.Value) error) {
	e.RegisterGet(typeID, prop, get)
	e.RegisterSet(typeID, prop, set)
}

// RegisterIndexerGet registers a `recv[index]` getter for typeID, named
// "get$index" by convention; a second
// native-hash entry alongside any built-in `[]` support, keyed by
// (typeID, index Kind).
func (e *Engine) RegisterIndexerGet(typeID string, indexKind value.Kind, fn func(recv, index value.Value) (value.Value, error)) {
	e.global.RegisterNative("get$index", 2, module.Public, []string{typeID, indexKind.String()}, module.NewPure(func(args []value.Value) (value.Value, error) {
		return fn(args[0], args[1])
	}))
}

// RegisterIndexerSet registers a `recv[index] = value` setter for typeID.
func (e *Engine) RegisterIndexerSet(typeID string, indexKind value.Kind, fn func(recv *value.Value, index, newVal value.Value) error) {
	e.global.RegisterNative("set$index", 3, module.Public, []string{typeID, indexKind.String(), "any"}, module.NewMethod(func(recv *value.Value, rest []value.Value) (value.Value, error) {
		if len(rest) != 2 {
			return nil, module.ErrWrongArgCount
		}
		return value.Unit{}, fn(recv, rest[0], rest[1])
	}))
}

// RegisterIndexerGetSet registers both halves of an indexer in one call.
func (e *Engine) RegisterIndexerGetSet(typeID string, indexKind value.Kind,
	get func(recv, index value.Value) (value.Value, error),
	set func(recv *value.Value, index, newVal value.Value) error,
) {
	e.RegisterIndexerGet(typeID, indexKind, get)
	e.RegisterIndexerSet(typeID, indexKind, set)
}

// RegisterIterator wires the for-loop iterator a host type needs to be
// usable as `for x in hostValue { … }`.
func (e *Engine) RegisterIterator(typeID string, fn module.IteratorFn) {
	e.global.RegisterIterator(typeID, fn)
}

// RegisterCustomSyntax registers a fixed-slot custom syntax extension;
// must be called before the first Compile/CompileFragments call that
// should recognize it. eval receives the unevaluated slot expression
// trees plus an ast.CustomContext so it can evaluate ($expr$/$block$)
// slots as many times as it needs and bind new scope variables of its
// own, the shape a `while`-style custom loop requires.
func (e *Engine) RegisterCustomSyntax(keyword string, slots []parser.SlotKind, eval func(ctx ast.CustomContext, slots []ast.Expr) (value.Value, error)) {
	e.customSyntax = append(e.customSyntax, &parser.CustomSyntax{Keyword: keyword, Fixed: slots, Eval: eval})
}

// RegisterCustomSyntaxRaw registers the dynamic-callback form of custom
// syntax.
func (e *Engine) RegisterCustomSyntaxRaw(keyword string, next parser.NextSlotFn, eval func(ctx ast.CustomContext, slots []ast.Expr) (value.Value, error)) {
	e.customSyntax = append(e.customSyntax, &parser.CustomSyntax{Keyword: keyword, Dynamic: next, Eval: eval})
}

// RegisterModule attaches a fully-built sub-module under name, reachable
// from script code as `name::fn(...)`.
func (e *Engine) RegisterModule(name string, sub *module.Module) {
	e.global.RegisterSubModule(name, sub)
}
