package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// lvalue is an addressable evaluation of an Expr: a get/set pair used
// uniformly for plain assignment, compound assignment, property-chain
// walks, indexer get/set, and writing back a mutated receiver after a
// Method call. set is nil for
// expressions that are not assignable (e.g. a literal, or the result of
// a method call used mid-chain).
type lvalue struct {
	get func() (value.Value, error)
	set func(value.Value) error
}

// scopeErr converts a scope package error into the engine's tagged
// EvalError, attaching pos since scope.Scope itself carries no position.
func scopeErr(err error, pos lexer.Position, name string) error {
	switch err.(type) {
	case *scope.ErrConstantAssignment:
		return errors.AssignmentToConstant(pos, name)
	case *scope.ErrUndefined:
		return errors.VariableNotFound(pos, name)
	default:
		return err
	}
}

// evalLValue builds an addressable lvalue for expr. Every addressable
// Expr variant (Variable, Index, Dot, Paren) is handled here so
// assignment, compound-assignment and method-receiver write-back share
// one code path; any other Expr gets a get-only lvalue computed via the
// ordinary expression evaluator.
func (e *Evaluator) evalLValue(expr ast.Expr) (*lvalue, error) {
	switch v := expr.(type) {
	case *ast.ParenExpr:
		return e.evalLValue(v.Inner)

	case *ast.VariableExpr:
		return e.variableLValue(v)

	case *ast.IndexExpr:
		return e.indexLValue(v)

	case *ast.DotExpr:
		return e.dotLValue(v)

	default:
		val, err := e.evalExpr(expr)
		if err != nil {
			return nil, err
		}
		return &lvalue{get: func() (value.Value, error) { return val, nil }}, nil
	}
}

// rawVariable returns a variable's binding without unwrapping Shared,
// so callers can tell whether a write should go through a cell.
func (e *Evaluator) rawVariable(v *ast.VariableExpr) (value.Value, bool) {
	if v.Index >= 0 {
		if val, ok := e.Scope.GetAt(v.Index); ok {
			return val, true
		}
	}
	return e.Scope.Get(v.Ident)
}

// variableLValue builds the lvalue for a plain or namespaced variable
// reference. A namespaced reference (`ns::NAME`) resolves to a
// zero-argument function call and is get-only, since Module has no
// separate constant-value storage.
func (e *Evaluator) variableLValue(v *ast.VariableExpr) (*lvalue, error) {
	if len(v.Namespace) > 0 {
		val, err := e.evalNamespacedVariable(v)
		if err != nil {
			return nil, err
		}
		return &lvalue{get: func() (value.Value, error) { return val, nil }}, nil
	}

	lv := &lvalue{}
	lv.get = func() (value.Value, error) {
		if raw, ok := e.rawVariable(v); ok {
			return value.Unwrap(raw)
		}
		if e.VarResolver != nil {
			if val, ok := e.VarResolver(v.Ident); ok {
				return val, nil
			}
		}
		return nil, errors.VariableNotFound(v.Position, v.Ident)
	}
	lv.set = func(newVal value.Value) error {
		if raw, ok := e.rawVariable(v); ok {
			if shared, isShared := raw.(value.SharedValue); isShared {
				if err := shared.Write(newVal); err != nil {
					return errors.DataRace(v.Position, v.Ident)
				}
				return nil
			}
		}
		var err error
		if v.Index >= 0 {
			err = e.Scope.SetAt(v.Index, v.Ident, newVal)
		} else {
			err = e.Scope.Set(v.Ident, newVal)
		}
		if err != nil {
			return scopeErr(err, v.Position, v.Ident)
		}
		return nil
	}
	return lv, nil
}

// evalNamespacedVariable resolves `ns::ns2::name` by walking the
// sub-module chain rooted at the named import/global module, then
// invoking name as a zero-argument function.
func (e *Evaluator) evalNamespacedVariable(v *ast.VariableExpr) (value.Value, error) {
	mods, err := e.resolveModules(v.Namespace, v.Position)
	if err != nil {
		return nil, err
	}
	mod := mods[0]
	if fn, acc, ok := mod.LookupScript(v.Ident, 0); ok && (acc == module.Public || mod == e.Lib) {
		return e.invoke(fn, nil, nil, v.Ident, v.Position)
	}
	if fn, ok := mod.LookupNative(v.Ident, nil); ok {
		return e.invoke(fn, nil, nil, v.Ident, v.Position)
	}
	return nil, errors.VariableNotFound(v.Position, v.Ident)
}

// indexLValue builds the lvalue for `lhs[rhs]` over an array, map, or
// string container. Strings are get-only: their backing
// ImmutableString has no in-place character mutation.
func (e *Evaluator) indexLValue(v *ast.IndexExpr) (*lvalue, error) {
	containerLV, err := e.evalLValue(v.LHS)
	if err != nil {
		return nil, err
	}
	container, err := containerLV.get()
	if err != nil {
		return nil, err
	}
	key, err := e.evalExpr(v.RHS)
	if err != nil {
		return nil, err
	}

	switch c := container.(type) {
	case value.ArrayValue:
		idx, ok := key.(value.Int)
		if !ok {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "int", key.Kind().String())
		}
		i := int(idx)
		return &lvalue{
			get: func() (value.Value, error) {
				el, ok := c.At(i)
				if !ok {
					return nil, errors.ArrayBounds(v.Position, i, c.Len())
				}
				return el, nil
			},
			set: func(newVal value.Value) error {
				if !c.Set(i, newVal) {
					return errors.ArrayBounds(v.Position, i, c.Len())
				}
				if containerLV.set == nil {
					return nil
				}
				return containerLV.set(c)
			},
		}, nil

	case value.MapValue:
		k, ok := key.(value.StrValue)
		if !ok {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "string", key.Kind().String())
		}
		name := k.String()
		return &lvalue{
			get: func() (value.Value, error) {
				el, ok := c.Get(name)
				if !ok {
					return nil, errors.IndexNotFound(v.Position, name)
				}
				return el, nil
			},
			set: func(newVal value.Value) error {
				c.Set(name, newVal)
				if containerLV.set == nil {
					return nil
				}
				return containerLV.set(c)
			},
		}, nil

	case value.StrValue:
		idx, ok := key.(value.Int)
		if !ok {
			return nil, errors.MismatchDataType(v.RHS.Pos(), "int", key.Kind().String())
		}
		runes := []rune(c.String())
		i := int(idx)
		return &lvalue{
			get: func() (value.Value, error) {
				if i < 0 || i >= len(runes) {
					return nil, errors.StringBounds(v.Position, i, len(runes))
				}
				return value.Char(runes[i]), nil
			},
		}, nil

	case value.NativeValue:
		return e.nativeIndexLValue(containerLV, c, key, v.Position)

	default:
		return nil, errors.MismatchDataType(v.LHS.Pos(), "array, map, or string", container.Kind().String())
	}
}

// nativeIndexLValue builds the lvalue for `recv[key]` over a
// host-registered NativeValue, dispatched through the "get$index"/
// "set$index" native-hash functions a host registers via
// engine.RegisterIndexerGet/Set.
func (e *Evaluator) nativeIndexLValue(containerLV *lvalue, recv value.NativeValue, key value.Value, pos lexer.Position) (*lvalue, error) {
	typeID := recv.TypeName()
	return &lvalue{
		get: func() (value.Value, error) {
			fn, ok := e.lookupPropertyFn("get$index", []string{typeID, key.Kind().String()})
			if !ok {
				return nil, errors.FunctionNotFound(pos, "get$index")
			}
			return e.invoke(fn, []value.Value{recv, key}, nil, "get$index", pos)
		},
		set: func(newVal value.Value) error {
			fn, ok := e.lookupPropertyFn("set$index", []string{typeID, key.Kind().String(), "any"})
			if !ok {
				return errors.FunctionNotFound(pos, "set$index")
			}
			args := []value.Value{recv, key, newVal}
			argLVs := []*lvalue{containerLV, nil, nil}
			_, err := e.invoke(fn, args, argLVs, "set$index", pos)
			return err
		},
	}, nil
}

// dotLValue builds the lvalue for `lhs.rhs`. The parser only ever
// produces a PropertyExpr or FnCallExpr on the right of a Dot; a
// multi-segment chain like `a.b.c` is left-nested
// (Dot(Dot(a,b),c)), not a nested RHS, so this is a flat two-case
// switch, not a recursive walk. A PropertyExpr dispatches to the
// getter/setter function pair the parser resolved from the property
// name; an FnCallExpr treats lhs as the method's receiver,
// passed by mutable reference and written back after the call.
func (e *Evaluator) dotLValue(v *ast.DotExpr) (*lvalue, error) {
	recvLV, err := e.evalLValue(v.LHS)
	if err != nil {
		return nil, err
	}

	switch rhs := v.RHS.(type) {
	case *ast.PropertyExpr:
		return e.propertyLValue(recvLV, rhs, v.Position)

	case *ast.FnCallExpr:
		recv, err := recvLV.get()
		if err != nil {
			return nil, err
		}
		result, err := e.callWithReceiver(v.Position, recvLV, recv, rhs.Info)
		if err != nil {
			return nil, err
		}
		return &lvalue{get: func() (value.Value, error) { return result, nil }}, nil

	default:
		return nil, errors.Newf(errors.KindSystem, v.Position, "invalid property-chain element %T", rhs)
	}
}

// propertyLValue dispatches a `.Name` property access through its
// resolved getter/setter function pair, searched across
// Lib/Imports/Global/builtins keyed by the receiver's type identity.
func (e *Evaluator) propertyLValue(recvLV *lvalue, prop *ast.PropertyExpr, pos lexer.Position) (*lvalue, error) {
	recv, err := recvLV.get()
	if err != nil {
		return nil, err
	}
	typeID := propertyTypeID(recv)

	lv := &lvalue{}
	lv.get = func() (value.Value, error) {
		fn, ok := e.lookupPropertyFn(prop.GetterName, []string{typeID})
		if !ok {
			return nil, errors.FunctionNotFound(pos, prop.GetterName)
		}
		return e.invoke(fn, []value.Value{recv}, nil, prop.GetterName, pos)
	}
	lv.set = func(newVal value.Value) error {
		// Setters register with an "any" new-value slot (the same
		// convention as set$index) so one setter serves every value kind.
		fn, ok := e.lookupPropertyFn(prop.SetterName, []string{typeID, "any"})
		if !ok {
			return errors.FunctionNotFound(pos, prop.SetterName)
		}
		args := []value.Value{recv, newVal}
		argLVs := []*lvalue{recvLV, nil}
		_, err := e.invoke(fn, args, argLVs, prop.SetterName, pos)
		return err
	}
	return lv, nil
}

func propertyTypeID(v value.Value) string {
	if nv, ok := v.(value.NativeValue); ok {
		return nv.TypeName()
	}
	return v.Kind().String()
}

// lookupPropertyFn finds name keyed by argTypeIDs, searching
// Lib/Imports/Global/builtins in order.
func (e *Evaluator) lookupPropertyFn(name string, argTypeIDs []string) (module.Callable, bool) {
	for _, m := range e.modules() {
		if fn, ok := m.LookupNative(name, argTypeIDs); ok {
			return fn, true
		}
	}
	return module.Callable{}, false
}

// callWithReceiver invokes info with recv prepended, writing recv back
// through recvLV when the resolved callable is a Method.
func (e *Evaluator) callWithReceiver(pos lexer.Position, recvLV *lvalue, recv value.Value, info *ast.FnCallInfo) (value.Value, error) {
	args := make([]value.Value, 0, len(info.Args)+1)
	args = append(args, recv)
	argLVs := make([]*lvalue, 0, len(info.Args)+1)
	argLVs = append(argLVs, recvLV)
	for _, a := range info.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		argLVs = append(argLVs, nil)
	}
	return e.dispatchCall(info, args, argLVs, pos)
}
