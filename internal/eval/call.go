package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// argTypeIDs computes the per-argument type identity the native hash
// family keys on: a host-registered NativeValue
// contributes its own registered type name, every built-in kind
// contributes its Kind().String().
func argTypeIDs(args []value.Value) []string {
	ids := make([]string, len(args))
	for i, a := range args {
		if nv, ok := a.(value.NativeValue); ok {
			ids[i] = nv.TypeName()
			continue
		}
		ids[i] = a.Kind().String()
	}
	return ids
}

// lookupScript searches every module in mods, in order, for an
// accessible script function before any native function is considered.
// Honors the Private-visibility rule that a Private script function is only
// reachable from calls compiled against the same AST's own lib.
func (e *Evaluator) lookupScript(mods []*module.Module, info *ast.FnCallInfo, args []value.Value) (module.Callable, bool) {
	if info.NativeOnly {
		return module.Callable{}, false
	}
	for _, m := range mods {
		if fn, acc, ok := m.LookupScript(info.Name, len(args)); ok {
			if acc == module.Public || m == e.Lib {
				return fn, true
			}
		}
	}
	return module.Callable{}, false
}

// lookupNative searches every module in mods, in order, for a native
// function match by (name, arity, argument type identities). Run only
// after lookupScript has found nothing.
func (e *Evaluator) lookupNative(mods []*module.Module, info *ast.FnCallInfo, args []value.Value) (module.Callable, bool) {
	ids := argTypeIDs(args)
	for _, m := range mods {
		if fn, ok := m.LookupNative(info.Name, ids); ok {
			return fn, true
		}
	}
	return module.Callable{}, false
}

// resolveModules returns the ordered module list a call should search:
// the namespace's resolved sub-module chain when info.Namespace is
// non-empty, or the standard
// Lib/Imports/Global/builtins order otherwise.
func (e *Evaluator) resolveModules(namespace []string, pos lexer.Position) ([]*module.Module, error) {
	if len(namespace) == 0 {
		return e.modules(), nil
	}
	root, ok := e.findNamespaceRoot(namespace[0])
	if !ok {
		return nil, errors.VariableNotFound(pos, namespace[0])
	}
	mod := root
	for _, seg := range namespace[1:] {
		sub, ok := mod.SubModule(seg)
		if !ok {
			return nil, errors.VariableNotFound(pos, seg)
		}
		mod = sub
	}
	return []*module.Module{mod}, nil
}

// findNamespaceRoot looks up name as an import alias first, then as a
// sub-module registered on any module currently in scope (lib, imports,
// global): the entry point for a `ns::fn(...)` or `ns::CONST`
// reference.
func (e *Evaluator) findNamespaceRoot(name string) (*module.Module, bool) {
	if m, ok := e.importAliases[name]; ok {
		return m, true
	}
	for _, m := range e.modules() {
		if sub, ok := m.SubModule(name); ok {
			return sub, true
		}
	}
	return nil, false
}

// dispatchCall resolves and invokes a call: a
// full pass over every module for an accessible script match, then
// only if that fails, a full pass over every module for a native
// match, invoke the first one found, and fall back to info.Default or
// ErrorFunctionNotFound. argLVs, when non-nil, lets a Method callable's
// mutated receiver be written back to the call site (e.g. `a.push(1)`
// or `push(a, 1)`); entries may be nil for non-addressable arguments.
func (e *Evaluator) dispatchCall(info *ast.FnCallInfo, args []value.Value, argLVs []*lvalue, pos lexer.Position) (value.Value, error) {
	mods, err := e.resolveModules(info.Namespace, pos)
	if err != nil {
		return nil, err
	}

	name := info.Name
	if fn, ok := e.lookupScript(mods, info, args); ok {
		return e.invoke(fn, args, argLVs, name, pos)
	}
	if fn, ok := e.lookupNative(mods, info, args); ok {
		return e.invoke(fn, args, argLVs, name, pos)
	}

	if info.Default != nil {
		return info.Default, nil
	}
	return nil, errors.FunctionNotFound(pos, name)
}

// CallFunction invokes name(args...) the way the host API's
// engine.CallFunction does: the same Lib/Imports/Global/builtins search
// dispatchCall uses for a compiled FnCallExpr, just without an AST call
// site driving it.
func (e *Evaluator) CallFunction(name string, args []value.Value, pos lexer.Position) (value.Value, error) {
	return e.CallFunctionWithThis(name, nil, args, pos)
}

// CallFunctionWithThis is CallFunction's "this"-bound special form:
// when this is non-nil, the callee runs with a mutable `this` binding
// seeded from *this, and the binding's value after the call is written
// back through the pointer, the way a method receiver would be. The
// this binding only makes sense for a scripted function body, so this
// form searches for a script match only, ignoring native/plugin/method
// callables; a nil this falls back to the normal dispatch search used
// by a compiled call site.
func (e *Evaluator) CallFunctionWithThis(name string, this *value.Value, args []value.Value, pos lexer.Position) (value.Value, error) {
	if this == nil {
		info := &ast.FnCallInfo{Name: name, Args: make([]ast.Expr, len(args))}
		return e.dispatchCall(info, args, nil, pos)
	}

	info := &ast.FnCallInfo{Name: name, Args: make([]ast.Expr, len(args))}
	mods, err := e.resolveModules(info.Namespace, pos)
	if err != nil {
		return nil, err
	}
	fn, ok := e.lookupScript(mods, info, args)
	if !ok {
		return nil, errors.FunctionNotFound(pos, name)
	}
	if err := e.tick(pos); err != nil {
		return nil, err
	}
	return e.invokeScriptWithThis(fn.Script(), this, args, name, pos)
}

// invoke calls fn uniformly across all five Callable kinds, writing a
// mutated receiver back through argLVs[0] for a Method call.
func (e *Evaluator) invoke(fn module.Callable, args []value.Value, argLVs []*lvalue, name string, pos lexer.Position) (value.Value, error) {
	if err := e.tick(pos); err != nil {
		return nil, err
	}
	switch fn.Kind() {
	case module.KindScript:
		return e.invokeScript(fn.Script(), args, name, pos)

	case module.KindMethod:
		if len(args) == 0 {
			return nil, errors.InFunctionCall(pos, name, module.ErrWrongArgCount)
		}
		recv := args[0]
		result, err := fn.Method()(&recv, args[1:])
		if err != nil {
			return nil, errors.InFunctionCall(pos, name, err)
		}
		if len(argLVs) > 0 && argLVs[0] != nil && argLVs[0].set != nil {
			if werr := argLVs[0].set(recv); werr != nil {
				return nil, werr
			}
		}
		return result, nil

	case module.KindPure:
		result, err := fn.Pure()(args)
		if err != nil {
			return nil, errors.InFunctionCall(pos, name, err)
		}
		return result, nil

	case module.KindPlugin:
		result, err := fn.Plugin().Call(args)
		if err != nil {
			return nil, errors.InFunctionCall(pos, name, err)
		}
		return result, nil

	default:
		return nil, errors.FunctionNotFound(pos, name)
	}
}

// invokeScript runs a scripted function body in a fresh scope frame
// range bound to def.Params, honoring the call-depth limit. A block
// body's trailing
// bare-expression value becomes the return value when no explicit
// return fires, matching the engine's expression-oriented blocks; a
// closure's synthesized *ast.ReturnStmt body always fires an explicit
// return.
func (e *Evaluator) invokeScript(def *module.ScriptDef, args []value.Value, name string, pos lexer.Position) (value.Value, error) {
	if len(args) != len(def.Params) {
		return nil, errors.InFunctionCall(pos, name, module.ErrWrongArgCount)
	}
	if err := e.calls.push(name, pos); err != nil {
		return nil, err
	}
	defer e.calls.pop()

	// A function body sees only its own parameters and locals; outer
	// variables reach it exclusively through curried Shared cells, so the
	// body runs against a fresh scope rather than on top of the caller's.
	saved := e.Scope
	e.Scope = scope.New()
	defer func() { e.Scope = saved }()
	for i, p := range def.Params {
		e.Scope.Push(p, args[i], scope.Mutable)
	}

	return e.runScriptBody(def.Body, name, pos)
}

// invokeScriptWithThis runs def the way invokeScript does, but first
// pushes a mutable `this` frame seeded from *this, and writes the
// binding's post-call value back through the pointer once the body
// finishes.
func (e *Evaluator) invokeScriptWithThis(def *module.ScriptDef, this *value.Value, args []value.Value, name string, pos lexer.Position) (value.Value, error) {
	if len(args) != len(def.Params) {
		return nil, errors.InFunctionCall(pos, name, module.ErrWrongArgCount)
	}
	if err := e.calls.push(name, pos); err != nil {
		return nil, err
	}
	defer e.calls.pop()

	saved := e.Scope
	e.Scope = scope.New()
	e.Scope.Push("this", *this, scope.Mutable)
	for i, p := range def.Params {
		e.Scope.Push(p, args[i], scope.Mutable)
	}

	result, err := e.runScriptBody(def.Body, name, pos)
	if v, ok := e.Scope.Get("this"); ok {
		*this = v
	}
	e.Scope = saved
	return result, err
}

// runScriptBody executes a script function's body (either a block, whose
// trailing expression value becomes the return value absent an explicit
// return, or a single statement) against the scope frame the caller has
// already pushed. body is
// `any` because module.ScriptDef.Body is, to avoid an ast<->module
// import cycle; the evaluator is the one package that type-asserts it.
func (e *Evaluator) runScriptBody(body any, name string, pos lexer.Position) (value.Value, error) {
	if block, ok := body.(*ast.BlockStmt); ok {
		result, sig, err := e.runBlock(block.List)
		if err != nil {
			return nil, wrapCallError(pos, name, err)
		}
		if sig.kind == ctrlReturn {
			return sig.value, nil
		}
		return result, nil
	}

	stmt, _ := body.(ast.Stmt)
	if stmt == nil {
		return value.Unit{}, nil
	}
	sig, err := e.execStmt(stmt)
	if err != nil {
		return nil, wrapCallError(pos, name, err)
	}
	if sig.kind == ctrlReturn {
		return sig.value, nil
	}
	return value.Unit{}, nil
}

// wrapCallError attributes err to the call site as ErrorInFunctionCall.
// Fatal kinds (Terminated, StackOverflow) pass through unwrapped: a
// function-call boundary must not turn an uncatchable error into a
// catchable one.
func wrapCallError(pos lexer.Position, name string, err error) error {
	if ee, ok := err.(*errors.EvalError); ok && !ee.Catchable() {
		return ee
	}
	return errors.InFunctionCall(pos, name, err)
}
