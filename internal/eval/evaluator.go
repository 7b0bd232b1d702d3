// Package eval implements the engine's tree-walking evaluator: statement
// and expression interpretation, scope management, function dispatch,
// closures, property chains, try/catch, imports, and the host callback
// surface. One file per concern: evaluator.go holds the core, with
// stmt.go/expr.go/call.go/closures.go/forloop.go/trycatch.go/
// importexport.go/assignment.go/lvalue.go/builtins.go/callstack.go
// alongside.
package eval

import (
	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// ProgressFn is the host's cooperative-cancellation hook: invoked
// periodically with the running operation count; returning (v, true)
// aborts evaluation with ErrorTerminated(v).
type ProgressFn func(ops uint64) (value.Value, bool)

// VarResolverFn is consulted before an undefined variable is reported;
// returning (v, true) shadows the normal lookup with v.
type VarResolverFn func(name string) (value.Value, bool)

// PrintFn and DebugFn back the built-in print(x)/debug(x) functions;
// the default sinks write a line to stdout.
type PrintFn func(line string)
type DebugFn func(line string)

// Resolver resolves an import path to a Module. How paths map to files
// is the host's business; it supplies the implementation.
type Resolver interface {
	Resolve(path string) (*module.Module, error)
}

// Evaluator walks one *ast.AST against one *scope.Scope. It is not
// goroutine-safe to share a single Evaluator across concurrent Run
// calls in single-threaded build mode; create one per call the way
// the host's engine.Eval does.
type Evaluator struct {
	Scope *scope.Scope
	Lib   *module.Module
	// Imports is the stack of modules pushed by `import` statements for
	// the remainder of the enclosing block.
	Imports []*module.Module
	// importAliases maps an import's alias (or its raw path, lacking an
	// `as` clause) to the resolved Module, consulted by namespaced
	// variable/call references (`alias::name`). importAliasOrder records
	// registration order so runBlock can release a block's aliases on
	// exit alongside its Imports entries.
	importAliases    map[string]*module.Module
	importAliasOrder []string
	Global        *module.Module
	// builtins holds the engine's own operator and container-iterator
	// functions, always consulted last.
	builtins *module.Module

	calls *callStack

	// OperationLimit caps the number of statement/operator evaluations
	// before ErrorTerminated(Unit) fires even without a host Progress
	// hook (0 disables the quota).
	OperationLimit uint64
	opCount        uint64

	Progress    ProgressFn
	VarResolver VarResolverFn
	Print       PrintFn
	Debug       DebugFn
	Resolver    Resolver
}

// Option configures a new Evaluator.
type Option func(*Evaluator)

// WithMaxCallDepth overrides the default 1024-frame recursion limit.
func WithMaxCallDepth(depth int) Option {
	return func(e *Evaluator) { e.calls = newCallStack(depth) }
}

// WithOperationLimit caps the number of evaluation steps (0 disables).
func WithOperationLimit(limit uint64) Option {
	return func(e *Evaluator) { e.OperationLimit = limit }
}

// WithGlobal installs the host's global Module, consulted after Lib and
// any imports during dispatch.
func WithGlobal(g *module.Module) Option {
	return func(e *Evaluator) { e.Global = g }
}

// WithProgress installs the host's progress callback.
func WithProgress(fn ProgressFn) Option {
	return func(e *Evaluator) { e.Progress = fn }
}

// WithVarResolver installs the host's variable-resolution callback.
func WithVarResolver(fn VarResolverFn) Option {
	return func(e *Evaluator) { e.VarResolver = fn }
}

// WithPrint installs the host's print(x) sink.
func WithPrint(fn PrintFn) Option {
	return func(e *Evaluator) { e.Print = fn }
}

// WithDebug installs the host's debug(x) sink.
func WithDebug(fn DebugFn) Option {
	return func(e *Evaluator) { e.Debug = fn }
}

// WithResolver installs the host's import-path resolver.
func WithResolver(r Resolver) Option {
	return func(e *Evaluator) { e.Resolver = r }
}

// New builds an Evaluator over sc, ready to run one *ast.AST's top-level
// statements or a single scripted function.
func New(sc *scope.Scope, opts ...Option) *Evaluator {
	e := &Evaluator{
		Scope:    sc,
		Global:   module.New(),
		builtins: newBuiltins(),
		calls:    newCallStack(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates tree's top-level statements in source order and returns
// the value of the final statement when that is a bare expression or a
// tail if/block (Unit if the program ends in any other statement or is
// empty).
func (e *Evaluator) Run(tree *ast.AST) (value.Value, error) {
	e.Lib = tree.Lib
	result, sig, err := e.runBlock(tree.Statements)
	if err != nil {
		return nil, err
	}
	switch sig.kind {
	case ctrlReturn:
		return sig.value, nil
	case ctrlBreak, ctrlContinue:
		return nil, errors.Newf(errors.KindRuntime, lexer.None, "%s outside of a loop", sig.kind)
	}
	return result, nil
}

// tick increments the operation counter and consults the progress
// callback and quota.
// Called once per statement dispatch and once per operator/function
// call, matching "every statement or operator evaluation".
func (e *Evaluator) tick(pos lexer.Position) error {
	e.opCount++
	if e.OperationLimit > 0 && e.opCount > e.OperationLimit {
		return errors.Terminated(pos, value.Unit{})
	}
	if e.Progress != nil {
		if v, stop := e.Progress(e.opCount); stop {
			return errors.Terminated(pos, v)
		}
	}
	return nil
}

// modules returns the ordered list of function tables dispatch
// consults: the AST's own lib, then every active import, then the
// host's global module, then the engine's builtin operators.
func (e *Evaluator) modules() []*module.Module {
	mods := make([]*module.Module, 0, len(e.Imports)+3)
	if e.Lib != nil {
		mods = append(mods, e.Lib)
	}
	mods = append(mods, e.Imports...)
	if e.Global != nil {
		mods = append(mods, e.Global)
	}
	mods = append(mods, e.builtins)
	return mods
}

// EvalExpressionTree implements ast.CustomContext: a custom syntax's
// Eval callback evaluates one of its unevaluated slot expressions
// against the evaluator's live scope, as many times as it needs to.
func (e *Evaluator) EvalExpressionTree(expr ast.Expr) (value.Value, error) {
	return e.evalExpr(expr)
}

// PushVar implements ast.CustomContext: introduces name as a new mutable
// scope binding, visible to every later EvalExpressionTree call made by
// the same custom syntax invocation. The caller is responsible for
// truncating the scope back down once it is done (see
// internal/parser/customsyntax.go's documented custom-syntax contract);
// a custom syntax node is always evaluated inside some enclosing block
// or function whose own scope truncation eventually reclaims it.
func (e *Evaluator) PushVar(name string, v value.Value) {
	e.Scope.Push(name, v, scope.Mutable)
}

func (k ctrlKind) String() string {
	switch k {
	case ctrlBreak:
		return "break"
	case ctrlContinue:
		return "continue"
	case ctrlReturn:
		return "return"
	default:
		return "none"
	}
}
