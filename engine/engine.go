// Package engine is the embedding host's public surface: compiling
// script text to an AST, evaluating it against a Scope, registering Go
// functions/types/properties/iterators, and wiring the
// progress/var-resolver/print/debug callbacks.
package engine

import (
	"fmt"

	"embedscript/internal/ast"
	"embedscript/internal/errors"
	"embedscript/internal/eval"
	"embedscript/internal/jsonmap"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/optimizer"
	"embedscript/internal/parser"
	"embedscript/internal/scope"
	"embedscript/internal/value"
)

// Engine owns the host-registered Global module plus the compilation and
// evaluation defaults every Compile/Eval call uses unless overridden.
// Not goroutine-safe to share across concurrent Eval calls in the
// default (single-threaded) build; see internal/value's
// cell_singlethreaded.go/cell_threadsafe.go split, selected at build
// time with `-tags threadsafe`.
type Engine struct {
	global *module.Module

	optLevel       optimizer.Level
	maxCallDepth   int
	operationLimit uint64
	constants      map[string]value.Value

	progress    eval.ProgressFn
	varResolver eval.VarResolverFn
	print       eval.PrintFn
	debug       eval.DebugFn
	resolver    eval.Resolver

	customSyntax []*parser.CustomSyntax

	tokenHook       lexer.TokenHook
	disabledSymbols []string
	reservedWords   []string
}

// Option configures a new Engine.
type Option func(*Engine)

// WithOptimizationLevel sets the optimizer level Compile applies.
func WithOptimizationLevel(level optimizer.Level) Option {
	return func(e *Engine) { e.optLevel = level }
}

// WithMaxCallDepth overrides the default recursion limit.
func WithMaxCallDepth(depth int) Option {
	return func(e *Engine) { e.maxCallDepth = depth }
}

// WithOperationLimit caps evaluation steps before ErrorTerminated fires,
// independent of any host Progress callback.
func WithOperationLimit(limit uint64) Option {
	return func(e *Engine) { e.operationLimit = limit }
}

// WithScopeConstant registers a compile-time constant Optimize's Full
// level may fold variable references against.
func WithScopeConstant(name string, v value.Value) Option {
	return func(e *Engine) {
		if e.constants == nil {
			e.constants = map[string]value.Value{}
		}
		e.constants[name] = v
	}
}

// New builds an Engine with an empty Global module, ready for
// Register*/Compile/Eval calls.
func New(opts ...Option) *Engine {
	e := &Engine{
		global:   module.New(),
		optLevel: optimizer.Simple,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnProgress installs the progress callback.
func (e *Engine) OnProgress(fn eval.ProgressFn) { e.progress = fn }

// OnVar installs the variable-resolution callback.
func (e *Engine) OnVar(fn eval.VarResolverFn) { e.varResolver = fn }

// OnPrint installs the print(x) sink; nil
// restores the evaluator's default, which writes the line to standard
// output.
func (e *Engine) OnPrint(fn eval.PrintFn) { e.print = fn }

// OnDebug installs the debug(x) sink.
func (e *Engine) OnDebug(fn eval.DebugFn) { e.debug = fn }

// SetResolver installs the host's import-path resolver.
func (e *Engine) SetResolver(r eval.Resolver) { e.resolver = r }

// OnToken installs a token post-processing hook, applied to every token
// before the parser sees it (e.g. remapping a Reserved token back to an
// ordinary identifier).
func (e *Engine) OnToken(hook lexer.TokenHook) { e.tokenHook = hook }

// DisableSymbol switches off recognition of an operator or keyword
// spelling in every subsequent Compile; the lexer reports it as an
// illegal token.
func (e *Engine) DisableSymbol(literal string) {
	e.disabledSymbols = append(e.disabledSymbols, literal)
}

// AddReservedWord registers an extra name that lexes as a Reserved token
// rather than an identifier, usually paired with an OnToken hook that
// decides where it is allowed.
func (e *Engine) AddReservedWord(name string) {
	e.reservedWords = append(e.reservedWords, name)
}

// ParseJSON parses a JSON object literal (or any JSON document) into a
// Value; null maps to Unit.
func (e *Engine) ParseJSON(jsonText string) (value.Value, error) {
	return jsonmap.Parse(jsonText)
}

// ToJSON renders a Value as compact JSON text.
func (e *Engine) ToJSON(v value.Value) (string, error) {
	return jsonmap.ToJSON(v)
}

// Compile lexes, parses and optimizes source into an *ast.AST, ready for
// Run/EvalAST. Parse and lex errors are joined into a single error; any
// registered custom syntax is wired into the parser before the first
// token is consumed.
func (e *Engine) Compile(source string) (*ast.AST, error) {
	return e.CompileFragments([]string{source})
}

// CompileFragments compiles several script fragments as one logical
// compilation unit, preserving each fragment's own (fragment, line,
// column) origin in every position.
func (e *Engine) CompileFragments(fragments []string) (*ast.AST, error) {
	return e.compile(fragments, nil)
}

// CompileWithScope compiles source the way Compile does, but additionally
// feeds sc's Constant bindings to the Full optimizer level as compile-time
// foldable names, letting a host-seeded
// constant collapse `SOME_CONST + 1` the same way a literal would.
func (e *Engine) CompileWithScope(sc *scope.Scope, source string) (*ast.AST, error) {
	return e.compile([]string{source}, sc)
}

func (e *Engine) compile(fragments []string, sc *scope.Scope) (*ast.AST, error) {
	var lexOpts []lexer.Option
	if e.tokenHook != nil {
		lexOpts = append(lexOpts, lexer.WithTokenHook(e.tokenHook))
	}
	lex := lexer.New(fragments, lexOpts...)
	for _, sym := range e.disabledSymbols {
		lex.DisableSymbol(sym)
	}
	for _, name := range e.reservedWords {
		lex.AddReservedWord(name)
	}
	p := parser.New(lex)
	for _, cs := range e.customSyntax {
		p.RegisterCustomSyntax(cs)
	}
	tree, perrs := p.ParseProgram()
	if len(lex.Errors()) > 0 || len(perrs) > 0 {
		return nil, compileError(lex.Errors(), perrs)
	}
	constants := e.constants
	if sc != nil {
		constants = mergeConstants(e.constants, sc.Constants())
	}
	opt := optimizer.New(e.optLevel, constants)
	return opt.Optimize(tree), nil
}

// mergeConstants layers extra's bindings over base's, without mutating
// either; base is the Engine's own WithScopeConstant set, extra is a
// per-call CompileWithScope Scope's Constants().
func mergeConstants(base, extra map[string]value.Value) map[string]value.Value {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]value.Value, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func compileError(lexErrs []lexer.LexError, parseErrs []*parser.ParseError) error {
	msg := fmt.Sprintf("%d lex error(s), %d parse error(s)", len(lexErrs), len(parseErrs))
	if len(parseErrs) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, parseErrs[0].Message)
	} else if len(lexErrs) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, lexErrs[0].Message)
	}
	return errors.New(errors.KindParsing, lexer.None, msg)
}

// newEvaluator builds the Evaluator a Run/Eval call uses, wired with this
// Engine's Global module and every installed hook.
func (e *Engine) newEvaluator(sc *scope.Scope) *eval.Evaluator {
	opts := []eval.Option{eval.WithGlobal(e.global)}
	if e.maxCallDepth > 0 {
		opts = append(opts, eval.WithMaxCallDepth(e.maxCallDepth))
	}
	if e.operationLimit > 0 {
		opts = append(opts, eval.WithOperationLimit(e.operationLimit))
	}
	if e.progress != nil {
		opts = append(opts, eval.WithProgress(e.progress))
	}
	if e.varResolver != nil {
		opts = append(opts, eval.WithVarResolver(e.varResolver))
	}
	if e.print != nil {
		opts = append(opts, eval.WithPrint(e.print))
	}
	if e.debug != nil {
		opts = append(opts, eval.WithDebug(e.debug))
	}
	if e.resolver != nil {
		opts = append(opts, eval.WithResolver(e.resolver))
	}
	return eval.New(sc, opts...)
}

// RunAST evaluates a previously compiled tree against a fresh Scope and
// returns the raw Value.
func (e *Engine) RunAST(tree *ast.AST) (value.Value, error) {
	return e.RunASTWithScope(tree, scope.New())
}

// RunASTWithScope evaluates tree against an existing Scope, letting the
// host seed variables before running.
func (e *Engine) RunASTWithScope(tree *ast.AST, sc *scope.Scope) (value.Value, error) {
	return e.newEvaluator(sc).Run(tree)
}

// Run compiles and evaluates source in one step against a fresh Scope.
func (e *Engine) Run(source string) (value.Value, error) {
	tree, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return e.RunAST(tree)
}

// Eval compiles and evaluates source, then converts the result to T,
// failing with ErrorMismatchOutputType if the dynamic Value doesn't
// convert.
func Eval[T any](e *Engine, source string) (T, error) {
	v, err := e.Run(source)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](v)
}

// EvalAST evaluates a pre-compiled tree and converts the result to T.
func EvalAST[T any](e *Engine, tree *ast.AST) (T, error) {
	v, err := e.RunAST(tree)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](v)
}

func convert[T any](v value.Value) (T, error) {
	rv, err := valueToGoReflectTarget[T](v)
	if err != nil {
		var zero T
		return zero, errors.MismatchOutputType(lexer.None, fmt.Sprintf("%T", zero), v.Kind().String())
	}
	return rv, nil
}

// CallFunction invokes a script-defined or host-registered function
// directly by name against an existing Scope, without requiring a
// FnCallExpr call site. args is consumed: every element is set to Unit
// once the call returns, the same way passing args by value into the
// callee and dropping the caller's copy would, sparing the host from
// having to clone a Value it no longer needs.
func (e *Engine) CallFunction(tree *ast.AST, sc *scope.Scope, name string, args []value.Value) (value.Value, error) {
	return e.CallFunctionWithThis(tree, sc, name, nil, args)
}

// CallFunctionWithThis is CallFunction's "this"-bound special form:
// when this is non-nil, the script function named name runs with a
// mutable `this` binding seeded from *this, and *this is updated with
// that binding's value once the call returns, the same way a method
// call mutates its receiver. args is consumed exactly as CallFunction
// consumes it.
func (e *Engine) CallFunctionWithThis(tree *ast.AST, sc *scope.Scope, name string, this *value.Value, args []value.Value) (value.Value, error) {
	ev := e.newEvaluator(sc)
	ev.Lib = tree.Lib
	result, err := ev.CallFunctionWithThis(name, this, args, lexer.None)
	for i := range args {
		args[i] = value.Unit{}
	}
	return result, err
}
