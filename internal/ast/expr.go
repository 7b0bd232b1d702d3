package ast

import (
	"strings"

	"embedscript/internal/lexer"
	"embedscript/internal/value"
)

func (*LiteralExpr) exprNode()   {}
func (*FnPointerExpr) exprNode() {}
func (*VariableExpr) exprNode()  {}
func (*PropertyExpr) exprNode()  {}
func (*StmtExpr) exprNode()      {}
func (*ParenExpr) exprNode()     {}
func (*FnCallExpr) exprNode()    {}
func (*DotExpr) exprNode()       {}
func (*IndexExpr) exprNode()     {}
func (*ArrayExpr) exprNode()     {}
func (*MapExpr) exprNode()       {}
func (*InExpr) exprNode()        {}
func (*RangeExpr) exprNode()     {}
func (*AndExpr) exprNode()       {}
func (*OrExpr) exprNode()        {}
func (*CustomExpr) exprNode()    {}

// LiteralExpr wraps a compile-time constant. A single node type, not one
// per literal kind, since value.Value already tags its own variant.
type LiteralExpr struct {
	Position lexer.Position
	Value    value.Value
}

func (e *LiteralExpr) Pos() lexer.Position { return e.Position }
func (e *LiteralExpr) String() string      { return e.Value.String() }

// FnPointerExpr evaluates to an FnPtr Value bound to Name, optionally
// pre-curried with Curry.
type FnPointerExpr struct {
	Position lexer.Position
	Name     string
	Curry    []Expr
}

func (e *FnPointerExpr) Pos() lexer.Position { return e.Position }
func (e *FnPointerExpr) String() string      { return "fn_ptr(" + e.Name + ")" }

// VariableExpr references a named binding. Index is the resolved scope
// depth, counted from the top of the frame stack at parse time by the
// parser's resolution post-pass; -1 means unresolved (fall back to a
// name-based scan). Hash is the
// precomputed function hash used when this variable is called as a
// function value.
type VariableExpr struct {
	Position  lexer.Position
	Ident     string
	Namespace []string
	Index     int
	Hash      uint64
}

func (e *VariableExpr) Pos() lexer.Position { return e.Position }
func (e *VariableExpr) String() string {
	if len(e.Namespace) == 0 {
		return e.Ident
	}
	return strings.Join(e.Namespace, "::") + "::" + e.Ident
}

// PropertyExpr names a property access's accessor pair, derived from
// Ident by the engine's fixed getter/setter prefix convention.
type PropertyExpr struct {
	Position   lexer.Position
	Ident      string
	GetterName string
	SetterName string
}

func (e *PropertyExpr) Pos() lexer.Position { return e.Position }
func (e *PropertyExpr) String() string      { return e.Ident }

// StmtExpr lets a block be used where an expression is expected; it
// evaluates to the value of its final statement when that is a bare
// expression, an if/else or a nested block (the taken branch's value),
// and to Unit if the block is empty or ends in any other statement.
type StmtExpr struct {
	Position lexer.Position
	Block    *BlockStmt
}

func (e *StmtExpr) Pos() lexer.Position { return e.Position }
func (e *StmtExpr) String() string      { return e.Block.String() }

// ParenExpr is an explicitly parenthesized sub-expression, preserved so
// printers can round-trip source precedence; the optimizer and evaluator
// otherwise treat it transparently.
type ParenExpr struct {
	Position lexer.Position
	Inner    Expr
}

func (e *ParenExpr) Pos() lexer.Position { return e.Position }
func (e *ParenExpr) String() string      { return "(" + e.Inner.String() + ")" }

// FnCallExpr invokes a function described by Info.
type FnCallExpr struct {
	Position lexer.Position
	Info     *FnCallInfo
}

func (e *FnCallExpr) Pos() lexer.Position { return e.Position }
func (e *FnCallExpr) String() string      { return e.Info.String() }

// FnCallInfo holds everything the dispatch algorithm needs
// for one call site.
type FnCallInfo struct {
	// Hash is the precomputed hash of (Name, len(Args)).
	Hash uint64
	// NativeOnly skips the script-function search entirely; set for
	// operator calls.
	NativeOnly bool
	// Capture marks a call made from inside a closure body, instructing
	// the evaluator to have already augmented the callee's environment
	// with Shared cells for captured names.
	Capture bool
	// Default, when non-nil, is returned verbatim if no matching
	// function is found instead of signaling ErrorFunctionNotFound.
	Default   value.Value
	Namespace []string
	Name      string
	Args      []Expr
}

func (c *FnCallInfo) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	name := c.Name
	if len(c.Namespace) > 0 {
		name = strings.Join(c.Namespace, "::") + "::" + name
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// DotExpr is `lhs.rhs`, where rhs is typically a PropertyExpr or nested
// DotExpr/IndexExpr/FnCallExpr forming a property chain.
type DotExpr struct {
	Position lexer.Position
	LHS      Expr
	RHS      Expr
}

func (e *DotExpr) Pos() lexer.Position { return e.Position }
func (e *DotExpr) String() string      { return e.LHS.String() + "." + e.RHS.String() }

// IndexExpr is `lhs[rhs]`, dispatched through the receiver type's
// registered indexer get/set.
type IndexExpr struct {
	Position lexer.Position
	LHS      Expr
	RHS      Expr
}

func (e *IndexExpr) Pos() lexer.Position { return e.Position }
func (e *IndexExpr) String() string      { return e.LHS.String() + "[" + e.RHS.String() + "]" }

// ArrayExpr is an array literal `[ item, item, … ]`.
type ArrayExpr struct {
	Position lexer.Position
	Items    []Expr
}

func (e *ArrayExpr) Pos() lexer.Position { return e.Position }
func (e *ArrayExpr) String() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MapPair is one key/value entry of a MapExpr.
type MapPair struct {
	Key   string
	Value Expr
}

// MapExpr is an object-map literal `#{ key: expr, key: expr }`.
type MapExpr struct {
	Position lexer.Position
	Pairs    []MapPair
}

func (e *MapExpr) Pos() lexer.Position { return e.Position }
func (e *MapExpr) String() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p.Key + ": " + p.Value.String()
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

// InExpr tests membership: substring of string, element of array, key
// of map, or containment in a numeric range.
type InExpr struct {
	Position lexer.Position
	LHS      Expr
	RHS      Expr
}

func (e *InExpr) Pos() lexer.Position { return e.Position }
func (e *InExpr) String() string      { return e.LHS.String() + " in " + e.RHS.String() }

// RangeExpr is `lhs..rhs` (half-open) or `lhs..=rhs` (inclusive of rhs):
// a numeric range usable both as the target of `in` and as a for-loop
// iterable.
type RangeExpr struct {
	Position  lexer.Position
	LHS       Expr
	RHS       Expr
	Inclusive bool
}

func (e *RangeExpr) Pos() lexer.Position { return e.Position }
func (e *RangeExpr) String() string {
	op := ".."
	if e.Inclusive {
		op = "..="
	}
	return e.LHS.String() + op + e.RHS.String()
}

// AndExpr is `lhs && rhs`; RHS is evaluated only if LHS is truthy.
type AndExpr struct {
	Position lexer.Position
	LHS      Expr
	RHS      Expr
}

func (e *AndExpr) Pos() lexer.Position { return e.Position }
func (e *AndExpr) String() string      { return e.LHS.String() + " && " + e.RHS.String() }

// OrExpr is `lhs || rhs`; RHS is evaluated only if LHS is falsy.
type OrExpr struct {
	Position lexer.Position
	LHS      Expr
	RHS      Expr
}

func (e *OrExpr) Pos() lexer.Position { return e.Position }
func (e *OrExpr) String() string      { return e.LHS.String() + " || " + e.RHS.String() }

// CustomContext is the evaluation-time handle a CustomExpr's Eval
// callback receives in place of pre-evaluated slot values: it lets the
// callback evaluate (and re-evaluate) any slot expression on demand and
// push new scope bindings of its own, the way a custom `while`-style
// form needs to run its $block$/$expr$ slots in a loop against a
// variable it just introduced. Implemented
// by *eval.Evaluator; kept as an interface here so ast need not import
// eval.
type CustomContext interface {
	// EvalExpressionTree evaluates expr against the current scope,
	// exactly as if it appeared in the script at the custom syntax's
	// call site.
	EvalExpressionTree(expr Expr) (value.Value, error)
	// PushVar introduces name as a new mutable scope binding, visible to
	// every subsequent EvalExpressionTree call made by the same Eval
	// invocation (including, for a block slot, code written inside it).
	PushVar(name string, v value.Value)
}

// IdentName extracts the identifier text an $ident$ slot parsed to (a
// LiteralExpr wrapping a Str Value; see parser.parseCustomSyntax), for
// an Eval callback that needs to bind a slot-named variable.
func IdentName(e Expr) (string, bool) {
	lit, ok := e.(*LiteralExpr)
	if !ok {
		return "", false
	}
	str, ok := lit.Value.(value.StrValue)
	if !ok {
		return "", false
	}
	return str.String(), true
}

// CustomExpr is the parse result of a host-registered custom syntax:
// the matched slot expressions, left unevaluated, plus the
// host's evaluator callback, invoked with a CustomContext when this node
// is reached so it can decide when and how many times each slot runs.
type CustomExpr struct {
	Position lexer.Position
	Keyword  string
	Slots    []Expr
	Eval     func(ctx CustomContext, slots []Expr) (value.Value, error)
}

func (e *CustomExpr) Pos() lexer.Position { return e.Position }
func (e *CustomExpr) String() string      { return e.Keyword + "(custom)" }

// UnwrapExpr strips ParenExpr wrappers, recursively, returning the
// innermost expression. The optimizer calls this once at
// the point they need the real node, rather than special-casing
// ParenExpr in every visitor.
func UnwrapExpr(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.Inner
	}
}
