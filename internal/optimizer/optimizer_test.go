package optimizer

import (
	"testing"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/parser"
	"embedscript/internal/value"
)

func mustParse(t *testing.T, src string) *ast.AST {
	t.Helper()
	lx := lexer.New([]string{src})
	tree, errs := parser.Parse(lx)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return tree
}

func TestNoneLevelLeavesTreeUntouched(t *testing.T) {
	tree := mustParse(t, "1 + 2;")
	before := tree.Statements[0].String()
	New(None, nil).Optimize(tree)
	if got := tree.Statements[0].String(); got != before {
		t.Errorf("None level changed the tree: %q -> %q", before, got)
	}
}

func TestSimpleFoldsConstantArithmetic(t *testing.T) {
	tree := mustParse(t, "let x = 1 + 2 * 3;")
	New(Simple, nil).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	lit, ok := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("expected Init to fold to a literal, got %#v", let.Init)
	}
	if lit.Value.(value.Int) != 7 {
		t.Errorf("expected 7, got %v", lit.Value)
	}
}

func TestSimpleDoesNotFoldDivisionByZero(t *testing.T) {
	tree := mustParse(t, "1 / 0;")
	New(Simple, nil).Optimize(tree)
	stmt := tree.Statements[0].(*ast.ExprStmt)
	if _, ok := ast.UnwrapExpr(stmt.Value).(*ast.LiteralExpr); ok {
		t.Fatalf("division by zero must not be constant-folded away, so its runtime error still fires")
	}
}

func TestSimpleFoldsStringConcatenation(t *testing.T) {
	tree := mustParse(t, `let s = "a" + "b";`)
	New(Simple, nil).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	lit := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr)
	if lit.Value.(value.StrValue).String() != "ab" {
		t.Errorf(`expected "ab", got %v`, lit.Value)
	}
}

func TestSimpleFoldsComparison(t *testing.T) {
	tree := mustParse(t, "1 < 2; let x = 1;")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 1 {
		t.Fatalf("expected the folded literal `true` expression statement to be elided as pure-discardable, got %#v", tree.Statements)
	}
	if _, ok := tree.Statements[0].(*ast.LetStmt); !ok {
		t.Fatalf("expected only the let statement to survive, got %#v", tree.Statements[0])
	}
}

func TestSimpleEliminatesDeadIfBranch(t *testing.T) {
	tree := mustParse(t, "if true { let x = 1; } else { let x = 2; }")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 1 {
		t.Fatalf("expected exactly the then-branch to survive, got %d statements", len(tree.Statements))
	}
	// The taken branch stays a block so its let does not leak into the
	// enclosing scope.
	block, ok := tree.Statements[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected the then-branch block to survive, got %#v", tree.Statements[0])
	}
	let, ok := block.List[0].(*ast.LetStmt)
	if !ok || let.Name != "x" {
		t.Fatalf("expected the then-branch's let x, got %#v", block.List[0])
	}
	lit := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr)
	if lit.Value.(value.Int) != 1 {
		t.Errorf("expected x = 1 from the then-branch, got %v", lit.Value)
	}
}

func TestSimpleEliminatesDeadWhileLoop(t *testing.T) {
	tree := mustParse(t, "while false { let x = 1; }")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 0 {
		t.Fatalf("expected a `while false` loop to be removed entirely, got %#v", tree.Statements)
	}
}

func TestSimpleShortCircuitsAndOr(t *testing.T) {
	tree := mustParse(t, "let a = false && side(); let b = true || side();")
	New(Simple, nil).Optimize(tree)
	aLit := ast.UnwrapExpr(tree.Statements[0].(*ast.LetStmt).Init).(*ast.LiteralExpr)
	if aLit.Value.(value.Bool) != false {
		t.Errorf("expected `false && side()` to fold to false, got %v", aLit.Value)
	}
	bLit := ast.UnwrapExpr(tree.Statements[1].(*ast.LetStmt).Init).(*ast.LiteralExpr)
	if bLit.Value.(value.Bool) != true {
		t.Errorf("expected `true || side()` to fold to true, got %v", bLit.Value)
	}
}

func TestSimpleInlinesConstantArrayLiteral(t *testing.T) {
	tree := mustParse(t, "let a = [1, 2, 1 + 2];")
	New(Simple, nil).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	lit, ok := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("expected a fully-constant array literal to fold to a single literal, got %#v", let.Init)
	}
	arr := lit.Value.(value.ArrayValue)
	if arr.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", arr.Len())
	}
	if arr.Items()[2].(value.Int) != 3 {
		t.Errorf("expected the third item to fold to 3, got %v", arr.Items()[2])
	}
}

func TestSimpleDoesNotInlineArrayWithNonConstantItem(t *testing.T) {
	tree := mustParse(t, "let a = [1, x];")
	New(Simple, nil).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	if _, ok := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr); ok {
		t.Fatalf("array containing a variable reference must not fold to a literal")
	}
}

func TestFullFoldsScopeConstantReference(t *testing.T) {
	tree := mustParse(t, "let y = LIMIT + 1;")
	consts := map[string]value.Value{"LIMIT": value.Int(10)}
	New(Full, consts).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	lit := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr)
	if lit.Value.(value.Int) != 11 {
		t.Errorf("expected LIMIT+1 to fold to 11 at Full, got %v", lit.Value)
	}
}

func TestSimpleLevelDoesNotFoldScopeConstants(t *testing.T) {
	tree := mustParse(t, "let y = LIMIT + 1;")
	consts := map[string]value.Value{"LIMIT": value.Int(10)}
	New(Simple, consts).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	if _, ok := ast.UnwrapExpr(let.Init).(*ast.LiteralExpr); ok {
		t.Fatalf("Simple must not fold scope-constant variable references, only Full does")
	}
}

func TestSimpleFoldsRangeExprOperands(t *testing.T) {
	tree := mustParse(t, "let r = (1 + 1)..(2 * 3);")
	New(Simple, nil).Optimize(tree)
	let := tree.Statements[0].(*ast.LetStmt)
	rng, ok := ast.UnwrapExpr(let.Init).(*ast.RangeExpr)
	if !ok {
		t.Fatalf("expected a RangeExpr, got %#v", let.Init)
	}
	lhs, ok := ast.UnwrapExpr(rng.LHS).(*ast.LiteralExpr)
	if !ok || lhs.Value.(value.Int) != 2 {
		t.Errorf("expected the range's start to fold to 2, got %#v", rng.LHS)
	}
	rhs, ok := ast.UnwrapExpr(rng.RHS).(*ast.LiteralExpr)
	if !ok || rhs.Value.(value.Int) != 6 {
		t.Errorf("expected the range's end to fold to 6, got %#v", rng.RHS)
	}
}

func TestNoopStatementsAreRemoved(t *testing.T) {
	tree := mustParse(t, ";;;let x = 1;")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 1 {
		t.Fatalf("expected stray no-ops to be removed, got %d statements", len(tree.Statements))
	}
}

func TestPureDiscardableExpressionStatementsAreElided(t *testing.T) {
	tree := mustParse(t, "let x = 1; x; let y = 2;")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 2 {
		t.Fatalf("expected the bare variable-reference statement to be elided, got %d statements", len(tree.Statements))
	}
}

// A block's final expression statement is its value and survives
// optimization even when pure.
func TestFinalExpressionStatementIsNeverElided(t *testing.T) {
	tree := mustParse(t, "let x = 1; x;")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 2 {
		t.Fatalf("expected the trailing expression statement to survive as the program's value, got %d statements", len(tree.Statements))
	}
}

func TestCallExpressionStatementsAreNotElided(t *testing.T) {
	tree := mustParse(t, "side_effect();")
	New(Simple, nil).Optimize(tree)
	if len(tree.Statements) != 1 {
		t.Fatalf("a function call may have side effects and must not be elided, got %d statements", len(tree.Statements))
	}
}
