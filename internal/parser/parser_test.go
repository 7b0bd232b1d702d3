package parser

import (
	"testing"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"

	"github.com/gkampitakis/go-snaps/snaps"
)

func mustParse(t *testing.T, src string) *ast.AST {
	t.Helper()
	lx := lexer.New([]string{src})
	tree, errs := Parse(lx)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return tree
}

func TestParseLetAndAssignment(t *testing.T) {
	tree := mustParse(t, "let x = 1; x = x + 2;")
	if len(tree.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(tree.Statements))
	}
	let, ok := tree.Statements[0].(*ast.LetStmt)
	if !ok || let.Name != "x" {
		t.Fatalf("expected a let statement for x, got %#v", tree.Statements[0])
	}
	assign, ok := tree.Statements[1].(*ast.AssignmentStmt)
	if !ok || assign.Op != "=" {
		t.Fatalf("expected a plain assignment, got %#v", tree.Statements[1])
	}
}

func TestParseVariableIndexResolution(t *testing.T) {
	tree := mustParse(t, "let a = 1; let b = 2; a + b;")
	exprStmt := tree.Statements[2].(*ast.ExprStmt)
	call := exprStmt.Value.(*ast.FnCallExpr)
	lhs := call.Info.Args[0].(*ast.VariableExpr) // a
	rhs := call.Info.Args[1].(*ast.VariableExpr) // b
	// b was declared last, so it's the top-most frame (depth 0); a is one
	// frame below it (depth 1).
	if rhs.Index != 0 {
		t.Errorf("expected 'b' to resolve to depth 0, got %d", rhs.Index)
	}
	if lhs.Index != 1 {
		t.Errorf("expected 'a' to resolve to depth 1, got %d", lhs.Index)
	}
}

func TestParseIfElse(t *testing.T) {
	tree := mustParse(t, "if x { let y = 1; } else { let y = 2; }")
	stmt := tree.Statements[0].(*ast.IfThenElseStmt)
	if stmt.Alternative == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseForLoopBindsFreshFrame(t *testing.T) {
	tree := mustParse(t, "for item in items { item; }")
	forStmt := tree.Statements[0].(*ast.ForStmt)
	if forStmt.VarName != "item" {
		t.Errorf("expected loop variable 'item', got %q", forStmt.VarName)
	}
	body := forStmt.Body.(*ast.BlockStmt)
	inner := body.List[0].(*ast.ExprStmt).Value.(*ast.VariableExpr)
	if inner.Index != 0 {
		t.Errorf("expected loop variable reference to resolve to depth 0, got %d", inner.Index)
	}
}

func TestParseFunctionDefinitionRegistersInLib(t *testing.T) {
	tree := mustParse(t, "fn add(a, b) { return a + b; }")
	if len(tree.Statements) != 0 {
		t.Fatalf("expected the function definition to not appear in Statements, got %d", len(tree.Statements))
	}
	fn, _, ok := tree.Lib.LookupScript("add", 2)
	if !ok {
		t.Fatalf("expected 'add/2' to be registered in the AST's lib")
	}
	if len(fn.Script().Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(fn.Script().Params))
	}
}

func TestParseTryCatchBindsErrVar(t *testing.T) {
	tree := mustParse(t, "try { throw 1; } catch (e) { e; }")
	tc := tree.Statements[0].(*ast.TryCatchStmt)
	if tc.ErrVar != "e" {
		t.Fatalf("expected error variable 'e', got %q", tc.ErrVar)
	}
	handler := tc.Handler.(*ast.BlockStmt)
	ref := handler.List[0].(*ast.ExprStmt).Value.(*ast.VariableExpr)
	if ref.Index != 0 {
		t.Errorf("expected 'e' to resolve to depth 0 inside the handler, got %d", ref.Index)
	}
}

func TestParseArrayAndMapLiterals(t *testing.T) {
	tree := mustParse(t, "[1, 2, 3]; #{ a: 1, b: 2 };")
	arr := tree.Statements[0].(*ast.ExprStmt).Value.(*ast.ArrayExpr)
	if len(arr.Items) != 3 {
		t.Errorf("expected 3 array items, got %d", len(arr.Items))
	}
	m := tree.Statements[1].(*ast.ExprStmt).Value.(*ast.MapExpr)
	if len(m.Pairs) != 2 {
		t.Errorf("expected 2 map pairs, got %d", len(m.Pairs))
	}
}

func TestParseDotPropertyAndMethodCall(t *testing.T) {
	tree := mustParse(t, "a.b; a.len();")
	dot := tree.Statements[0].(*ast.ExprStmt).Value.(*ast.DotExpr)
	prop := dot.RHS.(*ast.PropertyExpr)
	if prop.GetterName != "get_b" {
		t.Errorf("expected getter name get_b, got %q", prop.GetterName)
	}
	dot2 := tree.Statements[1].(*ast.ExprStmt).Value.(*ast.DotExpr)
	if _, ok := dot2.RHS.(*ast.FnCallExpr); !ok {
		t.Errorf("expected a method call on the right side of the dot, got %#v", dot2.RHS)
	}
}

func TestParseShortCircuitOperators(t *testing.T) {
	tree := mustParse(t, "true && false; true || false;")
	if _, ok := tree.Statements[0].(*ast.ExprStmt).Value.(*ast.AndExpr); !ok {
		t.Errorf("expected an AndExpr")
	}
	if _, ok := tree.Statements[1].(*ast.ExprStmt).Value.(*ast.OrExpr); !ok {
		t.Errorf("expected an OrExpr")
	}
}

func TestParseRangeExpr(t *testing.T) {
	tree := mustParse(t, "1..5; 1..=5;")
	half := tree.Statements[0].(*ast.ExprStmt).Value.(*ast.RangeExpr)
	if half.Inclusive {
		t.Errorf("expected 1..5 to be half-open")
	}
	incl := tree.Statements[1].(*ast.ExprStmt).Value.(*ast.RangeExpr)
	if !incl.Inclusive {
		t.Errorf("expected 1..=5 to be inclusive")
	}
}

func TestParsePrecedence(t *testing.T) {
	tree := mustParse(t, "1 + 2 * 3;")
	call := tree.Statements[0].(*ast.ExprStmt).Value.(*ast.FnCallExpr)
	if call.Info.Name != "+" {
		t.Fatalf("expected the top-level call to be '+', got %q", call.Info.Name)
	}
	rhs := call.Info.Args[1].(*ast.FnCallExpr)
	if rhs.Info.Name != "*" {
		t.Errorf("expected '*' to bind tighter than '+', got %q", rhs.Info.Name)
	}
}

func TestParseProgramSnapshot(t *testing.T) {
	tree := mustParse(t, `
let total = 0;
for n in range {
	if n > 0 {
		total = total + n;
	} else {
		continue;
	}
}
fn square(x) { return x * x; }
`)
	var rendered string
	for _, stmt := range tree.Statements {
		rendered += stmt.String() + "\n"
	}
	snaps.MatchSnapshot(t, rendered)
}
