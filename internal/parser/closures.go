package parser

import (
	"fmt"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/value"
)

// parseFnPointerExpr handles `&name`, binding an already-declared named
// function as a first-class FnPtr value without calling it.
func parseFnPointerExpr(p *Parser) ast.Expr {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected function name after '&'") {
		return &ast.FnPointerExpr{Position: pos, Name: "__unresolved"}
	}
	return &ast.FnPointerExpr{Position: pos, Name: p.cur.Literal}
}

// parseClosureLiteral handles `|params| expr`, compiling the body into a
// fresh anonymous script function registered into the enclosing lib
// and returning an FnPointerExpr naming it.
//
// Free variables the body references from the enclosing frameTracker are
// recorded as the function's Captures; the evaluator converts each
// capture to a shared cell and curries it in at the point the
// FnPointerExpr itself is evaluated.
func parseClosureLiteral(p *Parser) ast.Expr {
	return p.parseClosureLiteralInto(p.rootLib, false)
}

// parseEmptyClosureLiteral handles the zero-parameter form, lexed as a
// single OROR ("||") token rather than two adjacent PIPE tokens; the
// lexer's longest-match rule for "|" never produces "|" "|" back to
// back, so an empty parameter list needs its own prefix entry instead of
// falling out of parseClosureLiteralInto's normal PIPE handling.
func parseEmptyClosureLiteral(p *Parser) ast.Expr {
	return p.parseClosureLiteralInto(p.rootLib, true)
}

func (p *Parser) parseClosureLiteralInto(lib *module.Module, empty bool) ast.Expr {
	pos := p.cur.Pos
	if empty {
		p.next()
		return p.finishClosureLiteral(lib, pos, nil)
	}

	var params []string
	if !p.peekIs(lexer.PIPE) {
		for {
			p.next()
			if !p.curIs(lexer.IDENT) {
				p.errorf(ErrExpectedIdent, "expected closure parameter name, got %q", p.cur.Literal)
				break
			}
			params = append(params, p.cur.Literal)
			if !p.peekIs(lexer.COMMA) {
				break
			}
			p.next()
		}
	}
	p.expect(lexer.PIPE, ErrUnexpectedToken, "expected '|' to close closure parameter list")
	p.next()
	return p.finishClosureLiteral(lib, pos, params)
}

// finishClosureLiteral parses the closure body (the token after the
// parameter list's closing delimiter is already current) and compiles it
// into a fresh anonymous script function, shared by both the `|params|`
// and empty `||` parameter-list forms.
func (p *Parser) finishClosureLiteral(lib *module.Module, pos lexer.Position, params []string) ast.Expr {
	outer := p.frames
	p.frames = &frameTracker{}
	for _, param := range params {
		p.frames.declare(param)
	}
	var body ast.Expr
	if p.curIs(lexer.LBRACE) {
		body = parseBlockAsExpr(p)
	} else {
		body = p.parseExpression(LOWEST)
	}
	p.frames = outer

	bound := map[string]bool{}
	for _, param := range params {
		bound[param] = true
	}
	captures := freeVariables(body, bound)

	p.anonCounter++
	name := fmt.Sprintf("%s%d", value.AnonymousFnPrefix, p.anonCounter)
	allParams := make([]string, 0, len(captures)+len(params))
	allParams = append(allParams, captures...)
	allParams = append(allParams, params...)

	def := &module.ScriptDef{
		Body:     &ast.ReturnStmt{Position: pos, Value: body},
		Params:   allParams,
		Access:   module.Private,
		Captures: captures,
	}
	lib.RegisterScript(name, len(allParams), module.Private, def)

	// Each capture becomes a VariableExpr slot in the resulting
	// FnPointerExpr's Curry list; the evaluator recognizes this shape and
	// converts the named variable to a Shared cell in the defining scope
	// before currying it in, so mutations made inside the closure body
	// stay visible to whatever scope captured it.
	curry := make([]ast.Expr, len(captures))
	for i, c := range captures {
		curry[i] = &ast.VariableExpr{Position: pos, Ident: c, Index: -1}
	}

	return &ast.FnPointerExpr{Position: pos, Name: name, Curry: curry}
}

// freeVariables walks expr and returns, in first-seen order, the names
// of every VariableExpr referenced that is not in bound. Used only at
// closure-literal parse time to compute a capture list.
func freeVariables(n ast.Node, bound map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	var walkExpr func(ast.Expr)
	var walkStmt func(ast.Stmt)

	record := func(name string) {
		if bound[name] || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.LiteralExpr:
		case *ast.FnPointerExpr:
			for _, c := range v.Curry {
				walkExpr(c)
			}
		case *ast.VariableExpr:
			if len(v.Namespace) == 0 {
				record(v.Ident)
			}
		case *ast.PropertyExpr:
		case *ast.StmtExpr:
			walkStmt(v.Block)
		case *ast.ParenExpr:
			walkExpr(v.Inner)
		case *ast.FnCallExpr:
			// A bare call target may itself be a captured closure variable
			// rather than a named script/native function; record it so the
			// evaluator's capture conversion has a shared cell ready either
			// way (harmless if it turns out to name a global function).
			if len(v.Info.Namespace) == 0 {
				record(v.Info.Name)
			}
			for _, a := range v.Info.Args {
				walkExpr(a)
			}
		case *ast.DotExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.IndexExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.ArrayExpr:
			for _, it := range v.Items {
				walkExpr(it)
			}
		case *ast.MapExpr:
			for _, p := range v.Pairs {
				walkExpr(p.Value)
			}
		case *ast.InExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.RangeExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.AndExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.OrExpr:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.CustomExpr:
			for _, s := range v.Slots {
				walkExpr(s)
			}
		}
	}

	walkStmt = func(s ast.Stmt) {
		if s == nil {
			return
		}
		switch v := s.(type) {
		case *ast.NoopStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.ShareStmt, *ast.ExportStmt:
		case *ast.IfThenElseStmt:
			walkExpr(v.Condition)
			walkStmt(v.Then)
			walkStmt(v.Alternative)
		case *ast.WhileStmt:
			walkExpr(v.Condition)
			walkStmt(v.Body)
		case *ast.LoopStmt:
			walkStmt(v.Body)
		case *ast.ForStmt:
			walkExpr(v.Iterable)
			walkStmt(v.Body)
		case *ast.LetStmt:
			walkExpr(v.Init)
		case *ast.ConstStmt:
			walkExpr(v.Init)
		case *ast.AssignmentStmt:
			walkExpr(v.LHS)
			walkExpr(v.RHS)
		case *ast.BlockStmt:
			for _, s := range v.List {
				walkStmt(s)
			}
		case *ast.TryCatchStmt:
			walkStmt(v.Body)
			walkStmt(v.Handler)
		case *ast.ExprStmt:
			walkExpr(v.Value)
		case *ast.ReturnStmt:
			walkExpr(v.Value)
		case *ast.ThrowStmt:
			walkExpr(v.Value)
		case *ast.ImportStmt:
			walkExpr(v.Path)
		}
	}

	switch v := n.(type) {
	case ast.Expr:
		walkExpr(v)
	case ast.Stmt:
		walkStmt(v)
	}
	return out
}
