package parser

import (
	"strconv"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/value"
)

// parseExpression is the Pratt parser's entry point: parse a prefix
// expression, then keep folding in infix operators whose precedence
// exceeds minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expr {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		p.errorf(ErrNoPrefixParse, "no prefix parse function for %q", p.cur.Literal)
		return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Unit{}}
	}
	left := prefix(p)

	for !p.peekIs(lexer.SEMI) && minPrec < p.precedence(p.peek.Kind) {
		infix, ok := p.infixFns[p.peek.Kind]
		if !ok {
			return left
		}
		p.next()
		left = infix(p, left)
	}
	return left
}

func parseIntLiteral(p *Parser) ast.Expr {
	n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		p.errorf(ErrUnexpectedToken, "invalid integer literal %q", p.cur.Literal)
	}
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Int(n)}
}

func parseFloatLiteral(p *Parser) ast.Expr {
	f, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.errorf(ErrUnexpectedToken, "invalid float literal %q", p.cur.Literal)
	}
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Float(f)}
}

func parseStringLiteral(p *Parser) ast.Expr {
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.NewStr(p.cur.Literal)}
}

func parseCharLiteral(p *Parser) ast.Expr {
	r := []rune(p.cur.Literal)
	var c rune
	if len(r) > 0 {
		c = r[0]
	}
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Char(c)}
}

func parseBoolLiteral(p *Parser) ast.Expr {
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Bool(p.cur.Kind == lexer.TRUE)}
}

func parseUnitLiteral(p *Parser) ast.Expr {
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Unit{}}
}

// parseIdentifier builds a VariableExpr for a bare identifier, resolving
// its Index against the active frameTracker, or for a `ns::name` path,
// which stays unresolved (Index -1).
func parseIdentifier(p *Parser) ast.Expr {
	pos := p.cur.Pos
	name := p.cur.Literal
	if p.peekIs(lexer.COLONCOLON) {
		namespace := []string{name}
		for p.peekIs(lexer.COLONCOLON) {
			p.next()
			if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected identifier after '::'") {
				break
			}
			namespace = append(namespace, p.cur.Literal)
		}
		ident := namespace[len(namespace)-1]
		return &ast.VariableExpr{Position: pos, Ident: ident, Namespace: namespace[:len(namespace)-1], Index: -1}
	}
	depth := p.frames.resolve(name)
	return &ast.VariableExpr{Position: pos, Ident: name, Index: depth}
}

// parseReservedIdent rejects a reserved name used in identifier
// position with a dedicated error instead of a generic parse failure;
// a host token hook may remap the token back to IDENT before it gets
// here.
func parseReservedIdent(p *Parser) ast.Expr {
	p.errorf(ErrReservedAsIdent, "%q is a reserved name and cannot be used as an identifier", p.cur.Literal)
	return &ast.LiteralExpr{Position: p.cur.Pos, Value: value.Unit{}}
}

// parseGroupedExpr handles `(expr)`, keeping the parentheses as a
// ParenExpr.
func parseGroupedExpr(p *Parser) ast.Expr {
	pos := p.cur.Pos
	p.next()
	inner := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN, ErrMissingRParen, "expected ')' to close grouped expression")
	return &ast.ParenExpr{Position: pos, Inner: inner}
}

func parseArrayLiteral(p *Parser) ast.Expr {
	pos := p.cur.Pos
	arr := &ast.ArrayExpr{Position: pos}
	for !p.peekIs(lexer.RBRACKET) {
		p.next()
		arr.Items = append(arr.Items, p.parseExpression(LOWEST))
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.next()
	}
	p.expect(lexer.RBRACKET, ErrMissingRBracket, "expected ']' to close array literal")
	return arr
}

func parseMapLiteral(p *Parser) ast.Expr {
	pos := p.cur.Pos
	m := &ast.MapExpr{Position: pos}
	for !p.peekIs(lexer.RBRACE) {
		p.next()
		if !p.curIs(lexer.IDENT) && !p.curIs(lexer.STRING) {
			p.errorf(ErrExpectedIdent, "expected map key, got %q", p.cur.Literal)
			break
		}
		key := p.cur.Literal
		if !p.expect(lexer.COLON, ErrMissingColon, "expected ':' after map key") {
			break
		}
		p.next()
		val := p.parseExpression(LOWEST)
		m.Pairs = append(m.Pairs, ast.MapPair{Key: key, Value: val})
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.next()
	}
	p.expect(lexer.RBRACE, ErrMissingRBrace, "expected '}' to close map literal")
	return m
}

// parseBlockAsExpr lets `{ … }` appear in expression position as a
// StmtExpr.
func parseBlockAsExpr(p *Parser) ast.Expr {
	pos := p.cur.Pos
	block := p.parseBlock(p.rootLib)
	return &ast.StmtExpr{Position: pos, Block: block}
}

// parsePrefixExpr handles unary `-`/`!`, compiling them to a
// one-argument native-only call, the same shape binary operators take:
// operator calls skip the script-function search.
func parsePrefixExpr(p *Parser) ast.Expr {
	pos := p.cur.Pos
	op := p.cur.Literal
	p.next()
	operand := p.parseExpression(PREFIX)
	return &ast.FnCallExpr{
		Position: pos,
		Info: &ast.FnCallInfo{
			NativeOnly: true,
			Name:       "unary" + op,
			Args:       []ast.Expr{operand},
		},
	}
}

func parseBinaryExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	op := p.cur.Literal
	prec := p.precedence(p.cur.Kind)
	p.next()
	right := p.parseExpression(prec)
	return &ast.FnCallExpr{
		Position: pos,
		Info: &ast.FnCallInfo{
			NativeOnly: true,
			Name:       op,
			Args:       []ast.Expr{left, right},
		},
	}
}

func parseAndExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.next()
	right := p.parseExpression(AND)
	return &ast.AndExpr{Position: pos, LHS: left, RHS: right}
}

func parseOrExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.next()
	right := p.parseExpression(OR)
	return &ast.OrExpr{Position: pos, LHS: left, RHS: right}
}

func parseInExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.next()
	right := p.parseExpression(IN)
	// A range on the right (`x in 1..10`) is the whole membership target,
	// even though `..` otherwise binds looser than `in`.
	if p.peekIs(lexer.DOTDOT) || p.peekIs(lexer.DOTDOTEQ) {
		p.next()
		right = parseRangeExpr(p, right)
	}
	return &ast.InExpr{Position: pos, LHS: left, RHS: right}
}

// parseRangeExpr handles `lhs..rhs` and `lhs..=rhs`.
func parseRangeExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	inclusive := p.cur.Kind == lexer.DOTDOTEQ
	p.next()
	right := p.parseExpression(RANGE)
	return &ast.RangeExpr{Position: pos, LHS: left, RHS: right, Inclusive: inclusive}
}

// parseCallExpr handles `callee(args)`. Only a bare identifier or
// namespaced identifier on the left is a valid callee; anything else
// (e.g. a Dot chain) is a method call, handled instead inside
// parseDotExpr.
func parseCallExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	v, ok := left.(*ast.VariableExpr)
	if !ok {
		p.errorf(ErrUnexpectedToken, "left side of a call must be a name")
		return left
	}
	args := p.parseCallArgs()
	return &ast.FnCallExpr{
		Position: pos,
		Info: &ast.FnCallInfo{
			Hash:      module.ScriptHash(v.Ident, len(args)),
			Namespace: v.Namespace,
			Name:      v.Ident,
			Args:      args,
		},
	}
}

func (p *Parser) parseCallArgs() []ast.Expr {
	var args []ast.Expr
	if p.peekIs(lexer.RPAREN) {
		p.next()
		return args
	}
	p.next()
	args = append(args, p.parseExpression(LOWEST))
	for p.peekIs(lexer.COMMA) {
		p.next()
		p.next()
		args = append(args, p.parseExpression(LOWEST))
	}
	p.expect(lexer.RPAREN, ErrMissingRParen, "expected ')' to close argument list")
	return args
}

func parseIndexExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.next()
	idx := p.parseExpression(LOWEST)
	p.expect(lexer.RBRACKET, ErrMissingRBracket, "expected ']' to close index expression")
	return &ast.IndexExpr{Position: pos, LHS: left, RHS: idx}
}

// parseDotExpr parses `lhs.name`, `lhs.name(args)` (method call) or
// `lhs.name[idx]` as the right-hand side of a property chain:
// `a.b` compiles to Dot(a, Property(b)).
func parseDotExpr(p *Parser, left ast.Expr) ast.Expr {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected property or method name after '.'") {
		return left
	}
	name := p.cur.Literal
	namePos := p.cur.Pos

	if p.peekIs(lexer.LPAREN) {
		p.next()
		args := p.parseCallArgs()
		rhs := ast.Expr(&ast.FnCallExpr{
			Position: namePos,
			Info: &ast.FnCallInfo{
				Hash: module.ScriptHash(name, len(args)+1),
				Name: name,
				Args: args,
			},
		})
		return &ast.DotExpr{Position: pos, LHS: left, RHS: rhs}
	}

	getter, setter := propertyAccessorNames(name)
	rhs := ast.Expr(&ast.PropertyExpr{Position: namePos, Ident: name, GetterName: getter, SetterName: setter})
	return &ast.DotExpr{Position: pos, LHS: left, RHS: rhs}
}

// propertyAccessorNames derives getter/setter names from a property
// name by the engine's fixed prefix convention; RegisterGet/RegisterSet
// register under the same names.
func propertyAccessorNames(name string) (getter, setter string) {
	return "get_" + name, "set_" + name
}
