// Package parser implements hand-written recursive descent for
// statements and Pratt parsing for expression precedence.
package parser

import (
	"fmt"

	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
)

// prefixParseFn parses a prefix-position expression starting at the
// current token.
type prefixParseFn func(p *Parser) ast.Expr

// infixParseFn continues parsing an infix expression given the
// already-parsed left operand.
type infixParseFn func(p *Parser, left ast.Expr) ast.Expr

// Parser turns a token stream into an *ast.AST using prefix/infix
// function tables for Pratt expression parsing (see precedence.go) and
// a single flat frameTracker per compilation unit/function instead of a
// symbol-table-based semantic pass.
type Parser struct {
	lex *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token

	errors []*ParseError

	prefixFns map[lexer.Kind]prefixParseFn
	infixFns  map[lexer.Kind]infixParseFn

	frames *frameTracker

	customs           []*CustomSyntax
	customSyntaxWired bool

	// rootLib is the top-level AST's function library, used by closure
	// literals to register their synthesized anonymous functions
	// regardless of parse-time nesting depth.
	rootLib *module.Module
	// anonCounter names successive closure literals __anon_1, __anon_2, …
	anonCounter int
}

// New builds a Parser over lex, priming the current/peek token pair.
func New(lex *lexer.Lexer) *Parser {
	p := &Parser{lex: lex, frames: &frameTracker{}}
	p.prefixFns = map[lexer.Kind]prefixParseFn{
		lexer.INT:      parseIntLiteral,
		lexer.FLOAT:    parseFloatLiteral,
		lexer.STRING:   parseStringLiteral,
		lexer.CHAR:     parseCharLiteral,
		lexer.TRUE:     parseBoolLiteral,
		lexer.FALSE:    parseBoolLiteral,
		lexer.UNIT:     parseUnitLiteral,
		lexer.IDENT:    parseIdentifier,
		lexer.LPAREN:   parseGroupedExpr,
		lexer.LBRACKET: parseArrayLiteral,
		lexer.MAPOPEN:  parseMapLiteral,
		lexer.MINUS:    parsePrefixExpr,
		lexer.BANG:     parsePrefixExpr,
		lexer.LBRACE:   parseBlockAsExpr,
		lexer.PIPE:     parseClosureLiteral,
		lexer.OROR:     parseEmptyClosureLiteral,
		lexer.AMP:      parseFnPointerExpr,
		lexer.RESERVED: parseReservedIdent,
	}
	p.infixFns = map[lexer.Kind]infixParseFn{
		lexer.PLUS:     parseBinaryExpr,
		lexer.MINUS:    parseBinaryExpr,
		lexer.STAR:     parseBinaryExpr,
		lexer.SLASH:    parseBinaryExpr,
		lexer.PERCENT:  parseBinaryExpr,
		lexer.EQ:       parseBinaryExpr,
		lexer.NEQ:      parseBinaryExpr,
		lexer.LT:       parseBinaryExpr,
		lexer.GT:       parseBinaryExpr,
		lexer.LE:       parseBinaryExpr,
		lexer.GE:       parseBinaryExpr,
		lexer.AMP:      parseBinaryExpr,
		lexer.PIPE:     parseBinaryExpr,
		lexer.CARET:    parseBinaryExpr,
		lexer.LSHIFT:   parseBinaryExpr,
		lexer.RSHIFT:   parseBinaryExpr,
		lexer.ANDAND:   parseAndExpr,
		lexer.OROR:     parseOrExpr,
		lexer.IN:       parseInExpr,
		lexer.DOTDOT:   parseRangeExpr,
		lexer.DOTDOTEQ: parseRangeExpr,
		lexer.LPAREN:   parseCallExpr,
		lexer.LBRACKET: parseIndexExpr,
		lexer.DOT:      parseDotExpr,
	}
	p.next()
	p.next()
	return p
}

// Errors returns every error accumulated during Parse.
func (p *Parser) Errors() []*ParseError { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) curIs(k lexer.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k lexer.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k lexer.Kind, kind ErrorKind, msg string) bool {
	if p.peekIs(k) {
		p.next()
		return true
	}
	p.errorf(kind, msg+", got %q", p.peek.Literal)
	return false
}

func (p *Parser) errorf(kind ErrorKind, format string, args ...any) {
	p.errors = append(p.errors, &ParseError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Pos:     p.cur.Pos,
	})
}

func (p *Parser) precedence(k lexer.Kind) int {
	if prec, ok := precedences[k]; ok {
		return prec
	}
	return LOWEST
}

// Parse consumes the entire token stream and returns the resulting AST
// plus any accumulated errors. Parsing continues past a statement-level
// error on a best-effort basis so multiple errors can be reported in one
// pass.
func Parse(lex *lexer.Lexer) (*ast.AST, []*ParseError) {
	return New(lex).ParseProgram()
}

// ParseProgram consumes the entire token stream using p's existing
// state, in particular any custom syntax already registered via
// RegisterCustomSyntax, which must be wired before parsing starts so the
// identifier prefix-parser interception is in place from the first
// token. Parse is the plain
// entry point for callers with no custom syntax to register.
func (p *Parser) ParseProgram() (*ast.AST, []*ParseError) {
	out := ast.New()
	p.rootLib = out.Lib
	for !p.curIs(lexer.EOF) {
		stmt := p.parseStatement(out.Lib)
		if stmt != nil {
			out.Statements = append(out.Statements, stmt)
		}
		p.next()
	}
	return out, p.errors
}

// parseStatement dispatches on the current token's kind. lib receives
// function definitions encountered at this nesting level.
func (p *Parser) parseStatement(lib *module.Module) ast.Stmt {
	switch p.cur.Kind {
	case lexer.SEMI:
		return &ast.NoopStmt{Position: p.cur.Pos}
	case lexer.LBRACE:
		return p.parseBlock(lib)
	case lexer.IF:
		return p.parseIf(lib)
	case lexer.WHILE:
		return p.parseWhile(lib)
	case lexer.LOOP:
		return p.parseLoop(lib)
	case lexer.FOR:
		return p.parseFor(lib)
	case lexer.LET:
		return p.parseLet()
	case lexer.CONST:
		return p.parseConst()
	case lexer.TRY:
		return p.parseTryCatch(lib)
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.THROW:
		return p.parseThrow()
	case lexer.BREAK:
		pos := p.cur.Pos
		p.consumeTrailingSemi()
		return &ast.BreakStmt{Position: pos}
	case lexer.CONTINUE:
		pos := p.cur.Pos
		p.consumeTrailingSemi()
		return &ast.ContinueStmt{Position: pos}
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.EXPORT:
		return p.parseExport()
	case lexer.FN:
		p.parseFnDef(lib)
		return nil
	case lexer.IDENT:
		// "share" is a contextual keyword, not a reserved lexer keyword,
		// so it reaches here as a plain IDENT.
		if p.cur.Literal == "share" && p.peekIs(lexer.IDENT) {
			return p.parseShare()
		}
		return p.parseExprOrAssignment()
	default:
		return p.parseExprOrAssignment()
	}
}

func (p *Parser) consumeTrailingSemi() {
	if p.peekIs(lexer.SEMI) {
		p.next()
	}
}

// parseBlock parses `{ stmt; stmt; … }`, pushing and popping a
// frameTracker mark so block-local let/const bindings go out of scope
// for resolution once the block ends.
func (p *Parser) parseBlock(lib *module.Module) *ast.BlockStmt {
	block := &ast.BlockStmt{Position: p.cur.Pos}
	mark := p.frames.mark()
	p.next() // consume '{'
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		stmt := p.parseStatement(lib)
		if stmt != nil {
			block.List = append(block.List, stmt)
		}
		p.next()
	}
	p.frames.truncate(mark)
	if !p.curIs(lexer.RBRACE) {
		p.errorf(ErrMissingRBrace, "expected '}' to close block")
	}
	return block
}

func (p *Parser) parseIf(lib *module.Module) ast.Stmt {
	pos := p.cur.Pos
	p.next()
	cond := p.parseExpression(LOWEST)
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after if condition") {
		return &ast.NoopStmt{Position: pos}
	}
	then := p.parseBlock(lib)
	stmt := &ast.IfThenElseStmt{Position: pos, Condition: cond, Then: then}
	if p.peekIs(lexer.ELSE) {
		p.next()
		p.next()
		switch {
		case p.curIs(lexer.IF):
			stmt.Alternative = p.parseIf(lib)
		case p.curIs(lexer.LBRACE):
			stmt.Alternative = p.parseBlock(lib)
		default:
			p.errorf(ErrMissingLBrace, "expected '{' or 'if' after else")
		}
	}
	return stmt
}

func (p *Parser) parseWhile(lib *module.Module) ast.Stmt {
	pos := p.cur.Pos
	p.next()
	cond := p.parseExpression(LOWEST)
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after while condition") {
		return &ast.NoopStmt{Position: pos}
	}
	body := p.parseBlock(lib)
	return &ast.WhileStmt{Position: pos, Condition: cond, Body: body}
}

func (p *Parser) parseLoop(lib *module.Module) ast.Stmt {
	pos := p.cur.Pos
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after loop") {
		return &ast.NoopStmt{Position: pos}
	}
	body := p.parseBlock(lib)
	return &ast.LoopStmt{Position: pos, Body: body}
}

func (p *Parser) parseFor(lib *module.Module) ast.Stmt {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected loop variable name") {
		return &ast.NoopStmt{Position: pos}
	}
	varName := p.cur.Literal
	if !p.expect(lexer.IN, ErrMissingIn, "expected 'in' after for-loop variable") {
		return &ast.NoopStmt{Position: pos}
	}
	p.next()
	iterable := p.parseExpression(LOWEST)
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after for-loop iterable") {
		return &ast.NoopStmt{Position: pos}
	}
	mark := p.frames.mark()
	p.frames.declare(varName)
	body := p.parseBlock(lib)
	p.frames.truncate(mark)
	return &ast.ForStmt{Position: pos, Iterable: iterable, VarName: varName, Body: body}
}

func (p *Parser) parseLet() ast.Stmt {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected variable name after 'let'") {
		return &ast.NoopStmt{Position: pos}
	}
	name := p.cur.Literal
	var init ast.Expr
	if p.peekIs(lexer.ASSIGN) {
		p.next()
		p.next()
		init = p.parseExpression(LOWEST)
	}
	p.frames.declare(name)
	p.consumeTrailingSemi()
	return &ast.LetStmt{Position: pos, Name: name, Init: init}
}

func (p *Parser) parseConst() ast.Stmt {
	pos := p.cur.Pos
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected constant name after 'const'") {
		return &ast.NoopStmt{Position: pos}
	}
	name := p.cur.Literal
	var init ast.Expr
	if p.peekIs(lexer.ASSIGN) {
		p.next()
		p.next()
		init = p.parseExpression(LOWEST)
	}
	p.frames.declare(name)
	p.consumeTrailingSemi()
	return &ast.ConstStmt{Position: pos, Name: name, Init: init}
}

func (p *Parser) parseTryCatch(lib *module.Module) ast.Stmt {
	pos := p.cur.Pos
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after try") {
		return &ast.NoopStmt{Position: pos}
	}
	body := p.parseBlock(lib)
	if !p.expect(lexer.CATCH, ErrUnexpectedToken, "expected 'catch' after try block") {
		return &ast.NoopStmt{Position: pos}
	}
	errVar := ""
	if p.peekIs(lexer.LPAREN) {
		p.next()
		if p.expect(lexer.IDENT, ErrExpectedIdent, "expected error variable name") {
			errVar = p.cur.Literal
		}
		p.expect(lexer.RPAREN, ErrMissingRParen, "expected ')' after catch variable")
	}
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' after catch") {
		return &ast.NoopStmt{Position: pos}
	}
	mark := p.frames.mark()
	if errVar != "" {
		p.frames.declare(errVar)
	}
	handler := p.parseBlock(lib)
	p.frames.truncate(mark)
	return &ast.TryCatchStmt{Position: pos, Body: body, ErrVar: errVar, Handler: handler}
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.cur.Pos
	var val ast.Expr
	if !p.peekIs(lexer.SEMI) && !p.peekIs(lexer.RBRACE) && !p.peekIs(lexer.EOF) {
		p.next()
		val = p.parseExpression(LOWEST)
	}
	p.consumeTrailingSemi()
	return &ast.ReturnStmt{Position: pos, Value: val}
}

func (p *Parser) parseThrow() ast.Stmt {
	pos := p.cur.Pos
	var val ast.Expr
	if !p.peekIs(lexer.SEMI) && !p.peekIs(lexer.RBRACE) && !p.peekIs(lexer.EOF) {
		p.next()
		val = p.parseExpression(LOWEST)
	}
	p.consumeTrailingSemi()
	return &ast.ThrowStmt{Position: pos, Value: val}
}

func (p *Parser) parseImport() ast.Stmt {
	pos := p.cur.Pos
	p.next()
	path := p.parseExpression(LOWEST)
	alias := ""
	if p.peekIs(lexer.AS) {
		p.next()
		if p.expect(lexer.IDENT, ErrExpectedIdent, "expected alias name after 'as'") {
			alias = p.cur.Literal
		}
	}
	p.consumeTrailingSemi()
	return &ast.ImportStmt{Position: pos, Path: path, Alias: alias}
}

func (p *Parser) parseExport() ast.Stmt {
	pos := p.cur.Pos
	stmt := &ast.ExportStmt{Position: pos}
	for {
		if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected exported name") {
			break
		}
		entry := ast.ExportName{Name: p.cur.Literal}
		if p.peekIs(lexer.AS) {
			p.next()
			if p.expect(lexer.IDENT, ErrExpectedIdent, "expected alias after 'as'") {
				entry.Alias = p.cur.Literal
			}
		}
		stmt.Names = append(stmt.Names, entry)
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.next()
	}
	p.consumeTrailingSemi()
	return stmt
}

func (p *Parser) parseShare() ast.Stmt {
	pos := p.cur.Pos
	p.next()
	name := p.cur.Literal
	p.consumeTrailingSemi()
	return &ast.ShareStmt{Position: pos, Name: name}
}

// parseFnDef parses `fn name(params) { body }` and registers it into lib
// as a Script callable rather than returning a Stmt.
// Parameters get their own fresh frameTracker: function bodies see only
// their own parameters and locals.
func (p *Parser) parseFnDef(lib *module.Module) {
	if !p.expect(lexer.IDENT, ErrExpectedIdent, "expected function name after 'fn'") {
		return
	}
	name := p.cur.Literal
	if !p.expect(lexer.LPAREN, ErrMissingLParen, "expected '(' after function name") {
		return
	}
	var params []string
	for !p.peekIs(lexer.RPAREN) {
		p.next()
		if !p.curIs(lexer.IDENT) {
			p.errorf(ErrExpectedIdent, "expected parameter name, got %q", p.cur.Literal)
			break
		}
		params = append(params, p.cur.Literal)
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.next()
	}
	if !p.expect(lexer.RPAREN, ErrMissingRParen, "expected ')' after parameter list") {
		return
	}
	if !p.expect(lexer.LBRACE, ErrMissingLBrace, "expected '{' to open function body") {
		return
	}

	outer := p.frames
	p.frames = &frameTracker{}
	for _, param := range params {
		p.frames.declare(param)
	}
	body := p.parseBlock(lib)
	p.frames = outer

	def := &module.ScriptDef{
		Body:   body,
		Params: params,
		Access: module.Public,
	}
	lib.RegisterScript(name, len(params), module.Public, def)
}

// parseExprOrAssignment parses a bare expression statement, recognizing
// a trailing assignment operator (`=`, `+=`, …) against the parsed
// left-hand side.
func (p *Parser) parseExprOrAssignment() ast.Stmt {
	pos := p.cur.Pos
	expr := p.parseExpression(LOWEST)
	if op, ok := assignOp(p.peek.Kind); ok {
		p.next()
		p.next()
		rhs := p.parseExpression(LOWEST)
		p.consumeTrailingSemi()
		return &ast.AssignmentStmt{Position: pos, LHS: expr, Op: op, RHS: rhs}
	}
	p.consumeTrailingSemi()
	return &ast.ExprStmt{Position: pos, Value: expr}
}

func assignOp(k lexer.Kind) (string, bool) {
	switch k {
	case lexer.ASSIGN:
		return "=", true
	case lexer.PLUS_ASSIGN:
		return "+=", true
	case lexer.MINUS_ASSIGN:
		return "-=", true
	case lexer.STAR_ASSIGN:
		return "*=", true
	case lexer.SLASH_ASSIGN:
		return "/=", true
	case lexer.PERCENT_ASSIGN:
		return "%=", true
	case lexer.AMP_ASSIGN:
		return "&=", true
	case lexer.PIPE_ASSIGN:
		return "|=", true
	case lexer.CARET_ASSIGN:
		return "^=", true
	case lexer.LSHIFT_ASSIGN:
		return "<<=", true
	case lexer.RSHIFT_ASSIGN:
		return ">>=", true
	default:
		return "", false
	}
}
