package parser

import (
	"embedscript/internal/ast"
	"embedscript/internal/lexer"
	"embedscript/internal/value"
)

// SlotKind tags one element of a fixed custom-syntax sequence.
type SlotKind int

const (
	SlotKeyword SlotKind = iota
	SlotIdent
	SlotExpr
	SlotBlock
	SlotSymbol
)

// NextSlotFn is the dynamic form of a custom syntax: given the literal
// tokens consumed so far, it returns the next expected SlotKind, or
// false to terminate the sequence.
type NextSlotFn func(consumed []string) (SlotKind, bool)

// CustomSyntax is a host-registered extension to the grammar, matched
// against the token stream in prefix position once its Keyword is seen
// as the first token of a statement/expression.
type CustomSyntax struct {
	Keyword string
	// Fixed is used when non-nil: a static slot sequence.
	Fixed []SlotKind
	// Dynamic is used when Fixed is nil: a callback-driven slot sequence.
	Dynamic NextSlotFn
	// Eval is invoked by the evaluator once the custom syntax's slots
	// have all been parsed, given a CustomContext and the unevaluated
	// slot expression trees so it can evaluate (or re-evaluate) them on
	// its own schedule and bind new scope variables of its own.
	Eval func(ctx ast.CustomContext, slots []ast.Expr) (value.Value, error)
}

// RegisterCustomSyntax installs cs so that a leading token matching
// cs.Keyword triggers custom-syntax parsing instead of the normal
// identifier/statement grammar.
func (p *Parser) RegisterCustomSyntax(cs *CustomSyntax) {
	p.customs = append(p.customs, cs)
	if !p.customSyntaxWired {
		p.prefixFns[lexer.IDENT] = p.wrapIdentifierWithCustomSyntax(p.prefixFns[lexer.IDENT])
		p.customSyntaxWired = true
	}
}

// wrapIdentifierWithCustomSyntax intercepts the default identifier
// prefix parser: if the current token's literal matches a registered
// custom syntax's Keyword, parse that syntax instead of a plain
// VariableExpr.
func (p *Parser) wrapIdentifierWithCustomSyntax(fallback prefixParseFn) prefixParseFn {
	return func(pp *Parser) ast.Expr {
		for _, cs := range pp.customs {
			if pp.cur.Literal == cs.Keyword {
				return pp.parseCustomSyntax(cs)
			}
		}
		return fallback(pp)
	}
}

func (p *Parser) parseCustomSyntax(cs *CustomSyntax) ast.Expr {
	pos := p.cur.Pos
	custom := &ast.CustomExpr{Position: pos, Keyword: cs.Keyword, Eval: cs.Eval}
	var consumed []string
	consumed = append(consumed, p.cur.Literal)

	nextKind := func(i int) (SlotKind, bool) {
		if cs.Fixed != nil {
			if i >= len(cs.Fixed) {
				return 0, false
			}
			return cs.Fixed[i], true
		}
		return cs.Dynamic(consumed)
	}

	for i := 0; ; i++ {
		kind, ok := nextKind(i)
		if !ok {
			break
		}
		p.next()
		switch kind {
		case SlotKeyword, SlotSymbol:
			consumed = append(consumed, p.cur.Literal)
		case SlotIdent:
			if !p.curIs(lexer.IDENT) {
				p.errorf(ErrExpectedIdent, "custom syntax %q expected an identifier slot", cs.Keyword)
				return custom
			}
			custom.Slots = append(custom.Slots, &ast.LiteralExpr{Position: p.cur.Pos, Value: value.NewStr(p.cur.Literal)})
			consumed = append(consumed, p.cur.Literal)
		case SlotExpr:
			custom.Slots = append(custom.Slots, p.parseExpression(LOWEST))
			consumed = append(consumed, "$expr$")
		case SlotBlock:
			if !p.curIs(lexer.LBRACE) {
				p.errorf(ErrMissingLBrace, "custom syntax %q expected a block slot", cs.Keyword)
				return custom
			}
			block := p.parseBlock(p.rootLib)
			custom.Slots = append(custom.Slots, &ast.StmtExpr{Position: block.Position, Block: block})
			consumed = append(consumed, "$block$")
		}
	}
	return custom
}
