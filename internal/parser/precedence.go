package parser

import "embedscript/internal/lexer"

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	RANGE       // .. ..=
	OR          // ||
	AND         // &&
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	IN          // in
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	CALL        // f(args)
	INDEX       // a[i]
	MEMBER      // a.b
)

var precedences = map[lexer.Kind]int{
	lexer.DOTDOT:    RANGE,
	lexer.DOTDOTEQ:  RANGE,
	lexer.OROR:      OR,
	lexer.ANDAND:    AND,
	lexer.EQ:        EQUALS,
	lexer.NEQ:       EQUALS,
	lexer.LT:        LESSGREATER,
	lexer.GT:        LESSGREATER,
	lexer.LE:        LESSGREATER,
	lexer.GE:        LESSGREATER,
	lexer.IN:        IN,
	lexer.PIPE:      BITOR,
	lexer.CARET:     BITXOR,
	lexer.AMP:       BITAND,
	lexer.LSHIFT:    SHIFT,
	lexer.RSHIFT:    SHIFT,
	lexer.PLUS:      SUM,
	lexer.MINUS:     SUM,
	lexer.STAR:      PRODUCT,
	lexer.SLASH:     PRODUCT,
	lexer.PERCENT:   PRODUCT,
	lexer.LPAREN:    CALL,
	lexer.LBRACKET:  INDEX,
	lexer.DOT:       MEMBER,
}
