package parser

import (
	"fmt"

	"embedscript/internal/lexer"
)

// ErrorKind classifies a ParseError programmatically.
type ErrorKind string

const (
	ErrUnexpectedToken  ErrorKind = "unexpected_token"
	ErrExpectedIdent    ErrorKind = "expected_identifier"
	ErrMissingLParen    ErrorKind = "missing_lparen"
	ErrMissingRParen    ErrorKind = "missing_rparen"
	ErrMissingLBrace    ErrorKind = "missing_lbrace"
	ErrMissingRBrace    ErrorKind = "missing_rbrace"
	ErrMissingRBracket  ErrorKind = "missing_rbracket"
	ErrMissingColon     ErrorKind = "missing_colon"
	ErrMissingIn        ErrorKind = "missing_in"
	ErrNoPrefixParse    ErrorKind = "no_prefix_parse_fn"
	ErrInvalidCustomDef ErrorKind = "invalid_custom_syntax_definition"
	ErrReservedAsIdent  ErrorKind = "reserved_word_as_identifier"
)

// ParseError is a single parse failure: a typed kind, a human message and
// the source position it occurred at.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Pos     lexer.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}
