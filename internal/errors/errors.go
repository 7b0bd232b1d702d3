// Package errors implements the engine's tagged error taxonomy: a single EvalError
// kind carrying position and an optional wrapped cause, plus the
// catchable/fatal split try/catch relies on.
package errors

import (
	"fmt"
	"strings"

	"embedscript/internal/lexer"
)

// Kind tags one of the engine's error variants.
type Kind string

const (
	KindParsing              Kind = "Parsing"
	KindFunctionNotFound      Kind = "FunctionNotFound"
	KindInFunctionCall        Kind = "InFunctionCall"
	KindVariableNotFound      Kind = "VariableNotFound"
	KindIndexNotFound         Kind = "IndexNotFound"
	KindArrayBounds           Kind = "ArrayBounds"
	KindStringBounds          Kind = "StringBounds"
	KindMismatchDataType      Kind = "MismatchDataType"
	KindMismatchOutputType    Kind = "MismatchOutputType"
	KindArithmetic            Kind = "Arithmetic"
	KindStackOverflow         Kind = "StackOverflow"
	KindDataRace              Kind = "DataRace"
	KindAssignmentToConstant  Kind = "AssignmentToConstant"
	KindTerminated            Kind = "Terminated"
	KindSystem                Kind = "System"
	KindRuntime               Kind = "Runtime"
)

// fatal holds the kinds try/catch can never intercept.
var fatal = map[Kind]bool{
	KindTerminated:    true,
	KindStackOverflow: true,
	KindParsing:       true,
}

// EvalError is the engine's single error type. Name/Pos/Cause are
// populated as available for the given Kind; Value carries the thrown or
// synthesized script-visible representation used by try/catch.
type EvalError struct {
	Kind     Kind
	Message  string
	Name     string
	Expected string
	Got      string
	Pos      lexer.Position
	Cause    error
	Value    any // the value.Value carried by Throw/Runtime/Terminated kinds; any to avoid an import cycle with internal/value
}

func (e *EvalError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Pos)
}

func (e *EvalError) Unwrap() error { return e.Cause }

// Catchable reports whether a try/catch block may intercept this error.
func (e *EvalError) Catchable() bool { return !fatal[e.Kind] }

func New(kind Kind, pos lexer.Position, message string) *EvalError {
	return &EvalError{Kind: kind, Pos: pos, Message: message}
}

func Newf(kind Kind, pos lexer.Position, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func FunctionNotFound(pos lexer.Position, name string) *EvalError {
	return &EvalError{Kind: KindFunctionNotFound, Pos: pos, Name: name, Message: fmt.Sprintf("function not found: %s", name)}
}

func InFunctionCall(pos lexer.Position, name string, cause error) *EvalError {
	return &EvalError{Kind: KindInFunctionCall, Pos: pos, Name: name, Cause: cause, Message: fmt.Sprintf("error in call to %s: %s", name, cause)}
}

func VariableNotFound(pos lexer.Position, name string) *EvalError {
	return &EvalError{Kind: KindVariableNotFound, Pos: pos, Name: name, Message: fmt.Sprintf("variable not found: %s", name)}
}

func IndexNotFound(pos lexer.Position, key string) *EvalError {
	return &EvalError{Kind: KindIndexNotFound, Pos: pos, Name: key, Message: fmt.Sprintf("key not found: %s", key)}
}

func ArrayBounds(pos lexer.Position, index, length int) *EvalError {
	return &EvalError{Kind: KindArrayBounds, Pos: pos, Message: fmt.Sprintf("array index %d out of bounds (length %d)", index, length)}
}

func StringBounds(pos lexer.Position, index, length int) *EvalError {
	return &EvalError{Kind: KindStringBounds, Pos: pos, Message: fmt.Sprintf("string index %d out of bounds (length %d)", index, length)}
}

func MismatchDataType(pos lexer.Position, expected, got string) *EvalError {
	return &EvalError{Kind: KindMismatchDataType, Pos: pos, Expected: expected, Got: got, Message: fmt.Sprintf("expected %s, got %s", expected, got)}
}

func MismatchOutputType(pos lexer.Position, expected, got string) *EvalError {
	return &EvalError{Kind: KindMismatchOutputType, Pos: pos, Expected: expected, Got: got, Message: fmt.Sprintf("result type mismatch: expected %s, got %s", expected, got)}
}

func Arithmetic(pos lexer.Position, message string) *EvalError {
	return &EvalError{Kind: KindArithmetic, Pos: pos, Message: message}
}

func StackOverflow(pos lexer.Position) *EvalError {
	return &EvalError{Kind: KindStackOverflow, Pos: pos, Message: "call stack depth limit exceeded"}
}

func DataRace(pos lexer.Position, name string) *EvalError {
	return &EvalError{Kind: KindDataRace, Pos: pos, Name: name, Message: fmt.Sprintf("data race on shared variable: %s", name)}
}

func AssignmentToConstant(pos lexer.Position, name string) *EvalError {
	return &EvalError{Kind: KindAssignmentToConstant, Pos: pos, Name: name, Message: fmt.Sprintf("cannot assign to constant: %s", name)}
}

func Terminated(pos lexer.Position, value any) *EvalError {
	return &EvalError{Kind: KindTerminated, Pos: pos, Value: value, Message: "execution terminated by progress callback"}
}

func System(message string, cause error) *EvalError {
	return &EvalError{Kind: KindSystem, Cause: cause, Message: message}
}

func Runtime(pos lexer.Position, value any, message string) *EvalError {
	return &EvalError{Kind: KindRuntime, Pos: pos, Value: value, Message: message}
}

// Format renders e as a diagnostic: a position header,
// the offending source line with a caret, and the message, optionally in
// ANSI color.
func (e *EvalError) Format(source string, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error at line %d:%d\n", e.Pos.Line, e.Pos.Column)

	if line := sourceLine(source, e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		if color {
			b.WriteString("\033[1;31m")
		}
		b.WriteString("^")
		if color {
			b.WriteString("\033[0m")
		}
		b.WriteString("\n")
	}

	if color {
		b.WriteString("\033[1m")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if color {
		b.WriteString("\033[0m")
	}
	return b.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}
