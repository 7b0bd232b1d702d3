package cmd

import (
	"fmt"
	"io"
	"os"
)

// readSource resolves a subcommand's input from, in priority order: an
// inline -e/--eval expression, a file argument, or stdin. Returns the
// source text and a display name for error messages.
func readSource(evalExpr string, args []string) (string, string, error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), "<stdin>", nil
}
