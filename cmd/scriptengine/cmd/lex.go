package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedscript/internal/lexer"
)

var (
	lexEvalExpr  string
	lexShowPos   bool
	lexOnlyError bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a script and print the resulting tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (fragment:line:column)")
	lexCmd.Flags().BoolVar(&lexOnlyError, "only-errors", false, "show only illegal tokens")
}

func runLex(_ *cobra.Command, args []string) error {
	source, _, err := readSource(lexEvalExpr, args)
	if err != nil {
		return err
	}

	lex := lexer.New([]string{source})
	errorCount := 0
	for {
		tok := lex.Next()
		if tok.Kind == lexer.ILLEGAL {
			errorCount++
		}
		if !lexOnlyError || tok.Kind == lexer.ILLEGAL {
			printToken(tok)
		}
		if tok.Kind == lexer.EOF {
			break
		}
	}
	for _, e := range lex.Errors() {
		fmt.Fprintf(os.Stderr, "lex error: %s\n", e.Message)
		errorCount++
	}

	if errorCount > 0 {
		return fmt.Errorf("found %d lexical error(s)", errorCount)
	}
	return nil
}

func printToken(tok lexer.Token) {
	var out string
	switch tok.Kind {
	case lexer.EOF:
		out = "[EOF]"
	case lexer.ILLEGAL:
		out = fmt.Sprintf("[ILLEGAL] %q", tok.Literal)
	default:
		out = fmt.Sprintf("[%-10s] %q", tok.Kind.String(), tok.Literal)
	}
	if lexShowPos {
		out += fmt.Sprintf(" @%s", tok.Pos.String())
	}
	fmt.Println(out)
}
