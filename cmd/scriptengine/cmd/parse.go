package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedscript/internal/lexer"
	"embedscript/internal/parser"
)

var parseEvalExpr string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a script and print its statement tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline code instead of reading from file")
}

func runParse(_ *cobra.Command, args []string) error {
	source, name, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	lex := lexer.New([]string{source})
	p := parser.New(lex)
	tree, perrs := p.ParseProgram()
	if len(lex.Errors()) > 0 || len(perrs) > 0 {
		printCompileErrors(name, lex.Errors(), perrs)
		return fmt.Errorf("parsing failed")
	}

	for _, stmt := range tree.Statements {
		fmt.Println(stmt.String())
	}
	for _, fn := range tree.Lib.Symbols() {
		fmt.Fprintf(os.Stderr, "fn %s\n", fn)
	}
	return nil
}

func printCompileErrors(name string, lexErrs []lexer.LexError, parseErrs []*parser.ParseError) {
	for _, e := range lexErrs {
		fmt.Fprintf(os.Stderr, "%s: lex error: %s\n", name, e.Message)
	}
	for _, e := range parseErrs {
		fmt.Fprintf(os.Stderr, "%s: parse error: %s\n", name, e.Message)
	}
}
