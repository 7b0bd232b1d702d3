package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedscript/engine"
)

var symbolsEvalExpr string

var symbolsCmd = &cobra.Command{
	Use:   "symbols [file]",
	Short: "List the script-defined functions a script compiles to",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbols,
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
	symbolsCmd.Flags().StringVarP(&symbolsEvalExpr, "eval", "e", "", "inspect inline code instead of reading from file")
}

func runSymbols(_ *cobra.Command, args []string) error {
	source, name, err := readSource(symbolsEvalExpr, args)
	if err != nil {
		return err
	}

	e := engine.New()
	tree, err := e.Compile(source)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for _, sym := range tree.Lib.Symbols() {
		fmt.Println(sym)
	}
	return nil
}
