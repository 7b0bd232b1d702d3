package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedscript/engine"
	"embedscript/internal/optimizer"
)

var (
	compileEvalExpr string
	compileOptLevel string
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a script and print its optimized statement tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileEvalExpr, "eval", "e", "", "compile inline code instead of reading from file")
	compileCmd.Flags().StringVar(&compileOptLevel, "opt-level", "simple", "optimization level: none|simple|full")
}

func runCompile(_ *cobra.Command, args []string) error {
	source, name, err := readSource(compileEvalExpr, args)
	if err != nil {
		return err
	}

	level, err := parseOptLevelFlag(compileOptLevel)
	if err != nil {
		return err
	}

	e := engine.New(engine.WithOptimizationLevel(level))
	tree, err := e.Compile(source)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for _, stmt := range tree.Statements {
		fmt.Println(stmt.String())
	}
	return nil
}

func parseOptLevelFlag(s string) (optimizer.Level, error) {
	switch s {
	case "", "simple":
		return optimizer.Simple, nil
	case "none":
		return optimizer.None, nil
	case "full":
		return optimizer.Full, nil
	default:
		return optimizer.None, fmt.Errorf("unknown --opt-level %q (want none|simple|full)", s)
	}
}
