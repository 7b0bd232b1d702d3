package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"embedscript/engine"
)

var (
	runEvalExpr string
	runOptLevel string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and evaluate a script, printing its final value",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "run inline code instead of reading from file")
	runCmd.Flags().StringVar(&runOptLevel, "opt-level", "simple", "optimization level: none|simple|full")
}

func runRun(_ *cobra.Command, args []string) error {
	source, name, err := readSource(runEvalExpr, args)
	if err != nil {
		return err
	}

	level, err := parseOptLevelFlag(runOptLevel)
	if err != nil {
		return err
	}
	e := engine.New(engine.WithOptimizationLevel(level))
	e.OnPrint(func(line string) { fmt.Println(line) })
	e.OnDebug(func(line string) { fmt.Fprintln(os.Stderr, line) })

	v, err := e.Run(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, err)
		return fmt.Errorf("running %s failed", name)
	}
	fmt.Println(v.String())
	return nil
}
