// Command scriptengine is a small CLI front end over the engine package:
// run, lex, parse, compile and symbols subcommands for exercising and
// debugging scripts outside of a host embedding.
package main

import (
	"fmt"
	"os"

	"embedscript/cmd/scriptengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
