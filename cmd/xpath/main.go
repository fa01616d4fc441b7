package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/wyre-dev/xpath-go/cmd/cli"
)

func main() {
	root := cli.New()
	root.Register([]string{"eval"}, cli.HandlerFunc(runEval))
	root.Register([]string{"repl"}, cli.HandlerFunc(runRepl))

	if err := root.Execute(os.Args[1:]); err != nil {
		var sug cli.SuggestionError
		if errors.As(err, &sug) && len(sug.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar subcommand(s):")
			for _, n := range sug.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
