package main

import (
	"fmt"
	"os"

	"github.com/wyre-dev/xpath-go/cmd/cli"
	"github.com/wyre-dev/xpath-go/xmlnode"
	"github.com/wyre-dev/xpath-go/xpath"
)

// runEval implements the one-shot "xpath eval '<expr>' file.xml" form: a
// spinner covers the document parse (the slow part on a large input),
// then the expression runs once and every resulting node/value prints
// on its own line.
func runEval(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: xpath eval <expression> <file.xml>")
	}
	expr, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var doc *xmlnode.Node
	spin := cli.NewSpinner()
	spin.SetMessage("parsing " + path)
	spin.Run(func() {
		doc, err = xmlnode.Parse(f)
	})
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	ctx := xpath.NewContext(doc)
	value, err := xpath.Eval(expr, ctx)
	if err != nil {
		return err
	}
	printValue(value)
	return nil
}

func printValue(v xpath.Value) {
	if v.Type() != xpath.NodeSetType {
		fmt.Println(v.GoString())
		return
	}
	for _, n := range v.Nodes() {
		fmt.Printf("%s %s %q\n", n.Kind(), n.LocalName(), n.StringValue())
	}
}
