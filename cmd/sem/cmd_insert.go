package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quirinpa/sem/pkg/ledger"
)

func (a *app) cmdInsert(args []string) int {
	flags := flag.NewFlagSet("insert", flag.ContinueOnError)
	input := flags.String("input", a.cfg.Input, "ledger file (default stdin)")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	rest := flags.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "sem: insert: expected exactly one record argument")
		return 1
	}

	in, err := openInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sem: insert: %v\n", err)
		return 1
	}
	defer in.Close()

	if err := ledger.Insert(os.Stdout, in, rest[0]); err != nil {
		fmt.Fprintf(os.Stderr, "sem: insert: %v\n", err)
		return 1
	}
	return 0
}
