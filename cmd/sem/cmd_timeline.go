package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quirinpa/sem/pkg/engine"
	"github.com/quirinpa/sem/pkg/timeline"
)

func (a *app) cmdTimeline(args []string) int {
	flags := flag.NewFlagSet("timeline", flag.ContinueOnError)
	input := flags.String("input", a.cfg.Input, "ledger file (default stdin)")
	trace := flags.Bool("trace", a.cfg.Trace, "trace engine decisions to stderr")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	in, err := openInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sem: timeline: %v\n", err)
		return 1
	}
	defer in.Close()

	eng := engine.New(a.logger(*trace))
	if err := runLedger(eng, in); err != nil {
		fmt.Fprintf(os.Stderr, "sem: timeline: %v\n", err)
		return 1
	}
	if err := timeline.Render(os.Stdout, eng.Registry(), eng.Presence(), eng.Obligation()); err != nil {
		fmt.Fprintf(os.Stderr, "sem: timeline: %v\n", err)
		return 1
	}
	return 0
}
