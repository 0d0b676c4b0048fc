package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/quirinpa/sem/pkg/engine"
	"github.com/quirinpa/sem/pkg/ledger"
	"github.com/quirinpa/sem/pkg/model"
	"github.com/quirinpa/sem/pkg/store"
)

func (a *app) cmdRun(args []string) int {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	input := flags.String("input", a.cfg.Input, "ledger file (default stdin)")
	dbPath := flags.String("db", a.cfg.DB, "write a SQLite snapshot of the final state")
	trace := flags.Bool("trace", a.cfg.Trace, "trace engine decisions to stderr")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	in, err := openInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sem: run: %v\n", err)
		return 1
	}
	defer in.Close()

	eng := engine.New(a.logger(*trace))
	if err := runLedger(eng, in); err != nil {
		fmt.Fprintf(os.Stderr, "sem: run: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"debts": debtLines(eng)})
	} else if err := eng.Report(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sem: run: write report: %v\n", err)
		return 1
	}

	if *dbPath != "" {
		if err := saveSnapshot(eng, *dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "sem: run: %v\n", err)
			return 1
		}
	}
	return 0
}

// runLedger feeds every record of the stream to the engine. The first
// error aborts; no partial report is emitted by the caller.
func runLedger(eng *engine.Engine, r io.Reader) error {
	rd := ledger.NewReader(r)
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := eng.Apply(*rec); err != nil {
			return fmt.Errorf("line %d: %w", rd.Line(), err)
		}
	}
}

// debtLine is one debt edge in debtor→creditor direction for JSON
// output.
type debtLine struct {
	Debtor   string `json:"debtor"`
	Creditor string `json:"creditor"`
	Amount   string `json:"amount"`
}

func debtLines(eng *engine.Engine) []debtLine {
	reg := eng.Registry()
	edges := eng.Debts().NonZero()
	out := make([]debtLine, 0, len(edges))
	for _, e := range edges {
		d := debtLine{Debtor: reg.NameOf(e.Hi), Creditor: reg.NameOf(e.Lo), Amount: e.Cents.String()}
		if e.Cents < 0 {
			d = debtLine{Debtor: reg.NameOf(e.Lo), Creditor: reg.NameOf(e.Hi), Amount: (-e.Cents).String()}
		}
		out = append(out, d)
	}
	return out
}

// saveSnapshot persists the engine's final state.
func saveSnapshot(eng *engine.Engine, path string) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(buildSnapshot(eng))
}

// buildSnapshot collects the engine state into a store.Snapshot.
func buildSnapshot(eng *engine.Engine) store.Snapshot {
	var snap store.Snapshot
	eng.Registry().Each(func(id model.PersonID, nick string) {
		snap.Persons = append(snap.Persons, store.Person{ID: id, Nick: nick})
	})
	for _, iv := range eng.Presence().All() {
		snap.Intervals = append(snap.Intervals, store.StoredInterval{Store: store.KindPresence, Interval: iv})
	}
	for _, iv := range eng.Obligation().All() {
		snap.Intervals = append(snap.Intervals, store.StoredInterval{Store: store.KindObligation, Interval: iv})
	}
	snap.Debts = eng.Debts().NonZero()
	return snap
}
