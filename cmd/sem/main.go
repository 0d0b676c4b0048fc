// Command sem computes pairwise debt among members of a shared
// household from an append-only ledger of dated events.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			printUsage()
			return
		case "--version", "-v", "version":
			fmt.Println("sem", version)
			return
		}
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}

	// Bare invocation reads the ledger from stdin, like the classic
	// filter usage: sem < data.txt
	if len(os.Args) < 2 {
		os.Exit(a.cmdRun(nil))
	}

	switch os.Args[1] {
	case "run":
		os.Exit(a.cmdRun(os.Args[2:]))
	case "insert":
		os.Exit(a.cmdInsert(os.Args[2:]))
	case "timeline":
		os.Exit(a.cmdTimeline(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "sem: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'sem --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`sem — shared expense manager

Computes who owes whom from an append-only ledger of household events:
arrivals, departures, temporary absences, transfers, bill payments and
shared purchases. Debts are derived, never stored: PAY distributes a
bill over its billing window in proportion to per-interval occupancy;
BUY splits a purchase among those currently renting.

Usage:
  sem [command] [flags] < ledger

Commands:
  run                       Compute the debt table (default)
  insert "<record>"         Insert a record preserving chronology
  timeline                  Render a per-person ASCII timeline

Flags (run):
  --input <file>            Read the ledger from a file instead of stdin
  --db <file>               Write a SQLite snapshot of the final state
  --trace                   Trace engine decisions to stderr
  --json                    JSON output

Ledger records, one per line (# starts a comment):
  START    DATE NICK
  STOP     DATE NICK
  PAUSE    DATE NICK
  RESUME   DATE NICK
  TRANSFER DATE FROM TO AMOUNT
  BUY      DATE NICK AMOUNT [description...]
  PAY      DATE NICK AMOUNT START_DATE END_DATE

DATE is ISO-8601, date-only or with a time part (UTC). AMOUNT is a
decimal with at most two fractional digits.

Environment:
  SEM_INPUT    Default ledger file
  SEM_DB       Default snapshot database path
  SEM_TRACE    Enable tracing (same as --trace)

Exit codes:
  0  success
  1  error (parse error, unknown person, invariant violation, I/O)
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "sem: "+format+"\n", args...)
	os.Exit(1)
}
