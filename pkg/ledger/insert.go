package ledger

import (
	"bufio"
	"fmt"
	"io"
)

// Insert copies a ledger stream to w, emitting record immediately
// before the first line whose timestamp is equal to or later than the
// record's, so the output stays chronologically ordered. If every line
// precedes the record, it is appended at the end. Comment and blank
// lines pass through untouched and never anchor the insertion.
//
// The record is validated before any output is written.
func Insert(w io.Writer, r io.Reader, record string) error {
	rec, err := ParseLine(record)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("insert record %q is not an operation", record)
	}

	sc := bufio.NewScanner(r)
	placed := false
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		cur, err := ParseLine(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !placed && cur != nil && cur.TS >= rec.TS {
			if _, err := fmt.Fprintln(w, record); err != nil {
				return err
			}
			placed = true
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if !placed {
		if _, err := fmt.Fprintln(w, record); err != nil {
			return err
		}
	}
	return nil
}
