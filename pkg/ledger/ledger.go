// Package ledger parses the append-only operation stream.
//
// One record per line: an operation keyword, an ISO-8601 timestamp, and
// the operation's positional fields. Lines starting with '#' and blank
// lines are skipped. Tokens after the required positional fields are
// ignored; they are reserved for free-form metadata such as purchase
// descriptions.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quirinpa/sem/pkg/model"
)

// ErrUnknownOp is returned for a line whose keyword is not a known
// operation.
var ErrUnknownOp = errors.New("unknown operation")

var kinds = map[string]model.OpKind{
	"START":    model.OpStart,
	"STOP":     model.OpStop,
	"PAUSE":    model.OpPause,
	"RESUME":   model.OpResume,
	"TRANSFER": model.OpTransfer,
	"BUY":      model.OpBuy,
	"PAY":      model.OpPay,
}

// ParseLine parses one ledger line. It returns (nil, nil) for comment
// and blank lines.
func ParseLine(line string) (*model.Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	fields := strings.Fields(trimmed)
	kind, ok := kinds[fields[0]]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownOp, fields[0])
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("%s: missing timestamp", fields[0])
	}
	ts, err := model.ParseTime(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fields[0], err)
	}

	rec := &model.Record{Kind: kind, TS: ts}
	args := fields[2:]

	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d fields, got %d", kind, n, len(args))
		}
		return nil
	}

	switch kind {
	case model.OpStart, model.OpStop, model.OpPause, model.OpResume:
		if err := need(1); err != nil {
			return nil, err
		}
		rec.Nick = args[0]

	case model.OpTransfer:
		if err := need(3); err != nil {
			return nil, err
		}
		rec.Nick, rec.ToNick = args[0], args[1]
		if rec.Amount, err = parseAmount(kind, args[2]); err != nil {
			return nil, err
		}

	case model.OpBuy:
		if err := need(2); err != nil {
			return nil, err
		}
		rec.Nick = args[0]
		if rec.Amount, err = parseAmount(kind, args[1]); err != nil {
			return nil, err
		}

	case model.OpPay:
		if err := need(4); err != nil {
			return nil, err
		}
		rec.Nick = args[0]
		if rec.Amount, err = parseAmount(kind, args[1]); err != nil {
			return nil, err
		}
		if rec.WinMin, err = model.ParseTime(args[2]); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if rec.WinMax, err = model.ParseTime(args[3]); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}

	if err := model.CheckNick(rec.Nick); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if rec.Kind == model.OpTransfer {
		if err := model.CheckNick(rec.ToNick); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return rec, nil
}

func parseAmount(kind model.OpKind, s string) (model.Cents, error) {
	c, err := model.ParseAmount(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", kind, err)
	}
	if c <= 0 {
		return 0, fmt.Errorf("%s: amount %q is not positive", kind, s)
	}
	return c, nil
}

// Reader yields parsed records from a ledger stream, skipping comment
// and blank lines. Errors carry the 1-based line number.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps an input stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (*model.Record, error) {
	for r.sc.Scan() {
		r.line++
		rec, err := ParseLine(r.sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if rec != nil {
			return rec, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }
